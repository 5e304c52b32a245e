package physics

import "github.com/ocx/edge-coordinator/internal/spacetime"

// DynamicHorizonConfig couples the collision predictor's lookahead window
// to braking capability, per spec section 4.2 and Design Notes: a fixed
// horizon over-reacts at low speed and under-reacts at high speed.
type DynamicHorizonConfig struct {
	// K scales stopping distance's contribution to the horizon.
	K float32
	// ReactionTimeSec is the driver/controller reaction time added to
	// stopping distance before dividing by speed.
	ReactionTimeSec float32
	// MaxAcceleration is the braking capability used for stopping distance.
	MaxAcceleration float32
	HorizonMin      float32
	HorizonMax      float32
}

// DefaultDynamicHorizonConfig mirrors sap-physics's defaults.
func DefaultDynamicHorizonConfig() DynamicHorizonConfig {
	return DynamicHorizonConfig{
		K:               1.0,
		ReactionTimeSec: 0.2,
		MaxAcceleration: 2.0,
		HorizonMin:      0.5,
		HorizonMax:      5.0,
	}
}

// CollisionPredictor forward-simulates straight-line closing motion
// against known obstacles to produce a REJECT-triggering time-to-collision.
type CollisionPredictor struct {
	safetyDistance float32
	fixedHorizon   float32
	dynamic        *DynamicHorizonConfig
}

// NewCollisionPredictor builds a predictor with a fixed horizon.
func NewCollisionPredictor(safetyDistance, horizonSecs float32) *CollisionPredictor {
	return &CollisionPredictor{safetyDistance: safetyDistance, fixedHorizon: horizonSecs}
}

// WithDynamicHorizon swaps in a speed-adaptive horizon.
func (c *CollisionPredictor) WithDynamicHorizon(cfg DynamicHorizonConfig) *CollisionPredictor {
	c.dynamic = &cfg
	return c
}

// CollisionResult is the outcome of one collision check against a set of
// obstacle positions.
type CollisionResult struct {
	WillCollide              bool
	TimeToCollisionSec       float32
	NearestObstacleDistance  float32
}

// effectiveHorizon returns the lookahead window (seconds) for the given speed.
func (c *CollisionPredictor) effectiveHorizon(speed float32) float32 {
	if c.dynamic == nil {
		return c.fixedHorizon
	}
	if speed <= 0 {
		return c.dynamic.HorizonMin
	}
	cfg := c.dynamic
	stoppingDistance := (speed * speed) / (2 * cfg.MaxAcceleration)
	reactionDistance := speed * cfg.ReactionTimeSec
	horizon := (stoppingDistance*cfg.K + reactionDistance) / speed
	if horizon < cfg.HorizonMin {
		return cfg.HorizonMin
	}
	if horizon > cfg.HorizonMax {
		return cfg.HorizonMax
	}
	return horizon
}

// Predict checks position p moving at velocity v against obstacles.
func (c *CollisionPredictor) Predict(p spacetime.Position, v spacetime.Velocity, obstacles []spacetime.Position) CollisionResult {
	speed := v.Magnitude()
	nearest := float32(-1)

	for _, o := range obstacles {
		d := p.Distance(o)
		if nearest < 0 || d < nearest {
			nearest = d
		}

		if d < c.safetyDistance {
			return CollisionResult{WillCollide: true, TimeToCollisionSec: 0, NearestObstacleDistance: d}
		}

		if speed <= 0 {
			continue
		}

		displacement := o.Sub(p)
		closingSpeed := v.Dot(displacement)
		if closingSpeed <= 0 {
			continue
		}

		ttc := (d - c.safetyDistance) / speed
		if ttc < c.effectiveHorizon(speed) {
			return CollisionResult{WillCollide: true, TimeToCollisionSec: ttc, NearestObstacleDistance: d}
		}
	}

	if nearest < 0 {
		nearest = 0
	}
	return CollisionResult{WillCollide: false, NearestObstacleDistance: nearest}
}
