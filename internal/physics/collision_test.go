package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

func TestCollisionPredictorNoObstaclesNeverCollides(t *testing.T) {
	c := NewCollisionPredictor(1.0, 2.0)
	result := c.Predict(spacetime.Origin, spacetime.NewVelocity(1, 0, 0), nil)

	assert.False(t, result.WillCollide)
	assert.Equal(t, float32(0), result.NearestObstacleDistance)
}

func TestCollisionPredictorFlagsObstacleWithinSafetyDistance(t *testing.T) {
	c := NewCollisionPredictor(2.0, 5.0)
	obstacle := spacetime.NewPosition(1, 0, 0)

	result := c.Predict(spacetime.Origin, spacetime.NewVelocity(1, 0, 0), []spacetime.Position{obstacle})

	assert.True(t, result.WillCollide)
	assert.Equal(t, float32(0), result.TimeToCollisionSec)
}

func TestCollisionPredictorIgnoresObstacleMovingAway(t *testing.T) {
	c := NewCollisionPredictor(0.1, 5.0)
	behind := spacetime.NewPosition(-10, 0, 0)

	result := c.Predict(spacetime.Origin, spacetime.NewVelocity(1, 0, 0), []spacetime.Position{behind})

	assert.False(t, result.WillCollide, "obstacle behind direction of travel is not closing")
}

func TestCollisionPredictorFlagsCollisionWithinFixedHorizon(t *testing.T) {
	c := NewCollisionPredictor(0.5, 10.0)
	ahead := spacetime.NewPosition(5, 0, 0)

	result := c.Predict(spacetime.Origin, spacetime.NewVelocity(1, 0, 0), []spacetime.Position{ahead})

	assert.True(t, result.WillCollide, "closing within a 10s horizon at 1 m/s over 4.5m should trigger")
}

func TestCollisionPredictorStaticRobotNeverTriggersTimeBasedCollision(t *testing.T) {
	c := NewCollisionPredictor(0.5, 10.0)
	ahead := spacetime.NewPosition(5, 0, 0)

	result := c.Predict(spacetime.Origin, spacetime.ZeroVelocity, []spacetime.Position{ahead})

	assert.False(t, result.WillCollide)
	assert.Equal(t, float32(5), result.NearestObstacleDistance)
}

func TestDynamicHorizonWidensAtHigherSpeed(t *testing.T) {
	c := NewCollisionPredictor(0.5, 0).WithDynamicHorizon(DefaultDynamicHorizonConfig())

	slow := c.effectiveHorizon(1.0)
	fast := c.effectiveHorizon(5.0)

	assert.Greater(t, fast, slow, "higher speed requires a longer stopping-distance-based horizon")
}

func TestDynamicHorizonClampsToMinAndMax(t *testing.T) {
	cfg := DefaultDynamicHorizonConfig()
	c := NewCollisionPredictor(0.5, 0).WithDynamicHorizon(cfg)

	assert.Equal(t, cfg.HorizonMin, c.effectiveHorizon(0))

	huge := c.effectiveHorizon(1000)
	assert.LessOrEqual(t, huge, cfg.HorizonMax)
}
