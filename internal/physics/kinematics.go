package physics

import "github.com/ocx/edge-coordinator/internal/spacetime"

// KinematicsChecker enforces per-command velocity, acceleration, and jerk
// limits. Jerk requires remembering the previous commanded acceleration
// and its timestamp per robot, since jerk is a rate of change.
type KinematicsChecker struct {
	maxVelocity     float32
	maxAcceleration float32
	maxJerk         float32

	prevAcceleration map[uint64]spacetime.Acceleration
	prevTimestampNs  map[uint64]uint64
}

// NewKinematicsChecker builds a checker with the given limits.
func NewKinematicsChecker(maxVelocity, maxAcceleration, maxJerk float32) *KinematicsChecker {
	return &KinematicsChecker{
		maxVelocity:      maxVelocity,
		maxAcceleration:  maxAcceleration,
		maxJerk:          maxJerk,
		prevAcceleration: make(map[uint64]spacetime.Acceleration),
		prevTimestampNs:  make(map[uint64]uint64),
	}
}

// KinematicsResult is the outcome of one kinematics check.
type KinematicsResult struct {
	VelocityOK         bool
	AccelerationOK     bool
	JerkOK             bool
	ActualVelocity     float32
	ActualAcceleration float32
	ActualJerk         float32
}

// Check validates velocity and acceleration only (no jerk history).
func (k *KinematicsChecker) Check(v spacetime.Velocity, a spacetime.Acceleration) KinematicsResult {
	speed := v.Magnitude()
	accelMag := a.Magnitude()
	return KinematicsResult{
		VelocityOK:         speed <= k.maxVelocity,
		AccelerationOK:     accelMag <= k.maxAcceleration,
		JerkOK:             true,
		ActualVelocity:     speed,
		ActualAcceleration: accelMag,
	}
}

// UpdateAndCheck validates velocity, acceleration, and jerk for robotID,
// using and then updating the robot's previous-acceleration history.
func (k *KinematicsChecker) UpdateAndCheck(robotID uint64, v spacetime.Velocity, a spacetime.Acceleration, timestampNs uint64) KinematicsResult {
	result := k.Check(v, a)

	prevA, hadPrev := k.prevAcceleration[robotID]
	prevT, hadPrevT := k.prevTimestampNs[robotID]
	if hadPrev && hadPrevT && timestampNs > prevT {
		dtSec := float32(timestampNs-prevT) / 1e9
		if dtSec > 0 {
			jerk := a.Sub(prevA).Magnitude() / dtSec
			result.ActualJerk = jerk
			result.JerkOK = jerk <= k.maxJerk
		}
	}

	k.prevAcceleration[robotID] = a
	k.prevTimestampNs[robotID] = timestampNs
	return result
}

// MaxVelocity returns the configured velocity limit.
func (k *KinematicsChecker) MaxVelocity() float32 { return k.maxVelocity }
