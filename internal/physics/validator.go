package physics

import (
	"fmt"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// Verdict is the physics validator's classification of a motion command.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictAdjust
	VerdictReject
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "OK"
	case VerdictAdjust:
		return "ADJUST"
	case VerdictReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// Constraint bit positions within a ValidationFrame's bitmap, per spec
// section 3.
const (
	ConstraintVelocity   uint64 = 1 << 0
	ConstraintAccel      uint64 = 1 << 1
	ConstraintJerk       uint64 = 1 << 2
	ConstraintGeofence   uint64 = 1 << 3
	ConstraintCollision  uint64 = 1 << 4
	ConstraintTicket     uint64 = 1 << 5
	ConstraintVTS        uint64 = 1 << 6
)

// ValidationFrame is the per-tick, per-robot validation record.
type ValidationFrame struct {
	Tick        uint64
	RobotID     uint64
	ZoneID      uint32
	CmdHash     [32]byte
	Bitmap      uint64
	TimestampNs uint64
}

// NewValidationFrame builds an empty frame.
func NewValidationFrame(tick, robotID uint64, zoneID uint32) ValidationFrame {
	return ValidationFrame{Tick: tick, RobotID: robotID, ZoneID: zoneID}
}

// SetConstraint sets or clears one constraint bit.
func (f *ValidationFrame) SetConstraint(bit uint64, passed bool) {
	if passed {
		f.Bitmap |= bit
	} else {
		f.Bitmap &^= bit
	}
}

// CheckConstraint reports whether a single bit is set.
func (f ValidationFrame) CheckConstraint(bit uint64) bool {
	return f.Bitmap&bit != 0
}

// AllPassed reports whether every bit in mask is set in the bitmap.
func (f ValidationFrame) AllPassed(mask uint64) bool {
	return f.Bitmap&mask == mask
}

// AdjustedCommand is the validator's suggested replacement for a command
// that violates a kinematic bound but is collision-free.
type AdjustedCommand struct {
	Original MotionCommand
	Adjusted MotionCommand
	Note     string
}

// ValidationLogEntry is one bounded-FIFO validation log record.
type ValidationLogEntry struct {
	RobotID     uint64
	Result      Verdict
	TimestampNs uint64
	Details     string
}

// Config holds the physics validator's kinematic and collision limits.
type Config struct {
	MaxVelocity            float32
	MaxAcceleration        float32
	MaxJerk                float32
	CollisionSafetyDistance float32
	CollisionHorizonSecs    float32
	DynamicHorizon          *DynamicHorizonConfig
}

// DefaultConfig mirrors sap-physics's PhysicsValidatorConfig defaults.
func DefaultConfig() Config {
	return Config{
		MaxVelocity:             5.0,
		MaxAcceleration:         2.0,
		MaxJerk:                 5.0,
		CollisionSafetyDistance: 1.0,
		CollisionHorizonSecs:    1.0,
	}
}

// Validator is the L2 TrustOS physics validator: the per-command
// kinematic and collision gate.
type Validator struct {
	config      Config
	kinematics  *KinematicsChecker
	collision   *CollisionPredictor
	log         []ValidationLogEntry
	logCapacity int
}

// NewValidator builds a validator from cfg.
func NewValidator(cfg Config) *Validator {
	predictor := NewCollisionPredictor(cfg.CollisionSafetyDistance, cfg.CollisionHorizonSecs)
	if cfg.DynamicHorizon != nil {
		predictor = predictor.WithDynamicHorizon(*cfg.DynamicHorizon)
	}
	return &Validator{
		config:      cfg,
		kinematics:  NewKinematicsChecker(cfg.MaxVelocity, cfg.MaxAcceleration, cfg.MaxJerk),
		collision:   predictor,
		logCapacity: 1000,
	}
}

// NewValidatorWithDefaults builds a validator using DefaultConfig().
func NewValidatorWithDefaults() *Validator {
	return NewValidator(DefaultConfig())
}

// Validate screens cmd against obstacles at timestampNs, returning the
// verdict and, when the verdict is ADJUST, a suggested AdjustedCommand.
func (val *Validator) Validate(cmd MotionCommand, obstacles []spacetime.Position, timestampNs uint64) (Verdict, *AdjustedCommand) {
	kin := val.kinematics.UpdateAndCheck(cmd.RobotID, cmd.TargetVelocity, cmd.TargetAcceleration, timestampNs)
	col := val.collision.Predict(cmd.CurrentPosition, cmd.TargetVelocity, obstacles)

	verdict := val.determineVerdict(kin, col)

	var adjusted *AdjustedCommand
	if verdict == VerdictAdjust {
		adjusted = val.adjust(cmd, kin)
	}

	val.logValidation(cmd.RobotID, verdict, timestampNs, kin, col)
	return verdict, adjusted
}

func (val *Validator) determineVerdict(kin KinematicsResult, col CollisionResult) Verdict {
	if col.WillCollide {
		return VerdictReject
	}
	if !kin.VelocityOK || !kin.AccelerationOK || !kin.JerkOK {
		return VerdictAdjust
	}
	return VerdictOK
}

// adjust scales velocity down to the max when it is the violated bound;
// otherwise it clamps acceleration to the max magnitude, matching
// sap-physics's validator ADJUST path.
func (val *Validator) adjust(cmd MotionCommand, kin KinematicsResult) *AdjustedCommand {
	adjustedCmd := cmd
	note := ""
	if !kin.VelocityOK {
		scaled := cmd.TargetVelocity.Clamp(val.config.MaxVelocity)
		adjustedCmd.TargetVelocity = scaled
		note = fmt.Sprintf("velocity scaled from %.2f to %.2f", kin.ActualVelocity, val.config.MaxVelocity)
	} else if !kin.AccelerationOK {
		scale := val.config.MaxAcceleration / kin.ActualAcceleration
		adjustedCmd.TargetAcceleration = spacetime.Acceleration{
			X: cmd.TargetAcceleration.X * scale,
			Y: cmd.TargetAcceleration.Y * scale,
			Z: cmd.TargetAcceleration.Z * scale,
		}
		note = fmt.Sprintf("acceleration clamped from %.2f to %.2f", kin.ActualAcceleration, val.config.MaxAcceleration)
	} else {
		note = fmt.Sprintf("jerk %.2f exceeds limit %.2f; velocity held", kin.ActualJerk, val.config.MaxJerk)
	}
	return &AdjustedCommand{Original: cmd, Adjusted: adjustedCmd, Note: note}
}

func (val *Validator) logValidation(robotID uint64, verdict Verdict, timestampNs uint64, kin KinematicsResult, col CollisionResult) {
	details := fmt.Sprintf("vel_ok=%v accel_ok=%v jerk_ok=%v collision=%v", kin.VelocityOK, kin.AccelerationOK, kin.JerkOK, col.WillCollide)
	entry := ValidationLogEntry{RobotID: robotID, Result: verdict, TimestampNs: timestampNs, Details: details}
	if len(val.log) >= val.logCapacity {
		val.log = val.log[1:]
	}
	val.log = append(val.log, entry)
}

// RecentLogs returns up to count most recent validation log entries.
func (val *Validator) RecentLogs(count int) []ValidationLogEntry {
	start := len(val.log) - count
	if start < 0 {
		start = 0
	}
	out := make([]ValidationLogEntry, len(val.log[start:]))
	copy(out, val.log[start:])
	return out
}

// CreateValidationFrame builds a ValidationFrame for cmd/verdict at tick/zoneID.
func (val *Validator) CreateValidationFrame(cmd MotionCommand, verdict Verdict, tick uint64, zoneID uint32, cmdHash [32]byte) ValidationFrame {
	frame := NewValidationFrame(tick, cmd.RobotID, zoneID)
	frame.CmdHash = cmdHash
	if verdict == VerdictOK {
		frame.SetConstraint(ConstraintVelocity, true)
		frame.SetConstraint(ConstraintAccel, true)
		frame.SetConstraint(ConstraintJerk, true)
		frame.SetConstraint(ConstraintCollision, true)
	}
	return frame
}

// Config returns the validator's configuration.
func (val *Validator) Config() Config { return val.config }
