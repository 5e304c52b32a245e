// Package physics implements the L2 per-command gate: kinematic and
// collision checks, the command filtering gate, and the four-level
// physical recovery command set. Grounded on sap-physics/* for exact
// formulas and on the teacher's internal/escrow family for the shape of a
// stateful gate component with typed results and an audit trail.
package physics

import "github.com/ocx/edge-coordinator/internal/spacetime"

// stopEpsilon is the "is a stop" magnitude threshold (1e-3).
const stopEpsilon = 1e-3

// MotionCommand is a proposed robot motion, screened by the validator and
// the command gate before actuation.
type MotionCommand struct {
	RobotID             uint64
	CurrentPosition     spacetime.Position
	TargetVelocity      spacetime.Velocity
	TargetAcceleration  spacetime.Acceleration
	TicketID            [16]byte
}

// NewMotionCommand builds a zero-valued command for robotID.
func NewMotionCommand(robotID uint64) MotionCommand {
	return MotionCommand{RobotID: robotID}
}

// WithVelocity returns a copy of cmd with TargetVelocity set.
func (cmd MotionCommand) WithVelocity(v spacetime.Velocity) MotionCommand {
	cmd.TargetVelocity = v
	return cmd
}

// WithTicket returns a copy of cmd with TicketID set.
func (cmd MotionCommand) WithTicket(ticketID [16]byte) MotionCommand {
	cmd.TicketID = ticketID
	return cmd
}

// TargetSpeed returns |TargetVelocity|.
func (cmd MotionCommand) TargetSpeed() float32 {
	return cmd.TargetVelocity.Magnitude()
}

// IsStop reports whether both target vectors have magnitude below the stop
// epsilon (1e-3).
func (cmd MotionCommand) IsStop() bool {
	return cmd.TargetVelocity.Magnitude() < stopEpsilon && cmd.TargetAcceleration.Magnitude() < stopEpsilon
}

// HasTicket reports whether TicketID is non-zero.
func (cmd MotionCommand) HasTicket() bool {
	return cmd.TicketID != [16]byte{}
}
