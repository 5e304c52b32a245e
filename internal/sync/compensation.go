package sync

import (
	"context"
	"fmt"
)

// RecoveryStep is a closure that issues one physical recovery action (see
// internal/physics.RecoveryCommand) in response to a rollback.
type RecoveryStep func(ctx context.Context) error

// CompensationStack accumulates the physical recovery steps a rollback
// requires and runs them LIFO, so a robot that depends on another robot's
// prior action gets unwound before the action it depended on.
type CompensationStack struct {
	RobotID uint64
	steps   []RecoveryStep
}

func NewCompensationStack(robotID uint64) *CompensationStack {
	return &CompensationStack{RobotID: robotID, steps: make([]RecoveryStep, 0)}
}

// Push adds a recovery step, to run before every step pushed earlier.
func (s *CompensationStack) Push(step RecoveryStep) {
	s.steps = append(s.steps, step)
}

// Len reports how many recovery steps are queued.
func (s *CompensationStack) Len() int { return len(s.steps) }

// Run executes every queued step in reverse (LIFO) order, stopping at the
// first failure.
func (s *CompensationStack) Run(ctx context.Context) error {
	for i := len(s.steps) - 1; i >= 0; i-- {
		if err := s.steps[i](ctx); err != nil {
			return fmt.Errorf("recovery step %d for robot %d failed: %w", i, s.RobotID, err)
		}
	}
	s.steps = s.steps[:0]
	return nil
}
