package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

func TestMotionCommandIsStopRequiresBothVectorsNearZero(t *testing.T) {
	cmd := NewMotionCommand(1)
	assert.True(t, cmd.IsStop())

	moving := cmd.WithVelocity(spacetime.NewVelocity(1, 0, 0))
	assert.False(t, moving.IsStop())
}

func TestMotionCommandHasTicket(t *testing.T) {
	cmd := NewMotionCommand(1)
	assert.False(t, cmd.HasTicket())

	var id [16]byte
	id[0] = 1
	withTicket := cmd.WithTicket(id)
	assert.True(t, withTicket.HasTicket())
}

func TestMotionCommandTargetSpeed(t *testing.T) {
	cmd := NewMotionCommand(1).WithVelocity(spacetime.NewVelocity(3, 4, 0))
	assert.Equal(t, float32(5), cmd.TargetSpeed())
}
