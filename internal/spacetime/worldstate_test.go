package spacetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorldStateWithTickAdvancesTickAndTimestamp(t *testing.T) {
	w := NewWorldState(1).WithTick(9, 12345)

	assert.Equal(t, uint64(9), w.Tick)
	assert.Equal(t, uint64(12345), w.TimestampNs)
	assert.Equal(t, uint32(1), w.ZoneID)
}

func TestComputeHashIsDeterministic(t *testing.T) {
	w := NewWorldState(1).WithTick(5, 100)
	w.Robots = []RobotState{{ID: 1, Position: NewPosition(1, 2, 3)}}

	assert.Equal(t, w.ComputeHash(), w.ComputeHash())
}

func TestComputeHashDiffersOnRobotPosition(t *testing.T) {
	base := NewWorldState(1).WithTick(5, 100)
	base.Robots = []RobotState{{ID: 1, Position: NewPosition(1, 2, 3)}}

	moved := base
	moved.Robots = []RobotState{{ID: 1, Position: NewPosition(9, 9, 9)}}

	assert.NotEqual(t, base.ComputeHash(), moved.ComputeHash(), "hash must be sensitive to robot position, not just robot count")
}

func TestComputeHashDiffersOnTick(t *testing.T) {
	a := NewWorldState(1).WithTick(1, 100)
	b := NewWorldState(1).WithTick(2, 100)

	assert.NotEqual(t, a.ComputeHash(), b.ComputeHash())
}
