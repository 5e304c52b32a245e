package spacetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVtsMetaExclusiveClampsToOneRobot(t *testing.T) {
	m := NewVtsMeta(10, true, 500)
	assert.Equal(t, uint32(1), m.MaxRobots)
}

func TestNewVtsMetaZeroMaxRobotsClampsToOne(t *testing.T) {
	m := NewVtsMeta(0, false, 500)
	assert.Equal(t, uint32(1), m.MaxRobots)
}

func TestVtsMetaCongestion(t *testing.T) {
	m := NewVtsMeta(4, false, 0)
	m.ReservedCount = 2

	assert.InDelta(t, 0.5, m.Congestion(), 1e-9)
}

func TestVtsMetaCongestionClampsAtOne(t *testing.T) {
	m := NewVtsMeta(2, false, 0)
	m.ReservedCount = 5

	assert.Equal(t, 1.0, m.Congestion())
}
