package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ocx/edge-coordinator/internal/economy"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

func TestZoneBoundaryDistanceToPerpendicularSegment(t *testing.T) {
	b := ZoneBoundary{
		BoundaryStart: spacetime.NewPosition(0, 0, 0),
		BoundaryEnd:   spacetime.NewPosition(10, 0, 0),
	}

	d := b.DistanceToBoundary(spacetime.NewPosition(5, 3, 0))
	assert.InDelta(t, 3.0, d, 1e-4)
}

func TestZoneBoundaryDistanceClampsToNearestEndpoint(t *testing.T) {
	b := ZoneBoundary{
		BoundaryStart: spacetime.NewPosition(0, 0, 0),
		BoundaryEnd:   spacetime.NewPosition(10, 0, 0),
	}

	d := b.DistanceToBoundary(spacetime.NewPosition(-5, 0, 0))
	assert.InDelta(t, 5.0, d, 1e-4, "a point beyond the segment's start should measure from the start endpoint")
}

func TestZoneBoundaryHandlesDegenerateSegment(t *testing.T) {
	b := ZoneBoundary{
		BoundaryStart: spacetime.NewPosition(2, 2, 0),
		BoundaryEnd:   spacetime.NewPosition(2, 2, 0),
	}

	d := b.DistanceToBoundary(spacetime.NewPosition(2, 5, 0))
	assert.InDelta(t, 3.0, d, 1e-4)
}

func TestZoneBoundaryIsInTriggerRange(t *testing.T) {
	b := ZoneBoundary{
		BoundaryStart:    spacetime.NewPosition(0, 0, 0),
		BoundaryEnd:      spacetime.NewPosition(10, 0, 0),
		TriggerDistanceM: 2,
	}

	assert.True(t, b.IsInTriggerRange(spacetime.NewPosition(5, 1, 0)))
	assert.False(t, b.IsInTriggerRange(spacetime.NewPosition(5, 5, 0)))
}

func TestPredictiveAllocationAddVts(t *testing.T) {
	alloc := NewPredictiveAllocation(1, 1, 2, 5000)
	alloc.AddVts(10, 0, 100)
	alloc.AddVts(20, 100, 200)

	assert.Len(t, alloc.RequestedVts, 2)
	assert.Equal(t, uint64(10), alloc.RequestedVts[0].VoxelID)
}

func TestHandoffStateIsTerminal(t *testing.T) {
	assert.True(t, HandoffCompleted.IsTerminal())
	assert.True(t, HandoffFailed.IsTerminal())
	assert.True(t, HandoffCancelled.IsTerminal())
	assert.False(t, HandoffAwaitingApproval.IsTerminal())
}

func TestHandoffRequestIsExpired(t *testing.T) {
	req := HandoffRequest{ExpiresAtNs: 1000}
	assert.False(t, req.IsExpired(999))
	assert.True(t, req.IsExpired(1000))
}

func TestAcceptAndRejectHandoffConstructors(t *testing.T) {
	accepted := AcceptHandoff(1, economy.TicketID{1}, 500)
	assert.True(t, accepted.IsAccepted())
	assert.NotNil(t, accepted.NewTicketID)

	rejected := RejectHandoff(1, HandoffRejectedCapacityFull, "no room", 500)
	assert.False(t, rejected.IsAccepted())
	assert.Equal(t, "no room", rejected.ErrorMessage)
}
