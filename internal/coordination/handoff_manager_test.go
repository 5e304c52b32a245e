package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

func TestHandoffManagerAcceptsWithinCapacity(t *testing.T) {
	m := NewHandoffManager(2, HandoffManagerConfig{MaxActiveHandoffs: 2, TicketValidityNs: 1000})

	req := HandoffRequest{HandoffID: 1, RobotID: 7, FromZoneID: 1, ToZoneID: 2, ExpiresAtNs: 100}
	resp := m.Accept(req, 10)

	require.True(t, resp.IsAccepted())
	assert.NotNil(t, resp.NewTicketID)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestHandoffManagerRejectsExpiredRequest(t *testing.T) {
	m := NewDefaultHandoffManager(2)
	req := HandoffRequest{HandoffID: 1, RobotID: 7, ExpiresAtNs: 50}

	resp := m.Accept(req, 100)

	assert.False(t, resp.IsAccepted())
	assert.Equal(t, HandoffRejectedTimeout, resp.Status)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestHandoffManagerRejectsAtCapacity(t *testing.T) {
	m := NewHandoffManager(2, HandoffManagerConfig{MaxActiveHandoffs: 1, TicketValidityNs: 1000})

	first := m.Accept(HandoffRequest{HandoffID: 1, RobotID: 7, ExpiresAtNs: 1000}, 10)
	require.True(t, first.IsAccepted())

	second := m.Accept(HandoffRequest{HandoffID: 2, RobotID: 8, ExpiresAtNs: 1000}, 10)
	assert.False(t, second.IsAccepted())
	assert.Equal(t, HandoffRejectedCapacityFull, second.Status)
}

func TestHandoffManagerCompleteFreesCapacity(t *testing.T) {
	m := NewHandoffManager(2, HandoffManagerConfig{MaxActiveHandoffs: 1, TicketValidityNs: 1000})

	resp := m.Accept(HandoffRequest{HandoffID: 1, RobotID: 7, ExpiresAtNs: 1000}, 10)
	require.True(t, resp.IsAccepted())

	m.Complete(1)
	assert.Equal(t, 0, m.ActiveCount())

	second := m.Accept(HandoffRequest{HandoffID: 2, RobotID: 8, ExpiresAtNs: 1000}, 20)
	assert.True(t, second.IsAccepted())
}

func TestHandoffManagerPredictiveTickLifecycle(t *testing.T) {
	m := NewDefaultHandoffManager(2)
	pos := spacetime.NewPosition(1, 2, 3)

	_, _, ok := m.PredictiveTickFor(7)
	assert.False(t, ok)

	m.RecordPredictiveTick(7, pos, 500)
	got, ts, ok := m.PredictiveTickFor(7)
	require.True(t, ok)
	assert.Equal(t, pos, got)
	assert.Equal(t, uint64(500), ts)

	m.Accept(HandoffRequest{HandoffID: 1, RobotID: 7, ExpiresAtNs: 1000}, 10)
	_, _, ok = m.PredictiveTickFor(7)
	assert.False(t, ok, "accepted handoff should clear the predictive tick for that robot")
}
