package coordination

import (
	"sync"

	"github.com/ocx/edge-coordinator/internal/economy"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// HandoffManagerConfig bounds this zone's incoming handoff capacity.
type HandoffManagerConfig struct {
	MaxActiveHandoffs int
	TicketValidityNs  uint64
}

func DefaultHandoffManagerConfig() HandoffManagerConfig {
	return HandoffManagerConfig{MaxActiveHandoffs: 32, TicketValidityNs: 60_000_000_000}
}

// predictiveTick is the last predictive-allocation position report
// received for a robot approaching from a peer zone.
type predictiveTick struct {
	position    spacetime.Position
	timestampNs uint64
}

// HandoffManager owns this zone's inbound handoff acceptance decisions
// and the predictive-tick state fed to it ahead of a robot's actual
// arrival, grounded on sap-network's cross-zone handoff coordinator: a
// destination zone tracks predictive allocations separately from
// confirmed handoffs so it can reserve VTS capacity before the robot
// physically crosses the boundary.
type HandoffManager struct {
	mu         sync.Mutex
	zoneID     uint32
	config     HandoffManagerConfig
	active     map[uint64]HandoffRequest
	predictive map[uint64]predictiveTick
	issued     uint64
}

func NewHandoffManager(zoneID uint32, config HandoffManagerConfig) *HandoffManager {
	return &HandoffManager{
		zoneID:     zoneID,
		config:     config,
		active:     make(map[uint64]HandoffRequest),
		predictive: make(map[uint64]predictiveTick),
	}
}

func NewDefaultHandoffManager(zoneID uint32) *HandoffManager {
	return NewHandoffManager(zoneID, DefaultHandoffManagerConfig())
}

// Accept evaluates an inbound HandoffRequest against this zone's capacity
// and issues a fresh local ticket ID for the robot on success.
func (m *HandoffManager) Accept(req HandoffRequest, timestampNs uint64) HandoffResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.IsExpired(timestampNs) {
		return RejectHandoff(req.HandoffID, HandoffRejectedTimeout, "handoff request expired", timestampNs)
	}
	if len(m.active) >= m.config.MaxActiveHandoffs {
		return RejectHandoff(req.HandoffID, HandoffRejectedCapacityFull, "zone at handoff capacity", timestampNs)
	}

	m.issued++
	var newTicket economy.TicketID
	newTicket[0] = byte(m.issued)
	newTicket[1] = byte(m.issued >> 8)

	m.active[req.HandoffID] = req
	delete(m.predictive, req.RobotID)
	return AcceptHandoff(req.HandoffID, newTicket, timestampNs)
}

// Complete removes handoffID from the active set once the destination
// edge has finished transferring robot control.
func (m *HandoffManager) Complete(handoffID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, handoffID)
}

// ActiveCount reports how many handoffs are currently pending completion.
func (m *HandoffManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// RecordPredictiveTick stores the latest predicted position for robotID,
// reported by its origin zone ahead of a potential handoff.
func (m *HandoffManager) RecordPredictiveTick(robotID uint64, position spacetime.Position, timestampNs uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictive[robotID] = predictiveTick{position: position, timestampNs: timestampNs}
}

// PredictiveTickFor returns the last recorded predictive tick for
// robotID, if any.
func (m *HandoffManager) PredictiveTickFor(robotID uint64) (spacetime.Position, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.predictive[robotID]
	return t.position, t.timestampNs, ok
}

func (m *HandoffManager) ZoneID() uint32 { return m.zoneID }
