package sync

import (
	"context"

	"github.com/ocx/edge-coordinator/internal/codes"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// RollbackReasonKind tags why a rollback was triggered.
type RollbackReasonKind int

const (
	ReasonPredictionError RollbackReasonKind = iota
	ReasonCollisionPredicted
	ReasonTicketViolation
	ReasonEdgeRecovery
	ReasonManual
)

// RollbackReason carries the triggering cause plus, for PredictionError,
// the actual measured delta magnitude (Open Question: the reference
// implementation hardcodes 0.0 here; this implementation propagates the
// real StateComparator delta instead, since a rollback log with a nominal
// zero everywhere is not diagnostically useful).
type RollbackReason struct {
	Kind  RollbackReasonKind
	Delta float32
}

func PredictionError(delta float32) RollbackReason {
	return RollbackReason{Kind: ReasonPredictionError, Delta: delta}
}
func CollisionPredictedReason() RollbackReason { return RollbackReason{Kind: ReasonCollisionPredicted} }
func TicketViolationReason() RollbackReason     { return RollbackReason{Kind: ReasonTicketViolation} }
func EdgeRecoveryReason() RollbackReason        { return RollbackReason{Kind: ReasonEdgeRecovery} }
func ManualReason() RollbackReason              { return RollbackReason{Kind: ReasonManual} }

func (r RollbackReason) String() string {
	switch r.Kind {
	case ReasonPredictionError:
		return "PredictionError"
	case ReasonCollisionPredicted:
		return "CollisionPredicted"
	case ReasonTicketViolation:
		return "TicketViolation"
	case ReasonEdgeRecovery:
		return "EdgeRecovery"
	case ReasonManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// RollbackFrame is the wire-level reconciliation record sent to a robot:
// "go back to this tick's known-good state."
type RollbackFrame struct {
	ZoneID       uint32
	RobotID      uint64
	RollbackTick uint64
	Reason       RollbackReason
	StateHash    [32]byte
	TimestampNs  uint64
}

func NewRollbackFrame(zoneID uint32, robotID, rollbackTick uint64, reason RollbackReason) RollbackFrame {
	return RollbackFrame{ZoneID: zoneID, RobotID: robotID, RollbackTick: rollbackTick, Reason: reason}
}

func (f RollbackFrame) WithStateHash(hash [32]byte) RollbackFrame {
	f.StateHash = hash
	return f
}

func (f RollbackFrame) WithTimestamp(ts uint64) RollbackFrame {
	f.TimestampNs = ts
	return f
}

// RollbackEvent is one historical record of an executed (or attempted)
// rollback.
type RollbackEvent struct {
	RobotID      uint64
	RollbackTick uint64
	CurrentTick  uint64
	Reason       RollbackReason
	TimestampNs  uint64
	Success      bool
}

// RollbackConfig bounds snapshot retention and throttles rollback frequency.
type RollbackConfig struct {
	MaxSnapshots            int
	SnapshotInterval        uint64
	Strategy                SnapshotPolicy
	MaxConsecutiveRollbacks uint32
	RollbackCooldownMs      uint64
}

func DefaultRollbackConfig() RollbackConfig {
	return RollbackConfig{
		MaxSnapshots:            100,
		SnapshotInterval:        10,
		Strategy:                DefaultSnapshotPolicy(),
		MaxConsecutiveRollbacks: 3,
		RollbackCooldownMs:      500,
	}
}

// RollbackStats summarizes a robot's rollback history.
type RollbackStats struct {
	TotalRollbacks      int
	SuccessfulRollbacks int
	ConsecutiveCount    uint32
}

// RollbackManager owns the snapshot store and rollback throttling state
// for one zone, grounded on sap-network/src/rollback/manager.rs.
type RollbackManager struct {
	config               RollbackConfig
	zoneID               uint32
	store                *SnapshotStore
	history              []RollbackEvent
	consecutiveRollbacks map[uint64]uint32
	lastRollbackTimeNs   map[uint64]uint64
	compensation         map[uint64]*CompensationStack
}

func NewRollbackManager(zoneID uint32, config RollbackConfig) *RollbackManager {
	return &RollbackManager{
		config:               config,
		zoneID:               zoneID,
		store:                NewSnapshotStore(config.MaxSnapshots),
		consecutiveRollbacks: make(map[uint64]uint32),
		lastRollbackTimeNs:   make(map[uint64]uint64),
		compensation:         make(map[uint64]*CompensationStack),
	}
}

// CompensationFor returns robotID's queued physical recovery steps,
// creating an empty stack on first use. Callers push steps (e.g. "re-issue
// the emergency stop I already sent downstream") before ExecuteRollback
// runs them LIFO.
func (m *RollbackManager) CompensationFor(robotID uint64) *CompensationStack {
	stack, ok := m.compensation[robotID]
	if !ok {
		stack = NewCompensationStack(robotID)
		m.compensation[robotID] = stack
	}
	return stack
}

func NewDefaultRollbackManager(zoneID uint32) *RollbackManager {
	return NewRollbackManager(zoneID, DefaultRollbackConfig())
}

// SaveSnapshot records state at tick, subject to the configured interval
// and capacity.
func (m *RollbackManager) SaveSnapshot(tick uint64, state spacetime.WorldState) {
	m.store.Save(tick, state, m.config.SnapshotInterval)
}

func (m *RollbackManager) GetSnapshot(tick uint64) (spacetime.WorldState, bool) {
	return m.store.Get(tick)
}

func (m *RollbackManager) FindNearestSnapshot(tick uint64) (uint64, spacetime.WorldState, bool) {
	return m.store.FindNearest(tick)
}

// ExecuteRollback reconciles robotID back to the nearest snapshot at or
// before currentTick, subject to cooldown and consecutive-rollback limits.
func (m *RollbackManager) ExecuteRollback(robotID, currentTick uint64, reason RollbackReason, timestampNs uint64) (RollbackFrame, error) {
	if lastTime, ok := m.lastRollbackTimeNs[robotID]; ok {
		elapsedMs := (timestampNs - lastTime) / 1_000_000
		if timestampNs < lastTime {
			elapsedMs = 0
		}
		if elapsedMs < m.config.RollbackCooldownMs {
			return RollbackFrame{}, codes.New(codes.HandoffRejected, "rollback cooldown active")
		}
	}

	consecutive := m.consecutiveRollbacks[robotID]
	if consecutive >= m.config.MaxConsecutiveRollbacks {
		return RollbackFrame{}, codes.New(codes.HandoffRejected, "too many consecutive rollbacks")
	}

	rollbackTick, snapshot, ok := m.store.FindNearest(currentTick)
	if !ok {
		return RollbackFrame{}, codes.New(codes.InternalError, "no snapshot available for rollback")
	}

	frame := NewRollbackFrame(m.zoneID, robotID, rollbackTick, reason).
		WithStateHash(snapshot.ComputeHash()).
		WithTimestamp(timestampNs)

	m.history = append(m.history, RollbackEvent{
		RobotID:      robotID,
		RollbackTick: rollbackTick,
		CurrentTick:  currentTick,
		Reason:       reason,
		TimestampNs:  timestampNs,
		Success:      true,
	})
	m.consecutiveRollbacks[robotID]++
	m.lastRollbackTimeNs[robotID] = timestampNs

	if stack, ok := m.compensation[robotID]; ok && stack.Len() > 0 {
		if err := stack.Run(context.Background()); err != nil {
			return frame, codes.Wrap(codes.InternalError, "rollback compensation failed", err)
		}
	}

	return frame, nil
}

// ResetConsecutive clears robotID's consecutive-rollback counter. The edge
// runtime calls it each time one of the robot's commands validates OK.
func (m *RollbackManager) ResetConsecutive(robotID uint64) {
	delete(m.consecutiveRollbacks, robotID)
}

func (m *RollbackManager) RollbackStatsFor(robotID uint64) RollbackStats {
	stats := RollbackStats{ConsecutiveCount: m.consecutiveRollbacks[robotID]}
	for _, e := range m.history {
		if e.RobotID != robotID {
			continue
		}
		stats.TotalRollbacks++
		if e.Success {
			stats.SuccessfulRollbacks++
		}
	}
	return stats
}

func (m *RollbackManager) SnapshotCount() int { return m.store.Count() }
func (m *RollbackManager) ZoneID() uint32     { return m.zoneID }
