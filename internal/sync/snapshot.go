package sync

import "github.com/ocx/edge-coordinator/internal/spacetime"

// SnapshotStrategyKind tags which interval policy a SnapshotPolicy applies.
type SnapshotStrategyKind int

const (
	StrategyTickBased SnapshotStrategyKind = iota
	StrategyMemoryBudget
	StrategyAdaptive
)

// SnapshotPolicy computes the tick interval between saved world-state
// snapshots, grounded on sap-network/src/rollback/manager.rs's
// SnapshotStrategy enum.
type SnapshotPolicy struct {
	Kind SnapshotStrategyKind

	// TickBased
	Interval uint64

	// MemoryBudget
	MaxBytes                 uint64
	EstimatedSizePerSnapshot uint64

	// Adaptive
	BaseInterval     uint64
	ReductionFactor  float32
	MinInterval      uint64
}

// DefaultSnapshotPolicy mirrors the reference default: TickBased{interval: 10}.
func DefaultSnapshotPolicy() SnapshotPolicy {
	return SnapshotPolicy{Kind: StrategyTickBased, Interval: 10}
}

func (p SnapshotPolicy) Name() string {
	switch p.Kind {
	case StrategyTickBased:
		return "TickBased"
	case StrategyMemoryBudget:
		return "MemoryBudget"
	case StrategyAdaptive:
		return "Adaptive"
	default:
		return "Unknown"
	}
}

// ComputeInterval returns the tick gap to the next snapshot given the
// robot's current count of consecutive rollbacks.
func (p SnapshotPolicy) ComputeInterval(consecutiveRollbacks uint32) uint64 {
	switch p.Kind {
	case StrategyMemoryBudget:
		size := p.EstimatedSizePerSnapshot
		if size < 1 {
			size = 1
		}
		maxSnapshots := p.MaxBytes / size
		if maxSnapshots < 1 {
			maxSnapshots = 1
		}
		return 100 / maxSnapshots
	case StrategyAdaptive:
		factor := float32(1.0)
		for i := uint32(0); i < consecutiveRollbacks; i++ {
			factor *= p.ReductionFactor
		}
		interval := uint64(float32(p.BaseInterval) * factor)
		if interval < p.MinInterval {
			return p.MinInterval
		}
		return interval
	default:
		return p.Interval
	}
}

// SnapshotStore is a FIFO-capacity-bounded, tick-indexed store of
// WorldState snapshots for one zone.
type SnapshotStore struct {
	maxSnapshots int
	snapshots    map[uint64]spacetime.WorldState
	ticks        []uint64
}

// NewSnapshotStore builds an empty store bounded at maxSnapshots entries.
func NewSnapshotStore(maxSnapshots int) *SnapshotStore {
	return &SnapshotStore{maxSnapshots: maxSnapshots, snapshots: make(map[uint64]spacetime.WorldState)}
}

// Save records state at tick, evicting the oldest snapshot if at capacity.
// Saves within snapshotInterval of the last saved tick are dropped.
func (s *SnapshotStore) Save(tick uint64, state spacetime.WorldState, snapshotInterval uint64) {
	if len(s.ticks) > 0 {
		last := s.ticks[len(s.ticks)-1]
		if tick > last && tick-last < snapshotInterval {
			return
		}
		if tick <= last {
			return
		}
	}

	for len(s.snapshots) >= s.maxSnapshots && len(s.ticks) > 0 {
		oldest := s.ticks[0]
		delete(s.snapshots, oldest)
		s.ticks = s.ticks[1:]
	}

	s.snapshots[tick] = state
	s.ticks = append(s.ticks, tick)
}

// Get returns the snapshot saved at exactly tick, if any.
func (s *SnapshotStore) Get(tick uint64) (spacetime.WorldState, bool) {
	st, ok := s.snapshots[tick]
	return st, ok
}

// FindNearest returns the latest snapshot at or before tick.
func (s *SnapshotStore) FindNearest(tick uint64) (uint64, spacetime.WorldState, bool) {
	for i := len(s.ticks) - 1; i >= 0; i-- {
		t := s.ticks[i]
		if t <= tick {
			return t, s.snapshots[t], true
		}
	}
	return 0, spacetime.WorldState{}, false
}

// Count returns the number of stored snapshots.
func (s *SnapshotStore) Count() int { return len(s.snapshots) }
