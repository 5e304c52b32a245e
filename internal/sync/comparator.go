// Package sync implements the L3 predictive-sync/rollback engine: it
// compares predicted against actual robot state, snapshots world state, and
// reconciles divergence via logical rollback plus physical recovery
// commands (see internal/physics for the recovery side).
package sync

// SyncResult is the comparator's classification of a predicted-vs-actual
// state delta.
type SyncResult int

const (
	InSync SyncResult = iota
	Warning
	NeedsRollback
)

func (r SyncResult) String() string {
	switch r {
	case InSync:
		return "InSync"
	case Warning:
		return "Warning"
	case NeedsRollback:
		return "NeedsRollback"
	default:
		return "Unknown"
	}
}

// ComparisonMetrics is one recorded predicted-vs-actual comparison.
type ComparisonMetrics struct {
	RobotID        uint64
	Tick           uint64
	PositionDelta  float32
	ThetaDelta     float32
	TimestampNs    uint64
}

// StateComparator tracks position/heading drift between predicted and
// actual robot state and classifies it against rollback/warning
// thresholds, grounded on sap-network/src/sync/comparator.rs.
type StateComparator struct {
	rollbackThreshold float32
	warningThreshold  float32
	history           []ComparisonMetrics
	historyCapacity   int
}

// NewStateComparator builds a comparator with warningThreshold set to 70%
// of rollbackThreshold, matching the reference implementation.
func NewStateComparator(rollbackThreshold float32) *StateComparator {
	return &StateComparator{
		rollbackThreshold: rollbackThreshold,
		warningThreshold:  rollbackThreshold * 0.7,
		historyCapacity:   1000,
	}
}

// NewDefaultStateComparator uses a 10cm rollback threshold.
func NewDefaultStateComparator() *StateComparator {
	return NewStateComparator(0.1)
}

// CompareDelta classifies a raw position/theta delta and records it.
func (c *StateComparator) CompareDelta(robotID, tick uint64, positionDelta, thetaDelta float32, timestampNs uint64) SyncResult {
	c.record(ComparisonMetrics{RobotID: robotID, Tick: tick, PositionDelta: positionDelta, ThetaDelta: thetaDelta, TimestampNs: timestampNs})
	return c.classify(positionDelta)
}

func (c *StateComparator) classify(positionDelta float32) SyncResult {
	switch {
	case positionDelta > c.rollbackThreshold:
		return NeedsRollback
	case positionDelta > c.warningThreshold:
		return Warning
	default:
		return InSync
	}
}

func (c *StateComparator) record(m ComparisonMetrics) {
	if len(c.history) >= c.historyCapacity {
		c.history = c.history[1:]
	}
	c.history = append(c.history, m)
}

// AverageDelta returns the mean position delta of the most recent count
// comparisons for robotID, or ok=false if none exist.
func (c *StateComparator) AverageDelta(robotID uint64, count int) (float32, bool) {
	var sum float32
	var n int
	for i := len(c.history) - 1; i >= 0 && n < count; i-- {
		if c.history[i].RobotID != robotID {
			continue
		}
		sum += c.history[i].PositionDelta
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float32(n), true
}

// RollbackFrequency returns the fraction of the most recent count
// comparisons for robotID that exceeded the rollback threshold.
func (c *StateComparator) RollbackFrequency(robotID uint64, count int) float32 {
	var total, rollbacks int
	for i := len(c.history) - 1; i >= 0 && total < count; i-- {
		if c.history[i].RobotID != robotID {
			continue
		}
		total++
		if c.history[i].PositionDelta > c.rollbackThreshold {
			rollbacks++
		}
	}
	if total == 0 {
		return 0
	}
	return float32(rollbacks) / float32(total)
}

// RollbackThreshold returns the configured rollback threshold.
func (c *StateComparator) RollbackThreshold() float32 { return c.rollbackThreshold }

// ClearHistory discards all recorded comparisons.
func (c *StateComparator) ClearHistory() { c.history = nil }
