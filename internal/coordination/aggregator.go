package coordination

import (
	"sync"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// zoneSnapshot is the aggregator's bookkeeping for one zone's last reported
// WorldState.
type zoneSnapshot struct {
	world        spacetime.WorldState
	lastUpdateNs uint64
}

// ZoneSummary is a lightweight read-only view into one zone's latest
// reported state, for dashboards that don't need the full WorldState.
type ZoneSummary struct {
	ZoneID      uint32
	Tick        uint64
	RobotCount  int
	LastUpdateNs uint64
	Stale       bool
}

// GlobalAggregator tracks every zone's most recently reported WorldState,
// grounded on sap-cloud's global-state aggregator: each edge pushes its
// latest WorldState on a schedule, and the aggregator answers fleet-wide
// summary queries without holding authoritative state of its own.
type GlobalAggregator struct {
	mu           sync.RWMutex
	zones        map[uint32]zoneSnapshot
	staleAfterNs uint64
}

// NewGlobalAggregator builds an aggregator that considers a zone stale once
// staleAfterNs has elapsed since its last reported update.
func NewGlobalAggregator(staleAfterNs uint64) *GlobalAggregator {
	return &GlobalAggregator{zones: make(map[uint32]zoneSnapshot), staleAfterNs: staleAfterNs}
}

// ReportWorldState records zone's latest WorldState, overwriting whatever
// was previously held for that zone.
func (a *GlobalAggregator) ReportWorldState(world spacetime.WorldState, timestampNs uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.zones[world.ZoneID] = zoneSnapshot{world: world, lastUpdateNs: timestampNs}
}

// WorldStateFor returns the last reported WorldState for zoneID, if any.
func (a *GlobalAggregator) WorldStateFor(zoneID uint32) (spacetime.WorldState, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, ok := a.zones[zoneID]
	return snap.world, ok
}

// IsStale reports whether zoneID's last report is older than staleAfterNs
// as of currentTimeNs. An unreported zone is considered stale.
func (a *GlobalAggregator) IsStale(zoneID uint32, currentTimeNs uint64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, ok := a.zones[zoneID]
	if !ok {
		return true
	}
	return currentTimeNs-snap.lastUpdateNs > a.staleAfterNs
}

// Summaries returns a ZoneSummary for every zone this aggregator has ever
// heard from, evaluating staleness as of currentTimeNs.
func (a *GlobalAggregator) Summaries(currentTimeNs uint64) []ZoneSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ZoneSummary, 0, len(a.zones))
	for zoneID, snap := range a.zones {
		out = append(out, ZoneSummary{
			ZoneID:       zoneID,
			Tick:         snap.world.Tick,
			RobotCount:   len(snap.world.Robots),
			LastUpdateNs: snap.lastUpdateNs,
			Stale:        currentTimeNs-snap.lastUpdateNs > a.staleAfterNs,
		})
	}
	return out
}

// TotalRobotCount sums robot counts across every non-stale zone.
func (a *GlobalAggregator) TotalRobotCount(currentTimeNs uint64) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, snap := range a.zones {
		if currentTimeNs-snap.lastUpdateNs <= a.staleAfterNs {
			total += len(snap.world.Robots)
		}
	}
	return total
}
