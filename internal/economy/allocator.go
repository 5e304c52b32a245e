// Package economy implements the L4 ticket economy: VTS allocation, the
// commit-reveal Vickrey auction, demand/time-sensitive pricing, and ticket
// lifecycle management.
package economy

import (
	"github.com/ocx/edge-coordinator/internal/codes"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// VtsRequest is a pending allocation request before it is granted a VtsID.
type VtsRequest struct {
	RequestID uint64
	RobotID   uint64
	ZoneID    uint32
	VoxelID   uint64
	TStartNs  uint64
	TEndNs    uint64
	Priority  uint8
}

// VtsAllocator grants conflict-free VoxelTimeSlot allocations, keyed by the
// deterministic VtsID (spec §3), with an optional per-zone capacity limit
// (Open Question #1, resolved in SPEC_FULL.md: capacity is enforced
// per-zone, not globally).
type VtsAllocator struct {
	allocated     map[spacetime.VtsID]spacetime.VtsAllocation
	pending       []VtsRequest
	nextRequestID uint64
	zoneLimits    map[uint32]int
}

// NewVtsAllocator builds an empty allocator.
func NewVtsAllocator() *VtsAllocator {
	return &VtsAllocator{
		allocated:     make(map[spacetime.VtsID]spacetime.VtsAllocation),
		zoneLimits:    make(map[uint32]int),
		nextRequestID: 1,
	}
}

// SetZoneLimit bounds the number of concurrent allocations in zoneID.
func (a *VtsAllocator) SetZoneLimit(zoneID uint32, limit int) {
	a.zoneLimits[zoneID] = limit
}

// Request enqueues req and returns its assigned request id.
func (a *VtsAllocator) Request(req VtsRequest) uint64 {
	req.RequestID = a.nextRequestID
	a.nextRequestID++
	a.pending = append(a.pending, req)
	return req.RequestID
}

// Allocate grants the pending request identified by requestID, returning
// the new allocation or an error if it conflicts with an existing one or
// exceeds the destination zone's capacity.
func (a *VtsAllocator) Allocate(requestID uint64, currentTimeNs uint64) (spacetime.VtsAllocation, error) {
	idx := -1
	for i, r := range a.pending {
		if r.RequestID == requestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return spacetime.VtsAllocation{}, codes.New(codes.VTSViolation, "unknown vts request id")
	}
	req := a.pending[idx]
	a.pending = append(a.pending[:idx], a.pending[idx+1:]...)

	vts := spacetime.NewVTS(req.VoxelID, req.TStartNs, req.TEndNs)
	if a.hasConflict(vts) {
		return spacetime.VtsAllocation{}, codes.New(codes.VTSViolation, "vts conflicts with an existing allocation")
	}

	if limit, ok := a.zoneLimits[req.ZoneID]; ok {
		if a.countAllocationsInZone(req.ZoneID) >= limit {
			return spacetime.VtsAllocation{}, codes.New(codes.ZoneCapacityExceeded, "zone vts capacity exceeded")
		}
	}

	vtsID := spacetime.VtsIDFromComponents(req.ZoneID, req.VoxelID, req.TStartNs, req.TEndNs)
	allocation := spacetime.VtsAllocation{
		VtsID:         vtsID,
		VTS:           vts,
		ZoneID:        req.ZoneID,
		RobotID:       req.RobotID,
		AllocatedAtNs: currentTimeNs,
	}
	a.allocated[vtsID] = allocation
	return allocation, nil
}

func (a *VtsAllocator) hasConflict(vts spacetime.VTS) bool {
	for _, alloc := range a.allocated {
		if alloc.VTS.ConflictsWith(vts) {
			return true
		}
	}
	return false
}

func (a *VtsAllocator) countAllocationsInZone(zoneID uint32) int {
	count := 0
	for _, alloc := range a.allocated {
		if alloc.ZoneID == zoneID {
			count++
		}
	}
	return count
}

// Release removes the allocation identified by vtsID.
func (a *VtsAllocator) Release(vtsID spacetime.VtsID) bool {
	if _, ok := a.allocated[vtsID]; !ok {
		return false
	}
	delete(a.allocated, vtsID)
	return true
}

// CleanupExpired removes every allocation whose VTS ends before
// currentTimeNs, returning the count removed.
func (a *VtsAllocator) CleanupExpired(currentTimeNs uint64) int {
	var expired []spacetime.VtsID
	for id, alloc := range a.allocated {
		if alloc.VTS.TEndNs < currentTimeNs {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(a.allocated, id)
	}
	return len(expired)
}

func (a *VtsAllocator) GetAllocation(vtsID spacetime.VtsID) (spacetime.VtsAllocation, bool) {
	alloc, ok := a.allocated[vtsID]
	return alloc, ok
}

func (a *VtsAllocator) GetRobotAllocations(robotID uint64) []spacetime.VtsAllocation {
	var out []spacetime.VtsAllocation
	for _, alloc := range a.allocated {
		if alloc.RobotID == robotID {
			out = append(out, alloc)
		}
	}
	return out
}

func (a *VtsAllocator) AllocatedCount() int { return len(a.allocated) }
func (a *VtsAllocator) PendingCount() int   { return len(a.pending) }
