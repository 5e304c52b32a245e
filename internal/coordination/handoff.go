package coordination

import (
	"math"

	"github.com/ocx/edge-coordinator/internal/economy"
	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// ZoneBoundary is a 2D line segment between two adjacent zones, used to
// trigger predictive cross-zone handoff as a robot approaches it.
type ZoneBoundary struct {
	FromZoneID       uint32
	ToZoneID         uint32
	BoundaryStart    spacetime.Position
	BoundaryEnd      spacetime.Position
	TriggerDistanceM float32
}

// IsInTriggerRange reports whether position is within TriggerDistanceM of
// the boundary segment.
func (b ZoneBoundary) IsInTriggerRange(position spacetime.Position) bool {
	return b.DistanceToBoundary(position) < b.TriggerDistanceM
}

// DistanceToBoundary computes the minimum 2D (x/y) distance from position
// to the boundary line segment via point-to-segment projection.
func (b ZoneBoundary) DistanceToBoundary(position spacetime.Position) float32 {
	px, py := position.X, position.Y
	ax, ay := b.BoundaryStart.X, b.BoundaryStart.Y
	bx, by := b.BoundaryEnd.X, b.BoundaryEnd.Y

	abx, aby := bx-ax, by-ay
	apx, apy := px-ax, py-ay

	abSq := abx*abx + aby*aby
	if abSq == 0 {
		dx, dy := px-ax, py-ay
		return float32(math.Sqrt(float64(dx*dx + dy*dy)))
	}

	t := (apx*abx + apy*aby) / abSq
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	nearestX := ax + t*abx
	nearestY := ay + t*aby

	dx, dy := px-nearestX, py-nearestY
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// VtsRequestSpec is one (voxel, interval) request within a predictive
// pre-allocation.
type VtsRequestSpec struct {
	VoxelID  uint64
	TStartNs uint64
	TEndNs   uint64
}

// PredictiveAllocation is a pre-allocation request sent ahead of a robot
// approaching a zone boundary, so the destination zone can reserve VTS
// capacity before the robot physically arrives.
type PredictiveAllocation struct {
	RequestID               uint64
	RobotID                 uint64
	FromZoneID              uint32
	ToZoneID                uint32
	EstimatedCrossingTimeNs uint64
	RequestedVts            []VtsRequestSpec
	Priority                uint8
	CreatedAtNs             uint64
}

func NewPredictiveAllocation(robotID uint64, fromZoneID, toZoneID uint32, estimatedCrossingTimeNs uint64) PredictiveAllocation {
	return PredictiveAllocation{RobotID: robotID, FromZoneID: fromZoneID, ToZoneID: toZoneID, EstimatedCrossingTimeNs: estimatedCrossingTimeNs}
}

func (a *PredictiveAllocation) AddVts(voxelID, tStartNs, tEndNs uint64) {
	a.RequestedVts = append(a.RequestedVts, VtsRequestSpec{VoxelID: voxelID, TStartNs: tStartNs, TEndNs: tEndNs})
}

// HandoffState is the cross-zone handoff protocol's FSM state.
type HandoffState int

const (
	HandoffIdle HandoffState = iota
	HandoffPredictiveAllocRequested
	HandoffPredictiveAllocGranted
	HandoffRequestSent
	HandoffAwaitingApproval
	HandoffTransferringState
	HandoffCompleted
	HandoffFailed
	HandoffCancelled
)

func (s HandoffState) String() string {
	switch s {
	case HandoffIdle:
		return "Idle"
	case HandoffPredictiveAllocRequested:
		return "PredictiveAllocRequested"
	case HandoffPredictiveAllocGranted:
		return "PredictiveAllocGranted"
	case HandoffRequestSent:
		return "RequestSent"
	case HandoffAwaitingApproval:
		return "AwaitingApproval"
	case HandoffTransferringState:
		return "TransferringState"
	case HandoffCompleted:
		return "Completed"
	case HandoffFailed:
		return "Failed"
	case HandoffCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s has no further valid transitions.
func (s HandoffState) IsTerminal() bool {
	return s == HandoffCompleted || s == HandoffFailed || s == HandoffCancelled
}

// HandoffRequest is the edge-to-edge request to transfer a robot's control.
type HandoffRequest struct {
	HandoffID             uint64
	RobotID               uint64
	FromZoneID            uint32
	ToZoneID              uint32
	RobotState            spacetime.RobotState
	TicketID              economy.TicketID
	PreallocatedVtsIDs    []spacetime.VtsID
	ExpectedCrossingTimeNs uint64
	CreatedAtNs           uint64
	ExpiresAtNs           uint64
}

// IsExpired reports whether the request has lapsed at currentTimeNs.
func (r HandoffRequest) IsExpired(currentTimeNs uint64) bool {
	return currentTimeNs >= r.ExpiresAtNs
}

// HandoffStatus is the destination edge's verdict on a HandoffRequest.
type HandoffStatus int

const (
	HandoffAccepted HandoffStatus = iota
	HandoffRejectedCapacityFull
	HandoffRejectedVtsConflict
	HandoffRejectedUnknownRobot
	HandoffRejectedTimeout
	HandoffPending
)

// HandoffResponse is the destination edge's reply to a HandoffRequest.
type HandoffResponse struct {
	HandoffID    uint64
	Status       HandoffStatus
	NewTicketID  *economy.TicketID
	ErrorMessage string
	RespondedAtNs uint64
}

func AcceptHandoff(handoffID uint64, newTicketID economy.TicketID, respondedAtNs uint64) HandoffResponse {
	return HandoffResponse{HandoffID: handoffID, Status: HandoffAccepted, NewTicketID: &newTicketID, RespondedAtNs: respondedAtNs}
}

func RejectHandoff(handoffID uint64, status HandoffStatus, errMsg string, respondedAtNs uint64) HandoffResponse {
	return HandoffResponse{HandoffID: handoffID, Status: status, ErrorMessage: errMsg, RespondedAtNs: respondedAtNs}
}

func (r HandoffResponse) IsAccepted() bool { return r.Status == HandoffAccepted }
