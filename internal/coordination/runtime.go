package coordination

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ocx/edge-coordinator/internal/circuitbreaker"
	"github.com/ocx/edge-coordinator/internal/economy"
	"github.com/ocx/edge-coordinator/internal/monitoring"
	"github.com/ocx/edge-coordinator/internal/physics"
	"github.com/ocx/edge-coordinator/internal/spacetime"
	sync2 "github.com/ocx/edge-coordinator/internal/sync"
	"github.com/ocx/edge-coordinator/pb"
)

// RuntimeStats is the edge runtime's observability aggregate, restored
// from sap-edge::runtime::RuntimeStats (SPEC_FULL.md supplemental type).
type RuntimeStats struct {
	TotalCommands    uint64
	PassedCommands   uint64
	AdjustedCommands uint64
	RejectedCommands uint64
	RollbackCount    uint64
	AuctionCount     uint64
	TicketIssued     uint64
}

// CommandOutcome is process_command's result tag.
type CommandOutcome int

const (
	CommandPassedOutcome CommandOutcome = iota
	CommandAdjustedOutcome
	CommandRejectedOutcome
)

// CommandResult is the runtime's verdict for one processed MotionCommand.
type CommandResult struct {
	Outcome CommandOutcome
	Reason  string
}

// SyncCheckOutcome is check_sync's result tag.
type SyncCheckOutcome int

const (
	SyncCheckInSync SyncCheckOutcome = iota
	SyncCheckWarning
	SyncCheckRolledBack
	SyncCheckRollbackFailed
)

// SyncCheckResult is the runtime's verdict after comparing predicted vs.
// actual robot state for one robot.
type SyncCheckResult struct {
	Outcome SyncCheckOutcome
	ToTick  uint64
}

const snapshotTickInterval = 10
const defaultTicketValidityNs = 60_000_000_000

// EdgeRuntime composes the physics validator, state comparator, rollback
// manager, failsafe manager, auction, pricing engine, and ticket manager
// into one zone's per-tick control loop, grounded on sap-edge/src/runtime.rs.
type EdgeRuntime struct {
	zoneID           uint32
	validator        *physics.Validator
	comparator       *sync2.StateComparator
	rollbackManager  *sync2.RollbackManager
	failsafeManager  *FailsafeManager
	auction          *economy.VickreyAuction
	pricingEngine    *economy.PricingEngine
	ticketManager    *economy.TicketManager
	world            spacetime.WorldState
	currentTick      uint64
	stats            RuntimeStats
	breakers         *circuitbreaker.EdgeCircuitBreakers
	metrics          *monitoring.Metrics
	zoneLabel        string
	aggregator       *GlobalAggregator
	peers            map[uint32]*PeerClient
}

// NewEdgeRuntime builds a runtime for zoneID using every subsystem's
// default configuration.
func NewEdgeRuntime(zoneID uint32) *EdgeRuntime {
	return &EdgeRuntime{
		zoneID:          zoneID,
		validator:       physics.NewValidatorWithDefaults(),
		comparator:      sync2.NewDefaultStateComparator(),
		rollbackManager: sync2.NewDefaultRollbackManager(zoneID),
		failsafeManager: NewDefaultFailsafeManager(zoneID),
		auction:         economy.NewDefaultVickreyAuction(),
		pricingEngine:   economy.NewDefaultPricingEngine(),
		ticketManager:   economy.NewTicketManager(zoneID),
		world:           spacetime.NewWorldState(zoneID),
		breakers:        circuitbreaker.NewEdgeCircuitBreakers(),
		zoneLabel:       strconv.FormatUint(uint64(zoneID), 10),
	}
}

// SetMetrics attaches a Prometheus metrics recorder; observation sites are
// no-ops until this is called, so tests can construct a runtime without
// standing up a registry.
func (r *EdgeRuntime) SetMetrics(m *monitoring.Metrics) { r.metrics = m }

// CallPeerHandoff runs fn through the handoff circuit breaker, so a peer
// edge stuck mid-handoff doesn't stall every robot crossing that boundary.
func (r *EdgeRuntime) CallPeerHandoff(fn func() (interface{}, error)) (interface{}, error) {
	return r.breakers.Handoff.Execute(fn)
}

// Breakers exposes the runtime's peer-call circuit breakers for monitoring.
func (r *EdgeRuntime) Breakers() *circuitbreaker.EdgeCircuitBreakers { return r.breakers }

// RegisterPeer attaches a live PeerClient this runtime can call out to for
// heartbeats and handoff initiation, keyed by the peer's edge ID.
func (r *EdgeRuntime) RegisterPeer(edgeID uint32, client *PeerClient) {
	if r.peers == nil {
		r.peers = make(map[uint32]*PeerClient)
	}
	r.peers[edgeID] = client
}

// PeerClientFor returns the live PeerClient registered for edgeID, if any.
func (r *EdgeRuntime) PeerClientFor(edgeID uint32) (*PeerClient, bool) {
	client, ok := r.peers[edgeID]
	return client, ok
}

// PingPeer heartbeats edgeID's peer through the heartbeat circuit breaker.
func (r *EdgeRuntime) PingPeer(ctx context.Context, edgeID uint32, timestampNs uint64) (*pb.HeartbeatResponse, error) {
	peer, ok := r.peers[edgeID]
	if !ok {
		return nil, fmt.Errorf("no peer client registered for edge %d", edgeID)
	}
	result, err := r.breakers.Heartbeat.Execute(func() (interface{}, error) {
		return peer.Heartbeat(ctx, r.zoneID, timestampNs)
	})
	if err != nil {
		return nil, err
	}
	return result.(*pb.HeartbeatResponse), nil
}

// RequestPeerHandoff offers a robot's control to edgeID's peer through the
// handoff circuit breaker, so a stuck peer can't stall other crossings.
func (r *EdgeRuntime) RequestPeerHandoff(ctx context.Context, edgeID uint32, req *pb.HandoffTransferRequest) (*pb.HandoffTransferResponse, error) {
	peer, ok := r.peers[edgeID]
	if !ok {
		return nil, fmt.Errorf("no peer client registered for edge %d", edgeID)
	}
	result, err := r.CallPeerHandoff(func() (interface{}, error) {
		return peer.RequestHandoff(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*pb.HandoffTransferResponse), nil
}

// Tick advances the runtime's tick counter, snapshotting the live
// WorldState every 10th tick and cleaning up expired tickets.
func (r *EdgeRuntime) Tick(timestampNs uint64) {
	r.currentTick++
	r.world = r.world.WithTick(r.currentTick, timestampNs)
	if r.currentTick%snapshotTickInterval == 0 {
		r.rollbackManager.SaveSnapshot(r.currentTick, r.world)
		if r.metrics != nil {
			r.metrics.SetSnapshotCount(float64(r.rollbackManager.SnapshotCount()))
		}
	}
	r.ticketManager.CleanupExpired(timestampNs)
	if r.aggregator != nil {
		r.aggregator.ReportWorldState(r.world, timestampNs)
	}
}

// SetAggregator attaches a GlobalAggregator that this runtime's WorldState
// is pushed to on every Tick, so a fleet-wide dashboard process (or another
// zone doing predictive handoff) can query cross-zone summaries.
func (r *EdgeRuntime) SetAggregator(agg *GlobalAggregator) { r.aggregator = agg }

// ReportRobotState folds a fresh robot state report into the runtime's
// live WorldState, so scheduled snapshots reflect real data rather than
// an empty stub.
func (r *EdgeRuntime) ReportRobotState(state spacetime.RobotState) {
	for i, existing := range r.world.Robots {
		if existing.ID == state.ID {
			r.world.Robots[i] = state
			return
		}
	}
	r.world.Robots = append(r.world.Robots, state)
}

// ProcessCommand validates cmd and updates runtime statistics.
func (r *EdgeRuntime) ProcessCommand(cmd physics.MotionCommand, obstacles []spacetime.Position, timestampNs uint64) CommandResult {
	r.stats.TotalCommands++
	verdict, adjusted := r.validator.Validate(cmd, obstacles, timestampNs)
	switch verdict {
	case physics.VerdictOK:
		r.stats.PassedCommands++
		r.rollbackManager.ResetConsecutive(cmd.RobotID)
		r.recordCommand("ok")
		return CommandResult{Outcome: CommandPassedOutcome}
	case physics.VerdictAdjust:
		r.stats.AdjustedCommands++
		reason := "velocity/acceleration clamped"
		if adjusted != nil {
			reason = adjusted.Note
		}
		r.recordCommand("adjust")
		return CommandResult{Outcome: CommandAdjustedOutcome, Reason: reason}
	default:
		r.stats.RejectedCommands++
		r.recordCommand("reject")
		return CommandResult{Outcome: CommandRejectedOutcome, Reason: "collision or constraint violation"}
	}
}

func (r *EdgeRuntime) recordCommand(verdict string) {
	if r.metrics != nil {
		r.metrics.RecordCommand(r.zoneLabel, verdict, 0)
	}
}

// CheckSync compares robotID's predicted-vs-actual position delta and, on
// NeedsRollback, attempts a rollback, propagating the real delta magnitude
// into the RollbackReason (see internal/sync's PredictionError doc).
func (r *EdgeRuntime) CheckSync(robotID uint64, positionDelta float32, timestampNs uint64) SyncCheckResult {
	result := r.comparator.CompareDelta(robotID, r.currentTick, positionDelta, 0, timestampNs)
	switch result {
	case sync2.InSync:
		return SyncCheckResult{Outcome: SyncCheckInSync}
	case sync2.Warning:
		return SyncCheckResult{Outcome: SyncCheckWarning}
	default:
		frame, err := r.rollbackManager.ExecuteRollback(robotID, r.currentTick, sync2.PredictionError(positionDelta), timestampNs)
		if err != nil {
			return SyncCheckResult{Outcome: SyncCheckRollbackFailed}
		}
		r.stats.RollbackCount++
		if r.metrics != nil {
			r.metrics.RecordRollback(r.zoneLabel, "prediction_error")
		}
		return SyncCheckResult{Outcome: SyncCheckRolledBack, ToTick: frame.RollbackTick}
	}
}

// CheckFailsafe delegates to the failsafe manager.
func (r *EdgeRuntime) CheckFailsafe(currentTimeNs uint64) FailsafeAction {
	return r.failsafeManager.CheckAndDecide(currentTimeNs)
}

func (r *EdgeRuntime) RegisterEdge(edgeID uint32) { r.failsafeManager.RegisterEdge(edgeID) }

func (r *EdgeRuntime) ReceiveHeartbeat(edgeID uint32, timestampNs uint64) {
	r.failsafeManager.ReceiveHeartbeat(edgeID, timestampNs)
}

// SubmitBid enqueues a revealed bid and records demand for pricing.
func (r *EdgeRuntime) SubmitBid(robotID uint64, vtsID spacetime.VtsID, amount uint64, timestampNs uint64) error {
	if err := r.auction.SubmitBid(economy.BidEntry{RobotID: robotID, BidAmount: amount, TimestampNs: timestampNs, VtsID: vtsID}); err != nil {
		return err
	}
	r.pricingEngine.RecordDemand(vtsID)
	return nil
}

// SettleAuction settles vtsID's auction and, on success, issues the winner
// a 60s ticket and records the transaction price.
func (r *EdgeRuntime) SettleAuction(vtsID spacetime.VtsID, timestampNs uint64) (economy.AuctionResult, bool) {
	result, ok := r.auction.Settle(vtsID, timestampNs)
	if !ok {
		return economy.AuctionResult{}, false
	}
	r.ticketManager.IssueTicket(result.WinnerID, []spacetime.VtsID{vtsID}, timestampNs, timestampNs+defaultTicketValidityNs)
	r.pricingEngine.RecordTransaction(vtsID, result.WinningPrice)
	r.stats.AuctionCount++
	r.stats.TicketIssued++
	if r.metrics != nil {
		r.metrics.RecordAuctionSettled(r.zoneLabel, float64(result.WinningPrice))
		r.metrics.SetTicketsActive(float64(r.ticketManager.ActiveCount()))
	}
	return result, true
}

// QuotePrice returns vtsID's current dynamic price quote.
func (r *EdgeRuntime) QuotePrice(vtsID spacetime.VtsID, timestampNs uint64) uint64 {
	return r.pricingEngine.Quote(vtsID, timestampNs).Price
}

func (r *EdgeRuntime) Stats() RuntimeStats   { return r.stats }
func (r *EdgeRuntime) CurrentTick() uint64   { return r.currentTick }
func (r *EdgeRuntime) ZoneID() uint32        { return r.zoneID }
func (r *EdgeRuntime) WorldState() spacetime.WorldState { return r.world }

// Validator exposes the physics validator for read-only introspection
// (recent validation logs, current config).
func (r *EdgeRuntime) Validator() *physics.Validator { return r.validator }

// RollbackStatsFor exposes robotID's rollback history.
func (r *EdgeRuntime) RollbackStatsFor(robotID uint64) sync2.RollbackStats {
	return r.rollbackManager.RollbackStatsFor(robotID)
}

// SnapshotCount reports how many world-state snapshots are retained.
func (r *EdgeRuntime) SnapshotCount() int { return r.rollbackManager.SnapshotCount() }

// FailsafeManager exposes the zone's failsafe supervisor for read-only
// introspection (peer edge health).
func (r *EdgeRuntime) FailsafeManager() *FailsafeManager { return r.failsafeManager }
