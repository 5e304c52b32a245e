package coordination

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/ocx/edge-coordinator/internal/cache"
	"github.com/ocx/edge-coordinator/internal/economy"
	"github.com/ocx/edge-coordinator/internal/security"
	"github.com/ocx/edge-coordinator/internal/spacetime"
	"github.com/ocx/edge-coordinator/pb"
)

// GRPCServer implements pb.CoordinationServiceServer over a zone's
// FailsafeManager and handoff queue, grounded on the teacher's
// HandshakeServiceServer (internal/federation/handshake_service.go):
// unwrap the wire message, call into the local domain object, wrap the
// domain result back into a wire response. Every inbound message is
// screened by a ReplayGuard before it reaches the domain layer.
type GRPCServer struct {
	pb.UnimplementedCoordinationServiceServer
	failsafe *FailsafeManager
	handoffs *HandoffManager
	events   *cache.EventBus
	replay   *security.ReplayGuard
	clock    func() uint64
}

// NewGRPCServer builds a server backed by failsafe and handoffs, screening
// inbound traffic with a default ReplayGuard (spec section 4.1 defaults)
// and the real wall clock.
func NewGRPCServer(failsafe *FailsafeManager, handoffs *HandoffManager) *GRPCServer {
	return &GRPCServer{
		failsafe: failsafe,
		handoffs: handoffs,
		replay:   security.NewDefaultReplayGuard(),
		clock:    func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// SetEventBus attaches the zone's cross-zone event distributor so accepted
// handoffs are announced to local and remote subscribers. Optional: a
// server without one simply skips publication.
func (s *GRPCServer) SetEventBus(events *cache.EventBus) { s.events = events }

// SetClock overrides the server's notion of "now" used for replay-window
// screening; tests use this to line up with fixed fake timestamps instead
// of the real wall clock.
func (s *GRPCServer) SetClock(clock func() uint64) { s.clock = clock }

// screenHeader runs header through the replay guard, keyed by senderID.
// A violation is returned as-is, and each handler passes it back to the
// RPC caller unchanged, so the error names the check that failed.
func (s *GRPCServer) screenHeader(senderID uint64, header pb.PacketHeader) error {
	return s.replay.Validate(senderID, header.Nonce, header.Sequence, header.TimestampNs, s.clock())
}

// Heartbeat records liveness from the calling peer edge and reports this
// zone's current load back.
func (s *GRPCServer) Heartbeat(_ context.Context, in *pb.HeartbeatRequest) (*pb.HeartbeatResponse, error) {
	if err := s.screenHeader(uint64(in.EdgeID), in.Header); err != nil {
		return nil, err
	}
	s.failsafe.RegisterEdge(in.EdgeID)
	s.failsafe.ReceiveHeartbeat(in.EdgeID, in.Header.TimestampNs)
	return &pb.HeartbeatResponse{
		Header:       pb.PacketHeader{ZoneID: s.failsafe.ZoneID(), TimestampNs: in.Header.TimestampNs},
		EdgeID:       s.failsafe.ZoneID(),
		ActiveRobots: uint32(s.handoffs.ActiveCount()),
	}, nil
}

// RequestHandoff accepts or rejects an inbound cross-zone handoff offer.
func (s *GRPCServer) RequestHandoff(ctx context.Context, in *pb.HandoffTransferRequest) (*pb.HandoffTransferResponse, error) {
	if err := s.screenHeader(uint64(in.FromZoneID), in.Header); err != nil {
		return nil, err
	}

	var ticketID economy.TicketID
	copy(ticketID[:], in.TicketID)

	vtsIDs := make([]spacetime.VtsID, len(in.PreallocatedVtsIDs))
	for i, raw := range in.PreallocatedVtsIDs {
		var id spacetime.VtsID
		binary.LittleEndian.PutUint64(id[0:8], raw)
		vtsIDs[i] = id
	}

	req := HandoffRequest{
		HandoffID:              in.HandoffID,
		RobotID:                in.RobotID,
		FromZoneID:             in.FromZoneID,
		ToZoneID:               in.ToZoneID,
		RobotState:             spacetime.RobotState{ID: in.RobotID, Position: spacetime.NewPosition(in.PositionX, in.PositionY, in.PositionZ)},
		TicketID:               ticketID,
		PreallocatedVtsIDs:     vtsIDs,
		ExpectedCrossingTimeNs: in.ExpectedCrossingTimeNs,
		ExpiresAtNs:            in.ExpiresAtNs,
	}

	resp := s.handoffs.Accept(req, in.Header.TimestampNs)
	s.publishHandoffEvent(ctx, resp, in)
	out := &pb.HandoffTransferResponse{
		Header:        pb.PacketHeader{ZoneID: in.ToZoneID, TimestampNs: in.Header.TimestampNs},
		HandoffID:     resp.HandoffID,
		Accepted:      resp.IsAccepted(),
		RejectReason:  resp.ErrorMessage,
		RespondedAtNs: resp.RespondedAtNs,
	}
	if resp.NewTicketID != nil {
		out.NewTicketID = resp.NewTicketID[:]
	}
	return out, nil
}

// StreamDeltaTicks accepts one predictive DeltaTickPacket from a peer
// edge doing cross-zone pre-allocation and acknowledges receipt.
func (s *GRPCServer) StreamDeltaTicks(_ context.Context, in *pb.DeltaTickPacket) (*pb.PacketHeader, error) {
	if err := s.screenHeader(uint64(in.Header.ZoneID), in.Header); err != nil {
		return nil, err
	}
	s.handoffs.RecordPredictiveTick(in.RobotID, spacetime.NewPosition(in.PositionX, in.PositionY, in.PositionZ), in.Header.TimestampNs)
	return &pb.PacketHeader{ZoneID: in.Header.ZoneID, TimestampNs: in.Header.TimestampNs}, nil
}

// handoffEventPayload is the JSON body carried by a cache.ZoneEvent
// announcing a handoff decision.
type handoffEventPayload struct {
	HandoffID  uint64 `json:"handoff_id"`
	RobotID    uint64 `json:"robot_id"`
	FromZoneID uint32 `json:"from_zone_id"`
	ToZoneID   uint32 `json:"to_zone_id"`
	Accepted   bool   `json:"accepted"`
}

func (s *GRPCServer) publishHandoffEvent(ctx context.Context, resp HandoffResponse, in *pb.HandoffTransferRequest) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(handoffEventPayload{
		HandoffID:  resp.HandoffID,
		RobotID:    in.RobotID,
		FromZoneID: in.FromZoneID,
		ToZoneID:   in.ToZoneID,
		Accepted:   resp.IsAccepted(),
	})
	if err != nil {
		return
	}
	s.events.Publish(ctx, cache.ZoneEvent{Type: cache.EventHandoffAccepted, ZoneID: in.ToZoneID, Payload: payload})
}
