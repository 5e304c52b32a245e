package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/edge-coordinator/internal/cache"
	"github.com/ocx/edge-coordinator/internal/codes"
	"github.com/ocx/edge-coordinator/pb"
)

func newTestGRPCServer() *GRPCServer {
	failsafe := NewDefaultFailsafeManager(1)
	handoffs := NewDefaultHandoffManager(1)
	return NewGRPCServer(failsafe, handoffs)
}

// atFixedClock pins s's replay-window clock to timestampNs, so a header
// carrying that same timestamp is always screened as fresh regardless of
// when the test actually runs.
func atFixedClock(s *GRPCServer, timestampNs uint64) {
	s.SetClock(func() uint64 { return timestampNs })
}

func TestGRPCServerHeartbeatRegistersEdgeAndReportsLoad(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)

	resp, err := s.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		Header: pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 1},
		EdgeID: 9,
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(1000), resp.Header.TimestampNs)

	status, ok := s.failsafe.GetEdgeStatus(9)
	require.True(t, ok, "Heartbeat must register the calling edge if it was unknown")
	assert.Equal(t, EdgeHealthy, status)
}

func TestGRPCServerHeartbeatRejectsReplayedNonce(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)

	header := pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 42}
	_, err := s.Heartbeat(context.Background(), &pb.HeartbeatRequest{Header: header, EdgeID: 9})
	require.NoError(t, err)

	_, err = s.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		Header: pb.PacketHeader{TimestampNs: 1000, Sequence: 2, Nonce: 42},
		EdgeID: 9,
	})
	require.Error(t, err)
	var codeErr *codes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, codes.ReplayAttackDetected, codeErr.Code)
}

func TestGRPCServerHeartbeatRejectsNonIncreasingSequence(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)

	_, err := s.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		Header: pb.PacketHeader{TimestampNs: 1000, Sequence: 5, Nonce: 1},
		EdgeID: 9,
	})
	require.NoError(t, err)

	_, err = s.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		Header: pb.PacketHeader{TimestampNs: 1000, Sequence: 5, Nonce: 2},
		EdgeID: 9,
	})
	require.Error(t, err)
	var codeErr *codes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, codes.InvalidSequence, codeErr.Code)
}

func TestGRPCServerHeartbeatRejectsExpiredTimestamp(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 50_000_000_000) // 50s "now", far past the 5s validity window

	_, err := s.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		Header: pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 1},
		EdgeID: 9,
	})
	require.Error(t, err)
	var codeErr *codes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, codes.MessageExpired, codeErr.Code)
}

func TestGRPCServerRequestHandoffAcceptsWithinCapacity(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)

	resp, err := s.RequestHandoff(context.Background(), &pb.HandoffTransferRequest{
		Header:      pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 1},
		HandoffID:   5,
		RobotID:     42,
		FromZoneID:  2,
		ToZoneID:    1,
		ExpiresAtNs: 2000,
	})

	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.Equal(t, uint64(5), resp.HandoffID)
	assert.NotEmpty(t, resp.NewTicketID)
}

func TestGRPCServerRequestHandoffRejectsExpiredRequest(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 5000)

	resp, err := s.RequestHandoff(context.Background(), &pb.HandoffTransferRequest{
		Header:      pb.PacketHeader{TimestampNs: 5000, Sequence: 1, Nonce: 1},
		HandoffID:   5,
		ExpiresAtNs: 1000,
	})

	require.NoError(t, err)
	assert.False(t, resp.Accepted)
	assert.Equal(t, "handoff request expired", resp.RejectReason)
}

func TestGRPCServerRequestHandoffRejectsReplayedSequence(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)

	req := &pb.HandoffTransferRequest{
		Header:      pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 1},
		HandoffID:   5,
		FromZoneID:  2,
		ToZoneID:    1,
		ExpiresAtNs: 2000,
	}
	_, err := s.RequestHandoff(context.Background(), req)
	require.NoError(t, err)

	_, err = s.RequestHandoff(context.Background(), req)
	require.Error(t, err)
	var codeErr *codes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, codes.InvalidSequence, codeErr.Code)
}

func TestGRPCServerRequestHandoffPublishesEventWhenBusAttached(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1000)
	bus := cache.NewEventBus(nil, "")
	s.SetEventBus(bus)

	var received cache.ZoneEvent
	require.NoError(t, bus.Subscribe(context.Background(), cache.EventHandoffAccepted, func(ev cache.ZoneEvent) {
		received = ev
	}))

	_, err := s.RequestHandoff(context.Background(), &pb.HandoffTransferRequest{
		Header:      pb.PacketHeader{TimestampNs: 1000, Sequence: 1, Nonce: 1},
		HandoffID:   8,
		RobotID:     3,
		FromZoneID:  2,
		ToZoneID:    1,
		ExpiresAtNs: 2000,
	})

	require.NoError(t, err)
	assert.Equal(t, cache.EventHandoffAccepted, received.Type)
	assert.Equal(t, uint32(1), received.ZoneID)
}

func TestGRPCServerStreamDeltaTicksRecordsPredictiveTickAndAcks(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1500)

	header, err := s.StreamDeltaTicks(context.Background(), &pb.DeltaTickPacket{
		Header:    pb.PacketHeader{ZoneID: 2, TimestampNs: 1500, Sequence: 1, Nonce: 1},
		RobotID:   7,
		PositionX: 1,
		PositionY: 2,
		PositionZ: 0,
	})

	require.NoError(t, err)
	assert.Equal(t, uint32(2), header.ZoneID)
	assert.Equal(t, uint64(1500), header.TimestampNs)
}

func TestGRPCServerStreamDeltaTicksRejectsDuplicateNonce(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 1500)

	packet := func(seq uint64) *pb.DeltaTickPacket {
		return &pb.DeltaTickPacket{Header: pb.PacketHeader{ZoneID: 2, TimestampNs: 1500, Sequence: seq, Nonce: 7}}
	}

	_, err := s.StreamDeltaTicks(context.Background(), packet(1))
	require.NoError(t, err)

	_, err = s.StreamDeltaTicks(context.Background(), packet(2))
	require.Error(t, err)
	var codeErr *codes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, codes.ReplayAttackDetected, codeErr.Code)
}

func TestGRPCServerViaMockCoordinationClient(t *testing.T) {
	s := newTestGRPCServer()
	atFixedClock(s, 10)
	client := &pb.MockCoordinationClient{Server: s}

	resp, err := client.Heartbeat(context.Background(), &pb.HeartbeatRequest{
		EdgeID: 4,
		Header: pb.PacketHeader{TimestampNs: 10, Sequence: 1, Nonce: 1},
	})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}
