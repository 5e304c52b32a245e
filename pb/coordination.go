// Package pb defines the wire messages and service interfaces peer edge
// nodes use to talk to each other: heartbeats, cross-zone handoff, and
// rollback notification. Grounded on the teacher's pb/mock.go (hand-rolled
// message structs plus a client interface satisfied by both a real gRPC
// stub and a MockCoordinationClient for tests) and on
// internal/federation's HandshakeServiceServer/HandshakeClient gRPC
// wiring style.
package pb

import (
	"context"

	"google.golang.org/grpc"
)

// PacketHeader is the common envelope every wire message carries: which
// zone sent it, when, a monotonic per-sender sequence number, and a
// single-use nonce. Sequence and Nonce are screened by the receiving
// edge's internal/security.ReplayGuard before the payload is processed.
type PacketHeader struct {
	ZoneID      uint32
	TimestampNs uint64
	Sequence    uint64
	Nonce       uint64
}

// DeltaTickPacket carries one tick's robot state deltas from one edge to
// a subscriber (another edge doing predictive pre-allocation, or a
// monitoring sidecar).
type DeltaTickPacket struct {
	Header      PacketHeader
	Tick        uint64
	RobotID     uint64
	PositionX   float32
	PositionY   float32
	PositionZ   float32
	VelocityX   float32
	VelocityY   float32
	VelocityZ   float32
}

// RollbackFramePacket is the wire form of internal/sync.RollbackFrame.
type RollbackFramePacket struct {
	Header       PacketHeader
	RobotID      uint64
	RollbackTick uint64
	ReasonKind   int32
	ReasonDelta  float32
	StateHash    []byte
}

// SignedMessage wraps an opaque payload with an HMAC/ed25519 signature
// for inter-edge authentication, grounded on internal/security's message
// envelope and pkg/trust's ed25519 verifier.
type SignedMessage struct {
	Header    PacketHeader
	Payload   []byte
	Signature []byte
	SignerID  uint32
}

// HeartbeatRequest is sent by a peer edge to prove liveness.
type HeartbeatRequest struct {
	Header  PacketHeader
	EdgeID  uint32
	ZoneID  uint32
}

// HeartbeatResponse acknowledges a heartbeat and reports the responder's
// own load, so a struggling peer can be detected before it goes fully
// unreachable.
type HeartbeatResponse struct {
	Header       PacketHeader
	EdgeID       uint32
	ActiveRobots uint32
}

// HandoffTransferRequest is the wire form of a cross-zone handoff offer.
type HandoffTransferRequest struct {
	Header                 PacketHeader
	HandoffID              uint64
	RobotID                uint64
	FromZoneID             uint32
	ToZoneID               uint32
	PositionX, PositionY   float32
	PositionZ              float32
	TicketID               []byte
	PreallocatedVtsIDs     []uint64
	ExpectedCrossingTimeNs uint64
	ExpiresAtNs            uint64
}

// HandoffTransferResponse is the wire form of a destination edge's
// verdict on a HandoffTransferRequest.
type HandoffTransferResponse struct {
	Header        PacketHeader
	HandoffID     uint64
	Accepted      bool
	RejectReason  string
	NewTicketID   []byte
	RespondedAtNs uint64
}

// CoordinationServiceClient is the RPC surface one edge calls on a peer
// edge. A real implementation wraps a *grpc.ClientConn; tests use
// MockCoordinationClient instead.
type CoordinationServiceClient interface {
	Heartbeat(ctx context.Context, in *HeartbeatRequest, opts ...grpc.CallOption) (*HeartbeatResponse, error)
	RequestHandoff(ctx context.Context, in *HandoffTransferRequest, opts ...grpc.CallOption) (*HandoffTransferResponse, error)
	StreamDeltaTicks(ctx context.Context, in *DeltaTickPacket, opts ...grpc.CallOption) (*PacketHeader, error)
}

// CoordinationServiceServer is implemented by the edge runtime to answer
// peer-edge RPCs.
type CoordinationServiceServer interface {
	Heartbeat(ctx context.Context, in *HeartbeatRequest) (*HeartbeatResponse, error)
	RequestHandoff(ctx context.Context, in *HandoffTransferRequest) (*HandoffTransferResponse, error)
	StreamDeltaTicks(ctx context.Context, in *DeltaTickPacket) (*PacketHeader, error)
}

// RegisterCoordinationServiceServer registers srv's methods against a
// *grpc.Server under the same method names grpcCoordinationClient dials,
// mirroring what protoc-gen-go-grpc would normally generate.
func RegisterCoordinationServiceServer(s *grpc.Server, srv CoordinationServiceServer) {
	s.RegisterService(&coordinationServiceDesc, srv)
}

var coordinationServiceDesc = grpc.ServiceDesc{
	ServiceName: "pb.CoordinationService",
	HandlerType: (*CoordinationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Heartbeat",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(HeartbeatRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(CoordinationServiceServer).Heartbeat(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pb.CoordinationService/Heartbeat"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(CoordinationServiceServer).Heartbeat(ctx, req.(*HeartbeatRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
		{
			MethodName: "RequestHandoff",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(HandoffTransferRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(CoordinationServiceServer).RequestHandoff(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pb.CoordinationService/RequestHandoff"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(CoordinationServiceServer).RequestHandoff(ctx, req.(*HandoffTransferRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
		{
			MethodName: "StreamDeltaTicks",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(DeltaTickPacket)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(CoordinationServiceServer).StreamDeltaTicks(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pb.CoordinationService/StreamDeltaTicks"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(CoordinationServiceServer).StreamDeltaTicks(ctx, req.(*DeltaTickPacket))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pb/coordination.go",
}

// UnimplementedCoordinationServiceServer can be embedded by a server
// implementation to satisfy CoordinationServiceServer for methods it
// does not override, mirroring grpc-go's generated Unimplemented* base.
type UnimplementedCoordinationServiceServer struct{}

func (UnimplementedCoordinationServiceServer) Heartbeat(context.Context, *HeartbeatRequest) (*HeartbeatResponse, error) {
	return nil, nil
}
func (UnimplementedCoordinationServiceServer) RequestHandoff(context.Context, *HandoffTransferRequest) (*HandoffTransferResponse, error) {
	return nil, nil
}
func (UnimplementedCoordinationServiceServer) StreamDeltaTicks(context.Context, *DeltaTickPacket) (*PacketHeader, error) {
	return nil, nil
}

// MockCoordinationClient is an in-memory CoordinationServiceClient for
// tests: it calls directly into a CoordinationServiceServer without a
// network hop, mirroring pb.MockLedgerClient's pass-through style.
type MockCoordinationClient struct {
	Server CoordinationServiceServer
}

func (m *MockCoordinationClient) Heartbeat(ctx context.Context, in *HeartbeatRequest, _ ...grpc.CallOption) (*HeartbeatResponse, error) {
	return m.Server.Heartbeat(ctx, in)
}

func (m *MockCoordinationClient) RequestHandoff(ctx context.Context, in *HandoffTransferRequest, _ ...grpc.CallOption) (*HandoffTransferResponse, error) {
	return m.Server.RequestHandoff(ctx, in)
}

func (m *MockCoordinationClient) StreamDeltaTicks(ctx context.Context, in *DeltaTickPacket, _ ...grpc.CallOption) (*PacketHeader, error) {
	return m.Server.StreamDeltaTicks(ctx, in)
}
