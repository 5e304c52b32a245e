package coordination

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ocx/edge-coordinator/internal/identity"
	"github.com/ocx/edge-coordinator/internal/security"
	"github.com/ocx/edge-coordinator/pb"
)

// PeerClient wraps a gRPC connection to one peer edge, grounded on the
// teacher's HandshakeClient (internal/federation/handshake_client.go):
// a thin dial-and-wrap around the generated service client.
type PeerClient struct {
	conn     *grpc.ClientConn
	client   pb.CoordinationServiceClient
	edgeID   uint32
	nonceGen *security.NonceGenerator
	sequence uint64
}

// DialPeer connects to a peer edge's coordination RPC endpoint. When
// verifier is non-nil its SPIFFE-issued SVID backs mTLS transport
// credentials; a nil verifier falls back to insecure credentials, which is
// only appropriate for local development or a test harness.
func DialPeer(addr string, edgeID uint32, verifier *identity.SPIFFEVerifier) (*PeerClient, error) {
	creds := insecure.NewCredentials()
	if verifier != nil {
		tlsConf, err := verifier.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("build spiffe tls config for peer edge %d: %w", edgeID, err)
		}
		creds = credentials.NewTLS(tlsConf)
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial peer edge %d at %s: %w", edgeID, addr, err)
	}
	return &PeerClient{
		conn:     conn,
		client:   newGeneratedClient(conn),
		edgeID:   edgeID,
		nonceGen: security.NewNonceGenerator(),
	}, nil
}

// EdgeID reports the peer edge ID this client was dialed for.
func (p *PeerClient) EdgeID() uint32 { return p.edgeID }

// nextHeader stamps an outgoing envelope with a fresh nonce and a strictly
// increasing per-connection sequence number, so the peer's replay guard
// (internal/security.ReplayGuard) can screen this client's traffic.
func (p *PeerClient) nextHeader(zoneID uint32, timestampNs uint64) pb.PacketHeader {
	p.sequence++
	return pb.PacketHeader{
		ZoneID:      zoneID,
		TimestampNs: timestampNs,
		Sequence:    p.sequence,
		Nonce:       p.nonceGen.Generate(timestampNs),
	}
}

// newGeneratedClient exists only to localize the cast from *grpc.ClientConn
// to the hand-rolled pb.CoordinationServiceClient; a real protoc-generated
// package would supply this directly as pb.NewCoordinationServiceClient.
func newGeneratedClient(conn *grpc.ClientConn) pb.CoordinationServiceClient {
	return &grpcCoordinationClient{conn: conn}
}

type grpcCoordinationClient struct {
	conn *grpc.ClientConn
}

func (c *grpcCoordinationClient) Heartbeat(ctx context.Context, in *pb.HeartbeatRequest, opts ...grpc.CallOption) (*pb.HeartbeatResponse, error) {
	out := new(pb.HeartbeatResponse)
	err := c.conn.Invoke(ctx, "/pb.CoordinationService/Heartbeat", in, out, opts...)
	return out, err
}

func (c *grpcCoordinationClient) RequestHandoff(ctx context.Context, in *pb.HandoffTransferRequest, opts ...grpc.CallOption) (*pb.HandoffTransferResponse, error) {
	out := new(pb.HandoffTransferResponse)
	err := c.conn.Invoke(ctx, "/pb.CoordinationService/RequestHandoff", in, out, opts...)
	return out, err
}

func (c *grpcCoordinationClient) StreamDeltaTicks(ctx context.Context, in *pb.DeltaTickPacket, opts ...grpc.CallOption) (*pb.PacketHeader, error) {
	out := new(pb.PacketHeader)
	err := c.conn.Invoke(ctx, "/pb.CoordinationService/StreamDeltaTicks", in, out, opts...)
	return out, err
}

// Close releases the underlying connection.
func (p *PeerClient) Close() error { return p.conn.Close() }

// Heartbeat pings the peer edge and returns its reported load.
func (p *PeerClient) Heartbeat(ctx context.Context, zoneID uint32, timestampNs uint64) (*pb.HeartbeatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.client.Heartbeat(ctx, &pb.HeartbeatRequest{
		Header: p.nextHeader(zoneID, timestampNs),
		EdgeID: p.edgeID,
		ZoneID: zoneID,
	})
}

// RequestHandoff offers a robot's control to this peer edge. The caller
// supplies the handoff-domain fields on req; RequestHandoff overwrites
// req.Header with a freshly stamped envelope before sending.
func (p *PeerClient) RequestHandoff(ctx context.Context, req *pb.HandoffTransferRequest) (*pb.HandoffTransferResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req.Header = p.nextHeader(req.Header.ZoneID, req.Header.TimestampNs)
	return p.client.RequestHandoff(ctx, req)
}

// StreamDeltaTicks pushes one predictive DeltaTickPacket to this peer edge,
// so it can pre-allocate VTS capacity ahead of a robot crossing into its
// zone.
func (p *PeerClient) StreamDeltaTicks(ctx context.Context, packet *pb.DeltaTickPacket) (*pb.PacketHeader, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	packet.Header = p.nextHeader(packet.Header.ZoneID, packet.Header.TimestampNs)
	return p.client.StreamDeltaTicks(ctx, packet)
}
