package pb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeCoordinationServer struct {
	UnimplementedCoordinationServiceServer
	heartbeats int
}

func (f *fakeCoordinationServer) Heartbeat(_ context.Context, in *HeartbeatRequest) (*HeartbeatResponse, error) {
	f.heartbeats++
	return &HeartbeatResponse{EdgeID: in.EdgeID, ActiveRobots: 3}, nil
}

func (f *fakeCoordinationServer) RequestHandoff(_ context.Context, in *HandoffTransferRequest) (*HandoffTransferResponse, error) {
	return &HandoffTransferResponse{HandoffID: in.HandoffID, Accepted: true}, nil
}

func TestMockCoordinationClientHeartbeatDelegatesToServer(t *testing.T) {
	srv := &fakeCoordinationServer{}
	client := &MockCoordinationClient{Server: srv}

	resp, err := client.Heartbeat(context.Background(), &HeartbeatRequest{EdgeID: 7})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), resp.EdgeID)
	assert.Equal(t, uint32(3), resp.ActiveRobots)
	assert.Equal(t, 1, srv.heartbeats)
}

func TestMockCoordinationClientRequestHandoffDelegatesToServer(t *testing.T) {
	srv := &fakeCoordinationServer{}
	client := &MockCoordinationClient{Server: srv}

	resp, err := client.RequestHandoff(context.Background(), &HandoffTransferRequest{HandoffID: 55})
	require.NoError(t, err)
	assert.Equal(t, uint64(55), resp.HandoffID)
	assert.True(t, resp.Accepted)
}

func TestMockCoordinationClientStreamDeltaTicksUsesEmbeddedUnimplementedDefault(t *testing.T) {
	srv := &fakeCoordinationServer{}
	client := &MockCoordinationClient{Server: srv}

	header, err := client.StreamDeltaTicks(context.Background(), &DeltaTickPacket{Tick: 1})
	require.NoError(t, err)
	assert.Nil(t, header, "the server only overrides Heartbeat/RequestHandoff, so StreamDeltaTicks falls through to the unimplemented default")
}

func TestUnimplementedCoordinationServiceServerReturnsNilNilForEveryMethod(t *testing.T) {
	var u UnimplementedCoordinationServiceServer

	hbResp, hbErr := u.Heartbeat(context.Background(), &HeartbeatRequest{})
	assert.Nil(t, hbResp)
	assert.NoError(t, hbErr)

	hoResp, hoErr := u.RequestHandoff(context.Background(), &HandoffTransferRequest{})
	assert.Nil(t, hoResp)
	assert.NoError(t, hoErr)

	dtResp, dtErr := u.StreamDeltaTicks(context.Background(), &DeltaTickPacket{})
	assert.Nil(t, dtResp)
	assert.NoError(t, dtErr)
}

func TestRegisterCoordinationServiceServerDoesNotPanic(t *testing.T) {
	s := grpc.NewServer()
	srv := &fakeCoordinationServer{}

	assert.NotPanics(t, func() {
		RegisterCoordinationServiceServer(s, srv)
	})
}
