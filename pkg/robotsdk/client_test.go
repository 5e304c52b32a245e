package robotsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStateSendsRobotIDAndTimestamp(t *testing.T) {
	var gotReport StateReport
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Robot-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReport))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{EdgeURL: server.URL, RobotID: 42})
	err := client.ReportState(context.Background(), StateReport{PositionX: 1.5})

	require.NoError(t, err)
	assert.Equal(t, "42", gotHeader)
	assert.Equal(t, uint64(42), gotReport.RobotID)
	assert.False(t, gotReport.Timestamp.IsZero())
}

func TestSubmitCommandInvokesOnRejectForRejectedOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CommandResult{Outcome: OutcomeReject, Reason: "collision"})
	}))
	defer server.Close()

	var rejected *CommandResult
	client := NewClient(Config{
		EdgeURL: server.URL,
		RobotID: 1,
		OnReject: func(r *CommandResult) {
			rejected = r
		},
	})

	result, err := client.SubmitCommand(context.Background(), map[string]any{"velocity_x": 5})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReject, result.Outcome)
	require.NotNil(t, rejected)
	assert.Equal(t, "collision", rejected.Reason)
}

func TestSubmitCommandDoesNotInvokeOnRejectWhenAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CommandResult{Outcome: OutcomeOK})
	}))
	defer server.Close()

	called := false
	client := NewClient(Config{
		EdgeURL:  server.URL,
		RobotID:  1,
		OnReject: func(*CommandResult) { called = true },
	})

	_, err := client.SubmitCommand(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestSubmitBidPostsBidRequest(t *testing.T) {
	var got BidRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{EdgeURL: server.URL, RobotID: 7})
	err := client.SubmitBid(context.Background(), 999, 500)

	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.RobotID)
	assert.Equal(t, uint64(999), got.VtsID)
	assert.Equal(t, uint64(500), got.BidAmount)
}

func TestGetTicketReturnsNilOnNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{EdgeURL: server.URL, RobotID: 1})
	ticket, err := client.GetTicket(context.Background(), 1)

	require.NoError(t, err)
	assert.Nil(t, ticket)
}

func TestGetTicketDecodesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "robot_id=5")
		json.NewEncoder(w).Encode(TicketResponse{TicketID: "tix-1", RobotID: 5, VtsIDs: []uint64{10}})
	}))
	defer server.Close()

	client := NewClient(Config{EdgeURL: server.URL, RobotID: 5})
	ticket, err := client.GetTicket(context.Background(), 10)

	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "tix-1", ticket.TicketID)
	assert.Equal(t, []uint64{10}, ticket.VtsIDs)
}

func TestNewClientDefaultsTimeout(t *testing.T) {
	client := NewClient(Config{EdgeURL: "http://example.invalid", RobotID: 1})
	assert.Equal(t, 2_000_000_000, int(client.httpClient.Timeout))
}
