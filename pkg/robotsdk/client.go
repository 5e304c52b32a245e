package robotsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the robot SDK configuration.
type Config struct {
	// EdgeURL is this zone's edge coordinator HTTP endpoint (required).
	// Example: "http://edge-7.fleet.local:8080"
	EdgeURL string

	// RobotID identifies this robot.
	RobotID uint64

	// Timeout for a single round trip (default 2s — coordination is a
	// tick-rate operation, not a human-facing one).
	Timeout time.Duration

	// OnReject is called whenever a submitted command is rejected.
	OnReject func(result *CommandResult)

	// OnRollback is stored with the configuration; the client never calls
	// it, since it has no channel on which the edge pushes rollback notices.
	OnRollback func(notice *RollbackNotice)
}

// Client is the robot SDK client. Embed this in a robot controller to
// talk to its zone's edge coordinator.
//
//	client := robotsdk.NewClient(robotsdk.Config{
//	    EdgeURL: "http://edge-7.fleet.local:8080",
//	    RobotID: 42,
//	})
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new robot SDK client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ReportState sends the robot's current pose to the edge coordinator.
func (c *Client) ReportState(ctx context.Context, report StateReport) error {
	report.RobotID = c.config.RobotID
	report.Timestamp = time.Now()
	_, err := c.post(ctx, "/v1/state", report, nil)
	return err
}

// SubmitCommand sends a motion command through the physics validation
// gate and returns its verdict.
func (c *Client) SubmitCommand(ctx context.Context, cmd interface{}) (*CommandResult, error) {
	var result CommandResult
	if _, err := c.post(ctx, "/v1/commands", cmd, &result); err != nil {
		return nil, err
	}
	if result.Outcome == OutcomeReject && c.config.OnReject != nil {
		c.config.OnReject(&result)
	}
	return &result, nil
}

// SubmitBid places a sealed bid on a Voxel-Time-Slot auction.
func (c *Client) SubmitBid(ctx context.Context, vtsID uint64, amount uint64) error {
	req := BidRequest{RobotID: c.config.RobotID, VtsID: vtsID, BidAmount: amount}
	_, err := c.post(ctx, "/v1/bids", req, nil)
	return err
}

// GetTicket polls for the ticket issued to this robot for vtsID, if any.
func (c *Client) GetTicket(ctx context.Context, vtsID uint64) (*TicketResponse, error) {
	url := fmt.Sprintf("%s/v1/tickets?robot_id=%d&vts_id=%d", c.config.EdgeURL, c.config.RobotID, vtsID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("robotsdk: build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("robotsdk: ticket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	var ticket TicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("robotsdk: decode ticket: %w", err)
	}
	return &ticket, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("robotsdk: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.EdgeURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("robotsdk: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Robot-ID", fmt.Sprintf("%d", c.config.RobotID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("robotsdk: edge request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("robotsdk: read response: %w", err)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("robotsdk: parse response: %w", err)
		}
	}
	return respBody, nil
}
