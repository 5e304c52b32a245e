// Package transport streams live DeltaTick frames to observing clients
// (dashboards, simulators) over WebSocket, grounded on the teacher's
// internal/websocket/dag_streamer.go hub pattern (register/unregister/
// broadcast channels feeding a client-set fan-out goroutine).
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ocx/edge-coordinator/internal/spacetime"
)

// DeltaTickFrame is one tick's worth of world-state change, pushed to
// every connected observer.
type DeltaTickFrame struct {
	ZoneID      uint32                  `json:"zone_id"`
	Tick        uint64                  `json:"tick"`
	TimestampNs uint64                  `json:"timestamp_ns"`
	Robots      []spacetime.RobotState  `json:"robots"`
	StateHash   string                  `json:"state_hash"`
}

// Streamer manages WebSocket observers for one zone's DeltaTick feed.
type Streamer struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan DeltaTickFrame
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewStreamer builds a streamer. allowOrigin decides whether to accept a
// WebSocket upgrade from a given request's Origin header.
func NewStreamer(allowOrigin func(*http.Request) bool) *Streamer {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Streamer{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan DeltaTickFrame, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		upgrader:   websocket.Upgrader{CheckOrigin: allowOrigin},
	}
}

// Run drives the streamer's registration and broadcast loop. Call it once
// in its own goroutine.
func (s *Streamer) Run() {
	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.Close()
			}
			s.mu.Unlock()

		case frame := <-s.broadcast:
			data, err := json.Marshal(frame)
			if err != nil {
				slog.Warn("deltatick stream: marshal failed", "error", err)
				continue
			}
			s.mu.RLock()
			for client := range s.clients {
				client.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
					go func(c *websocket.Conn) { s.unregister <- c }(client)
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Publish enqueues frame for broadcast to every connected observer. Drops
// the frame if the broadcast channel is full rather than blocking the
// tick loop on a slow consumer.
func (s *Streamer) Publish(frame DeltaTickFrame) {
	select {
	case s.broadcast <- frame:
	default:
		slog.Warn("deltatick stream: broadcast buffer full, dropping frame", "tick", frame.Tick)
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers it as an
// observer. Observers are read-only: any inbound message is discarded.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("deltatick stream: upgrade failed", "error", err)
		return
	}
	s.register <- conn

	go func() {
		defer func() { s.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
