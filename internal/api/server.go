// Package api exposes a read-only JSON admin surface over a zone's
// EdgeRuntime, grounded on the teacher's internal/api/server.go
// (gorilla/mux router, permissive CORS middleware, JSON handlers backed
// by internal services) but scoped to read-only introspection: nothing
// here mutates runtime state, since all state transitions happen via the
// gRPC coordination surface or a robot's own SDK calls.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ocx/edge-coordinator/internal/coordination"
)

// Server exposes admin JSON endpoints for one zone's EdgeRuntime.
type Server struct {
	runtime    *coordination.EdgeRuntime
	aggregator *coordination.GlobalAggregator
}

// NewServer builds an admin API server over runtime.
func NewServer(runtime *coordination.EdgeRuntime) *Server {
	return &Server{runtime: runtime}
}

// WithAggregator attaches a GlobalAggregator so this zone's admin surface
// can also answer fleet-wide summary queries at /fleet.
func (s *Server) WithAggregator(agg *coordination.GlobalAggregator) *Server {
	s.aggregator = agg
	return s
}

// Router builds the mux.Router serving this zone's admin endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.HandleFunc("/zones/{id}", s.handleZone).Methods(http.MethodGet)
	r.HandleFunc("/zones/{id}/stats", s.handleZoneStats).Methods(http.MethodGet)
	r.HandleFunc("/zones/{id}/validations", s.handleValidations).Methods(http.MethodGet)
	r.HandleFunc("/fleet", s.handleFleet).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	return r
}

// handleFleet reports cross-zone summaries from the attached GlobalAggregator,
// if any. A zone running without one (the common single-zone case) reports
// an empty fleet rather than erroring.
func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		writeJSON(w, map[string]interface{}{"zones": []interface{}{}})
		return
	}
	now := s.runtime.WorldState().TimestampNs
	writeJSON(w, map[string]interface{}{
		"zones":             s.aggregator.Summaries(now),
		"total_robot_count": s.aggregator.TotalRobotCount(now),
	})
}

// zoneMatches reports whether the {id} path variable names this
// runtime's zone; the admin surface serves exactly one zone per process.
func (s *Server) zoneMatches(r *http.Request) bool {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	return err == nil && uint32(id) == s.runtime.ZoneID()
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	if !s.zoneMatches(r) {
		http.Error(w, "unknown zone", http.StatusNotFound)
		return
	}
	world := s.runtime.WorldState()
	writeJSON(w, map[string]interface{}{
		"zone_id":      s.runtime.ZoneID(),
		"current_tick": s.runtime.CurrentTick(),
		"robot_count":  len(world.Robots),
		"healthy_edges": s.runtime.FailsafeManager().HealthyEdgeCount(),
		"total_edges":   s.runtime.FailsafeManager().TotalEdgeCount(),
		"mode":          s.runtime.FailsafeManager().CurrentMode().String(),
	})
}

func (s *Server) handleZoneStats(w http.ResponseWriter, r *http.Request) {
	if !s.zoneMatches(r) {
		http.Error(w, "unknown zone", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"zone_id":         s.runtime.ZoneID(),
		"runtime":         s.runtime.Stats(),
		"snapshot_count":  s.runtime.SnapshotCount(),
		"gate_stats":      s.runtime.Validator().Config(),
	})
}

func (s *Server) handleValidations(w http.ResponseWriter, r *http.Request) {
	if !s.zoneMatches(r) {
		http.Error(w, "unknown zone", http.StatusNotFound)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, s.runtime.Validator().RecentLogs(limit))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
