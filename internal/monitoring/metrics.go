// Package monitoring exposes the edge coordinator's Prometheus metrics,
// grounded on internal/escrow/metrics.go's promauto registration pattern
// (one Metrics struct, one NewMetrics constructor, one Record* method per
// observation site).
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric the edge runtime records.
type Metrics struct {
	CommandsTotal      *prometheus.CounterVec
	CommandLatency     *prometheus.HistogramVec
	RollbacksTotal      *prometheus.CounterVec
	SnapshotCount      prometheus.Gauge
	AuctionsSettled    *prometheus.CounterVec
	AuctionPrice       *prometheus.HistogramVec
	TicketsActive      prometheus.Gauge
	HeartbeatGap       *prometheus.HistogramVec
	FailsafeState      *prometheus.GaugeVec
	HandoffsTotal      *prometheus.CounterVec
	HandoffDuration    *prometheus.HistogramVec
	CircuitBreakerTrip *prometheus.CounterVec
}

// NewMetrics registers every metric in the default Prometheus registry and
// returns them; zone-scoped metrics take their zone_id label per call.
func NewMetrics() *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_commands_total",
				Help: "Total motion commands processed by the command gate, by verdict",
			},
			[]string{"zone_id", "verdict"}, // verdict: ok, adjust, reject
		),
		CommandLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_command_validation_seconds",
				Help:    "Time spent validating one motion command through the physics gate",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
			[]string{"zone_id"},
		),
		RollbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_rollbacks_total",
				Help: "Total rollbacks executed, by triggering reason",
			},
			[]string{"zone_id", "reason"},
		),
		SnapshotCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "edge_snapshot_count",
				Help: "Number of world-state snapshots currently retained",
			},
		),
		AuctionsSettled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_auctions_settled_total",
				Help: "Total Vickrey auctions settled",
			},
			[]string{"zone_id"},
		),
		AuctionPrice: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_auction_winning_price",
				Help:    "Winning (second-price) settlement price per auction",
				Buckets: prometheus.ExponentialBuckets(10, 2, 12),
			},
			[]string{"zone_id"},
		),
		TicketsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "edge_tickets_active",
				Help: "Currently active (unexpired, unrevoked) transit tickets",
			},
		),
		HeartbeatGap: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_heartbeat_gap_seconds",
				Help:    "Observed interval between consecutive heartbeats from a peer edge",
				Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
			},
			[]string{"peer_edge_id"},
		),
		FailsafeState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edge_failsafe_state",
				Help: "Failsafe supervisor state per peer edge (0=healthy,1=degraded,2=unreachable)",
			},
			[]string{"peer_edge_id"},
		),
		HandoffsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_handoffs_total",
				Help: "Total cross-zone handoffs, by outcome",
			},
			[]string{"from_zone", "to_zone", "outcome"}, // outcome: accepted, rejected, timed_out
		),
		HandoffDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_handoff_duration_seconds",
				Help:    "Wall-clock duration of a cross-zone handoff state machine run",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"from_zone", "to_zone"},
		),
		CircuitBreakerTrip: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_circuit_breaker_trips_total",
				Help: "Total times a peer-call circuit breaker opened",
			},
			[]string{"breaker"},
		),
	}
}

func (m *Metrics) RecordCommand(zoneID string, verdict string, seconds float64) {
	m.CommandsTotal.WithLabelValues(zoneID, verdict).Inc()
	m.CommandLatency.WithLabelValues(zoneID).Observe(seconds)
}

func (m *Metrics) RecordRollback(zoneID, reason string) {
	m.RollbacksTotal.WithLabelValues(zoneID, reason).Inc()
}

func (m *Metrics) SetSnapshotCount(n float64) {
	m.SnapshotCount.Set(n)
}

func (m *Metrics) RecordAuctionSettled(zoneID string, price float64) {
	m.AuctionsSettled.WithLabelValues(zoneID).Inc()
	m.AuctionPrice.WithLabelValues(zoneID).Observe(price)
}

func (m *Metrics) SetTicketsActive(n float64) {
	m.TicketsActive.Set(n)
}

func (m *Metrics) RecordHeartbeatGap(peerEdgeID string, seconds float64) {
	m.HeartbeatGap.WithLabelValues(peerEdgeID).Observe(seconds)
}

func (m *Metrics) SetFailsafeState(peerEdgeID string, state float64) {
	m.FailsafeState.WithLabelValues(peerEdgeID).Set(state)
}

func (m *Metrics) RecordHandoff(fromZone, toZone, outcome string, seconds float64) {
	m.HandoffsTotal.WithLabelValues(fromZone, toZone, outcome).Inc()
	m.HandoffDuration.WithLabelValues(fromZone, toZone).Observe(seconds)
}

func (m *Metrics) RecordCircuitBreakerTrip(breaker string) {
	m.CircuitBreakerTrip.WithLabelValues(breaker).Inc()
}
