// Package coordination implements the L5 failsafe/cross-zone-handoff
// subsystem and the edge runtime that composes every lower layer into one
// per-zone control loop.
package coordination

// EdgeStatus is one peer edge node's heartbeat-derived health.
type EdgeStatus int

const (
	EdgeHealthy EdgeStatus = iota
	EdgeDegraded
	EdgeUnresponsive
	EdgeFailed
)

func (s EdgeStatus) String() string {
	switch s {
	case EdgeHealthy:
		return "Healthy"
	case EdgeDegraded:
		return "Degraded"
	case EdgeUnresponsive:
		return "Unresponsive"
	case EdgeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// OperationMode is the zone-wide operating mode the failsafe manager
// derives from peer health.
type OperationMode int

const (
	ModeNormal OperationMode = iota
	ModeDegraded
	ModeEmergency
)

func (m OperationMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeDegraded:
		return "Degraded"
	case ModeEmergency:
		return "Emergency"
	default:
		return "Unknown"
	}
}

// FailsafeActionKind tags the failsafe manager's decided response.
type FailsafeActionKind int

const (
	ActionNone FailsafeActionKind = iota
	ActionEnableDegradedMode
	ActionEmergencyDeceleration
	ActionEmergencyStop
	ActionEdgeHandover
	ActionZoneIsolation
)

// FailsafeAction is the failsafe manager's decision for the current tick.
type FailsafeAction struct {
	Kind        FailsafeActionKind
	SpeedFactor float32
	TargetSpeed float32
	FromEdge    uint32
	ToEdge      uint32
	ZoneID      uint32
}

// FailsafeConfig tunes heartbeat timeout thresholds and degraded-mode response.
type FailsafeConfig struct {
	HeartbeatTimeoutMs    uint64
	MaxRetries            uint32
	DegradedSpeedFactor   float32
	EmergencyStopDistance float32
}

func DefaultFailsafeConfig() FailsafeConfig {
	return FailsafeConfig{HeartbeatTimeoutMs: 100, MaxRetries: 3, DegradedSpeedFactor: 0.5, EmergencyStopDistance: 0.2}
}

type edgeStatusInfo struct {
	status               EdgeStatus
	lastHeartbeatNs      uint64
	consecutiveFailures  uint32
}

// FailsafeManager supervises peer edge nodes via heartbeats and derives a
// zone-wide operation mode and response action, grounded on
// sap-network/src/failsafe/manager.rs. Peer identity is authenticated
// separately by internal/identity (SPIFFE mTLS on the gRPC transport)
// before a heartbeat reaches here.
type FailsafeManager struct {
	config      FailsafeConfig
	zoneID      uint32
	edges       map[uint32]*edgeStatusInfo
	currentMode OperationMode
}

func NewFailsafeManager(zoneID uint32, config FailsafeConfig) *FailsafeManager {
	return &FailsafeManager{config: config, zoneID: zoneID, edges: make(map[uint32]*edgeStatusInfo), currentMode: ModeNormal}
}

func NewDefaultFailsafeManager(zoneID uint32) *FailsafeManager {
	return NewFailsafeManager(zoneID, DefaultFailsafeConfig())
}

// RegisterEdge adds edgeID as a supervised peer, initially Healthy.
func (m *FailsafeManager) RegisterEdge(edgeID uint32) {
	m.edges[edgeID] = &edgeStatusInfo{status: EdgeHealthy}
}

// ReceiveHeartbeat resets edgeID's failure tracking on a fresh heartbeat.
func (m *FailsafeManager) ReceiveHeartbeat(edgeID uint32, timestampNs uint64) {
	info, ok := m.edges[edgeID]
	if !ok {
		return
	}
	info.lastHeartbeatNs = timestampNs
	info.consecutiveFailures = 0
	info.status = EdgeHealthy
}

// CheckAndDecide recomputes every registered edge's status from elapsed
// heartbeat time and returns the zone-wide action: >1 Failed edge escalates
// to EmergencyStop; any unhealthy edge degrades to EnableDegradedMode;
// otherwise Normal/None.
func (m *FailsafeManager) CheckAndDecide(currentTimeNs uint64) FailsafeAction {
	timeoutNs := m.config.HeartbeatTimeoutMs * 1_000_000
	unhealthyCount := 0
	failedCount := 0

	for _, info := range m.edges {
		elapsed := uint64(0)
		if currentTimeNs > info.lastHeartbeatNs {
			elapsed = currentTimeNs - info.lastHeartbeatNs
		}

		switch {
		case elapsed > timeoutNs*3:
			info.status = EdgeFailed
			failedCount++
			unhealthyCount++
		case elapsed > timeoutNs*2:
			info.status = EdgeUnresponsive
			unhealthyCount++
		case elapsed > timeoutNs:
			info.status = EdgeDegraded
		default:
			info.status = EdgeHealthy
		}
	}

	switch {
	case failedCount > 1:
		m.currentMode = ModeEmergency
		return FailsafeAction{Kind: ActionEmergencyStop}
	case unhealthyCount > 0:
		m.currentMode = ModeDegraded
		return FailsafeAction{Kind: ActionEnableDegradedMode, SpeedFactor: m.config.DegradedSpeedFactor}
	default:
		m.currentMode = ModeNormal
		return FailsafeAction{Kind: ActionNone}
	}
}

// ReportEdgeFailure records an explicit (non-heartbeat-derived) failure
// for edgeID, marking it Failed once consecutive failures reach MaxRetries.
func (m *FailsafeManager) ReportEdgeFailure(edgeID uint32) {
	info, ok := m.edges[edgeID]
	if !ok {
		return
	}
	info.consecutiveFailures++
	if info.consecutiveFailures >= m.config.MaxRetries {
		info.status = EdgeFailed
	}
}

// EmergencyStop forces Emergency mode regardless of heartbeat state.
func (m *FailsafeManager) EmergencyStop() FailsafeAction {
	m.currentMode = ModeEmergency
	return FailsafeAction{Kind: ActionEmergencyStop}
}

// RecoverToNormal resets the operation mode without touching edge status.
func (m *FailsafeManager) RecoverToNormal() { m.currentMode = ModeNormal }

func (m *FailsafeManager) CurrentMode() OperationMode { return m.currentMode }

func (m *FailsafeManager) GetEdgeStatus(edgeID uint32) (EdgeStatus, bool) {
	info, ok := m.edges[edgeID]
	if !ok {
		return 0, false
	}
	return info.status, true
}

func (m *FailsafeManager) HealthyEdgeCount() int {
	count := 0
	for _, info := range m.edges {
		if info.status == EdgeHealthy {
			count++
		}
	}
	return count
}

func (m *FailsafeManager) TotalEdgeCount() int { return len(m.edges) }
func (m *FailsafeManager) ZoneID() uint32      { return m.zoneID }
