package config

import (
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

// ZonesConfig holds a map of per-zone overrides, keyed by zone name, layered
// on top of the global Config when a given edge node serves more than one
// zone profile (e.g. a staging zone with relaxed kinematic limits).
type ZonesConfig struct {
	Zones map[string]Config `yaml:"zones"`
}

// Manager handles dynamic, per-zone configuration resolution.
type Manager struct {
	globalConfig *Config
	zoneConfigs  map[string]Config
	mu           sync.RWMutex
}

// NewManager loads both the master config and the per-zone overrides file.
func NewManager(masterPath, zonesPath string) (*Manager, error) {
	master, err := LoadConfig(masterPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(zonesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manager{globalConfig: master, zoneConfigs: make(map[string]Config)}, nil
		}
		return nil, err
	}
	defer f.Close()

	var zc ZonesConfig
	if err := yaml.NewDecoder(f).Decode(&zc); err != nil {
		return nil, err
	}

	return &Manager{
		globalConfig: master,
		zoneConfigs:  zc.Zones,
	}, nil
}

// Get returns the effective config for a named zone profile, merging that
// zone's overrides on top of the global config.
func (m *Manager) Get(zoneName string) *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	effective := *m.globalConfig

	override, ok := m.zoneConfigs[zoneName]
	if !ok {
		return &effective
	}

	if override.Zone.ZoneID != 0 || override.Zone.Name != "" {
		effective.Zone = override.Zone
	}
	if override.Physics.MaxVelocityMps != 0 {
		effective.Physics = override.Physics
	}
	if override.Economy.MinBid != 0 || override.Economy.BasePrice != 0 {
		effective.Economy = override.Economy
	}
	if override.Sync.RollbackThreshold != 0 {
		effective.Sync = override.Sync
	}
	if override.Failsafe.HeartbeatTimeoutMs != 0 {
		effective.Failsafe = override.Failsafe
	}
	if override.Handoff.TriggerDistanceM != 0 {
		effective.Handoff = override.Handoff
	}
	if len(override.Peers) > 0 {
		effective.Peers = override.Peers
	}

	return &effective
}

// Zones lists the zone profile names known to this manager.
func (m *Manager) Zones() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.zoneConfigs))
	for name := range m.zoneConfigs {
		names = append(names, name)
	}
	return names
}
