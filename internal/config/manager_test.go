package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerWithoutZonesFileUsesGlobalOnly(t *testing.T) {
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(masterPath, []byte("zone:\n  zone_id: 1\n"), 0o600))

	m, err := NewManager(masterPath, filepath.Join(dir, "zones-missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m.Zones())

	effective := m.Get("anything")
	assert.Equal(t, uint32(1), effective.Zone.ZoneID)
}

func TestNewManagerMissingMasterReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManager(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "zones.yaml"))
	assert.Error(t, err)
}

func TestManagerGetMergesZoneOverridesOntoGlobal(t *testing.T) {
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(masterPath, []byte(`
zone:
  zone_id: 1
  name: default-zone
physics:
  max_velocity_mps: 2.0
`), 0o600))

	zonesPath := filepath.Join(dir, "zones.yaml")
	require.NoError(t, os.WriteFile(zonesPath, []byte(`
zones:
  staging:
    zone:
      zone_id: 9
      name: staging-zone
    physics:
      max_velocity_mps: 0.5
`), 0o600))

	m, err := NewManager(masterPath, zonesPath)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"staging"}, m.Zones())

	staging := m.Get("staging")
	assert.Equal(t, uint32(9), staging.Zone.ZoneID)
	assert.Equal(t, 0.5, staging.Physics.MaxVelocityMps)

	unknown := m.Get("production")
	assert.Equal(t, uint32(1), unknown.Zone.ZoneID, "an unknown zone profile should fall back to the global config")
}

func TestManagerGetLeavesUnoverriddenSectionsOnGlobal(t *testing.T) {
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(masterPath, []byte(`
economy:
  min_bid: 100
  base_price: 200
sync:
  rollback_threshold: 0.1
`), 0o600))

	zonesPath := filepath.Join(dir, "zones.yaml")
	require.NoError(t, os.WriteFile(zonesPath, []byte(`
zones:
  staging:
    zone:
      zone_id: 9
`), 0o600))

	m, err := NewManager(masterPath, zonesPath)
	require.NoError(t, err)

	staging := m.Get("staging")
	assert.Equal(t, uint64(100), staging.Economy.MinBid, "sections absent from the override should keep the global value")
	assert.Equal(t, 0.1, staging.Sync.RollbackThreshold)
}
