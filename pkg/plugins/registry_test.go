package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/edge-coordinator/internal/physics"
)

type fakePlugin struct {
	name     string
	priority int
}

func (p *fakePlugin) Name() string     { return p.name }
func (p *fakePlugin) Version() string  { return "1.0.0" }
func (p *fakePlugin) Priority() int    { return p.priority }
func (p *fakePlugin) Policy() physics.CommandPolicy {
	return physics.NewCustomPolicy(p.name, nil, nil)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{name: "a", priority: 1}))

	err := r.Register(&fakePlugin{name: "a", priority: 2})
	assert.Error(t, err)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryOrdersByPriority(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{name: "low-priority", priority: 10}))
	require.NoError(t, r.Register(&fakePlugin{name: "high-priority", priority: 1}))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "high-priority", list[0].Name)
	assert.Equal(t, "low-priority", list[1].Name)
}

func TestRegistryUnregisterRemovesPlugin(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{name: "a", priority: 1}))

	r.Unregister("a")

	assert.Equal(t, 0, r.Count())
	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistryInstallIntoAddsEveryPolicy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePlugin{name: "a", priority: 1}))
	require.NoError(t, r.Register(&fakePlugin{name: "b", priority: 2}))

	gate := physics.NewCommandGate()
	r.InstallInto(gate)

	assert.Equal(t, 2, gate.Stats().PolicyCount)
}
