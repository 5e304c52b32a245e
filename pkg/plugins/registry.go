// Package plugins lets a deployment install extra physics.CommandPolicy
// checks into a zone's CommandGate without touching coordination code,
// grounded on the teacher's connector Registry (priority-ordered,
// mutex-guarded plugin list with Register/Unregister/List/Get/Count).
package plugins

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/ocx/edge-coordinator/internal/physics"
)

// GatePolicyPlugin is the interface a deployment-specific policy plugin
// implements. Unlike the gate's built-in checks (kinematic limits, jerk,
// collision), plugins are installed at runtime and ordered by Priority
// the same way the gate's built-in chain is ordered.
//
// Example:
//
//	type NoGoZonePolicy struct{}
//	func (p *NoGoZonePolicy) Name() string { return "no-go-zone" }
//	func (p *NoGoZonePolicy) Version() string { return "1.0.0" }
//	func (p *NoGoZonePolicy) Priority() int { return 10 }
//	func (p *NoGoZonePolicy) Policy() physics.CommandPolicy { return physics.NewCustomPolicy(...) }
type GatePolicyPlugin interface {
	// Name returns the plugin's unique identifier.
	Name() string

	// Version returns the plugin version.
	Version() string

	// Priority determines install order into the gate (lower = checked first).
	Priority() int

	// Policy returns the physics.CommandPolicy this plugin installs.
	Policy() physics.CommandPolicy
}

// PluginInfo describes a registered plugin (for admin API responses).
type PluginInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Priority int    `json:"priority"`
}

// Registry manages gate policy plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins []GatePolicyPlugin
	byName  map[string]GatePolicyPlugin
	logger  *log.Logger
}

// NewRegistry creates a plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make([]GatePolicyPlugin, 0),
		byName:  make(map[string]GatePolicyPlugin),
		logger:  log.New(log.Writer(), "[PLUGINS] ", log.LstdFlags),
	}
}

// Register adds a plugin to the registry.
func (r *Registry) Register(plugin GatePolicyPlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[plugin.Name()]; exists {
		return fmt.Errorf("plugin %q already registered", plugin.Name())
	}

	r.plugins = append(r.plugins, plugin)
	r.byName[plugin.Name()] = plugin

	sort.Slice(r.plugins, func(i, j int) bool {
		return r.plugins[i].Priority() < r.plugins[j].Priority()
	})

	r.logger.Printf("registered gate policy plugin: %s v%s (priority=%d)",
		plugin.Name(), plugin.Version(), plugin.Priority())
	return nil
}

// Unregister removes a plugin.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byName, name)
	filtered := make([]GatePolicyPlugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		if p.Name() != name {
			filtered = append(filtered, p)
		}
	}
	r.plugins = filtered
}

// InstallInto adds every registered plugin's policy to gate, in priority
// order, after whatever policies the caller already added.
func (r *Registry) InstallInto(gate *physics.CommandGate) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		gate.AddPolicy(p.Policy())
	}
}

// List returns info about all registered plugins.
func (r *Registry) List() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		infos = append(infos, PluginInfo{Name: p.Name(), Version: p.Version(), Priority: p.Priority()})
	}
	return infos
}

// Get returns a specific plugin by name.
func (r *Registry) Get(name string) (GatePolicyPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
