package pool

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Managed is the type-erased view of a Pool used by Manager.
type Managed interface {
	Name() string
	Stats() Stats
	Shrink() int
	Clear() int
	Start(ctx context.Context)
	Stop()
}

// GlobalStats aggregates counters over all registered pools.
type GlobalStats struct {
	Pools        int
	Active       int
	Available    int
	TotalCreated int
	Reused       int
	Discarded    int
	HitRatio     float64
}

// Manager owns a set of named pools.
type Manager struct {
	mu    sync.RWMutex
	pools map[string]Managed
}

// NewManager creates an empty pool manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[string]Managed)}
}

// Register adds a pool under its name. Names must be unique.
func (m *Manager) Register(p Managed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := p.Name()
	if _, exists := m.pools[name]; exists {
		return fmt.Errorf("pool %q already registered", name)
	}
	m.pools[name] = p

	slog.Debug("pool registered", "pool", name)
	return nil
}

// Get returns a registered pool.
func (m *Manager) Get(name string) (Managed, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[name]
	return p, ok
}

// Names returns registered pool names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.pools))
}

// StartAll starts auto-shrink loops for every pool.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pools {
		p.Start(ctx)
	}
}

// Stats returns per-pool statistics keyed by name.
func (m *Manager) Stats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Stats, len(m.pools))
	for name, p := range m.pools {
		out[name] = p.Stats()
	}
	return out
}

// GlobalStats sums counters over all pools.
func (m *Manager) GlobalStats() GlobalStats {
	var g GlobalStats
	var created int
	for _, s := range m.Stats() {
		g.Pools++
		g.Active += s.Active
		g.Available += s.Available
		g.TotalCreated += s.TotalCreated
		g.Reused += s.Reused
		g.Discarded += s.Discarded
		created += s.Created
	}
	if total := g.Reused + created; total > 0 {
		g.HitRatio = float64(g.Reused) / float64(total)
	}
	return g
}

// Cleanup clears the available list of every pool. In-use objects are untouched.
func (m *Manager) Cleanup() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cleared := 0
	for _, p := range m.pools {
		cleared += p.Clear()
	}
	slog.Debug("pools cleaned up", "cleared", cleared)
	return cleared
}

// Shutdown stops all pools, clears them and forgets the registrations.
// The manager can be reused afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pools {
		p.Stop()
		p.Clear()
	}
	m.pools = make(map[string]Managed)
}
