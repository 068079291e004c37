package cache

import (
	"fmt"
	"sync"
	"time"
)

// MultiLevelConfig configures both tiers.
type MultiLevelConfig struct {
	Name string `yaml:"name"`
	L1   Config `yaml:"l1"`
	L2   Config `yaml:"l2"`
}

// DefaultMultiLevelConfig returns a small LRU L1 in front of a larger adaptive L2.
func DefaultMultiLevelConfig(name string) MultiLevelConfig {
	return MultiLevelConfig{
		Name: name,
		L1: Config{
			Name:       name + ".l1",
			MaxEntries: 64,
			MaxMemory:  4 << 20,
			DefaultTTL: 5 * time.Minute,
			Strategy:   StrategyLRU,
		},
		L2: Config{
			Name:       name + ".l2",
			MaxEntries: 512,
			MaxMemory:  32 << 20,
			DefaultTTL: 30 * time.Minute,
			Strategy:   StrategyAdaptive,
		},
	}
}

// MultiLevelStats reports per-tier and combined counters.
// L1Hits + L2Hits + Misses == Gets.
//
// Evictions counts entries dropped from the whole hierarchy, i.e. L2
// capacity evictions. L1 capacity evictions are demoted rather than
// dropped; they show up in L1Evictions and Demotions.
type MultiLevelStats struct {
	Name        string
	L1          Stats
	L2          Stats
	Gets        int
	L1Hits      int
	L2Hits      int
	Misses      int
	Promotions  int
	Demotions   int
	Evictions   int
	L1Evictions int
	HitRatio    float64
	L1HitRatio  float64
	L2HitRatio  float64
}

// MultiLevel is a fast L1 backed by a larger L2.
//
// Writes go to L1 only. L2 is fed by L1 capacity evictions; an L2 hit moves
// the entry back into L1.
type MultiLevel struct {
	name string
	l1   *Cache
	l2   *Cache

	mu         sync.Mutex
	gets       int
	l1Hits     int
	l2Hits     int
	misses     int
	promotions int
	demotions  int
}

// NewMultiLevel creates both tiers. opts apply to both.
func NewMultiLevel(cfg MultiLevelConfig, opts ...Option) (*MultiLevel, error) {
	if cfg.L1.Strategy == "" {
		cfg.L1.Strategy = StrategyLRU
	}
	if cfg.L2.Strategy == "" {
		cfg.L2.Strategy = StrategyAdaptive
	}

	m := &MultiLevel{name: cfg.Name}

	l2, err := New(cfg.L2, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating L2 of %s: %w", cfg.Name, err)
	}
	m.l2 = l2

	l1Opts := append(append([]Option{}, opts...), WithEvictListener(m.demote))
	l1, err := New(cfg.L1, l1Opts...)
	if err != nil {
		return nil, fmt.Errorf("creating L1 of %s: %w", cfg.Name, err)
	}
	m.l1 = l1

	return m, nil
}

// Name returns the configured name.
func (m *MultiLevel) Name() string {
	return m.name
}

// Get checks L1, then L2. An L2 hit is promoted into L1.
func (m *MultiLevel) Get(key string) (any, bool) {
	if v, ok := m.l1.Get(key); ok {
		m.count(func() { m.l1Hits++ })
		return v, true
	}

	v, ttl, ok := m.takeFromL2(key)
	if !ok {
		m.count(func() { m.misses++ })
		return nil, false
	}

	m.count(func() {
		m.l2Hits++
		m.promotions++
	})
	m.l1.Set(key, v, ttl)
	return v, true
}

// takeFromL2 reads key from L2 and removes it so the value lives in one tier.
func (m *MultiLevel) takeFromL2(key string) (any, time.Duration, bool) {
	v, ok := m.l2.Get(key)
	if !ok {
		return nil, 0, false
	}
	var ttl time.Duration
	m.l2.mu.Lock()
	if el, found := m.l2.entries[key]; found {
		e := el.Value.(*Entry)
		ttl = e.remainingTTL(m.l2.now())
		m.l2.removeLocked(el)
	}
	m.l2.mu.Unlock()
	return v, ttl, true
}

// Set writes to L1 only and drops any stale L2 copy.
func (m *MultiLevel) Set(key string, value any, ttl time.Duration) {
	m.l2.Delete(key)
	m.l1.Set(key, value, ttl)
}

// SetMultiple writes every pair to L1.
func (m *MultiLevel) SetMultiple(values map[string]any, ttl time.Duration) {
	for k, v := range values {
		m.Set(k, v, ttl)
	}
}

// GetMultiple returns found values. Each key counts as one Get.
func (m *MultiLevel) GetMultiple(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// Delete removes key from both tiers.
func (m *MultiLevel) Delete(key string) bool {
	a := m.l1.Delete(key)
	b := m.l2.Delete(key)
	return a || b
}

// Clear empties both tiers.
func (m *MultiLevel) Clear() {
	m.l1.Clear()
	m.l2.Clear()
}

// Stats returns combined counters.
func (m *MultiLevel) Stats() MultiLevelStats {
	l1 := m.l1.Stats()
	l2 := m.l2.Stats()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := MultiLevelStats{
		Name:        m.name,
		L1:          l1,
		L2:          l2,
		Gets:        m.gets,
		L1Hits:      m.l1Hits,
		L2Hits:      m.l2Hits,
		Misses:      m.misses,
		Promotions:  m.promotions,
		Demotions:   m.demotions,
		Evictions:   l2.Evictions,
		L1Evictions: l1.Evictions,
	}
	if m.gets > 0 {
		s.HitRatio = float64(m.l1Hits+m.l2Hits) / float64(m.gets)
		s.L1HitRatio = float64(m.l1Hits) / float64(m.gets)
		s.L2HitRatio = float64(m.l2Hits) / float64(m.gets)
	}
	return s
}

func (m *MultiLevel) count(fn func()) {
	m.mu.Lock()
	m.gets++
	fn()
	m.mu.Unlock()
}

// demote receives L1 evictions. Expired entries are dropped, the rest go to L2.
func (m *MultiLevel) demote(e *Entry, reason EvictReason) {
	if reason != EvictCapacity {
		return
	}
	now := time.Now()
	if m.l1 != nil {
		now = m.l1.now()
	}
	ttl := e.remainingTTL(now)
	if !e.ExpiresAt.IsZero() && ttl <= 0 {
		return
	}
	m.l2.Set(e.Key, e.Value, ttl)

	m.mu.Lock()
	m.demotions++
	m.mu.Unlock()
}
