// Package cache implements the asset/data caches used during battle setup:
// a single-tier Cache with pluggable eviction and a two-tier MultiLevel cache.
package cache

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrInvalidConfig is returned by New for bad limits or an unknown strategy.
var ErrInvalidConfig = errors.New("invalid cache config")

// Config holds limits and the eviction strategy.
type Config struct {
	Name       string        `yaml:"name"`
	MaxEntries int           `yaml:"max_entries"`
	MaxMemory  int64         `yaml:"max_memory"` // bytes, 0 = unlimited
	DefaultTTL time.Duration `yaml:"default_ttl"`
	Strategy   Strategy      `yaml:"strategy"`
}

// Validate checks limits and strategy.
func (c Config) Validate() error {
	if c.MaxEntries < 1 {
		return fmt.Errorf("%w %q: max entries %d < 1", ErrInvalidConfig, c.Name, c.MaxEntries)
	}
	if c.MaxMemory < 0 || c.DefaultTTL < 0 {
		return fmt.Errorf("%w %q: negative limit", ErrInvalidConfig, c.Name)
	}
	if _, err := evictorFor(c.Strategy); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidConfig, c.Name, err)
	}
	return nil
}

// EvictReason tells an eviction listener why an entry left the cache.
type EvictReason uint8

const (
	EvictCapacity EvictReason = iota + 1
	EvictExpired
)

// Entry is a cached value with bookkeeping. Owned by the cache.
type Entry struct {
	Key        string
	Value      any
	Size       int64
	CreatedAt  time.Time
	AccessedAt time.Time
	ExpiresAt  time.Time // zero = no expiry
	Hits       int
}

func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// remainingTTL returns the TTL left for re-insertion into another tier.
func (e *Entry) remainingTTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

// Stats is a snapshot of cache counters.
// Hits + Misses always equals the number of Get calls.
type Stats struct {
	Name        string
	Entries     int
	Memory      int64
	Hits        int
	Misses      int
	Sets        int
	Evictions   int
	Expirations int
	HitRatio    float64
}

type evicted struct {
	entry  *Entry
	reason EvictReason
}

// Cache is a bounded key-value cache. Safe for concurrent use.
type Cache struct {
	cfg     Config
	evictor evictor
	now     func() time.Time
	onEvict func(e *Entry, reason EvictReason)

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	memory  int64

	hits        int
	misses      int
	sets        int
	evictions   int
	expirations int
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithEvictListener registers a callback for evicted entries.
// The callback runs after the cache lock is released.
func WithEvictListener(fn func(e *Entry, reason EvictReason)) Option {
	return func(c *Cache) { c.onEvict = fn }
}

// New creates a cache.
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyLRU
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ev, _ := evictorFor(cfg.Strategy)
	c := &Cache{
		cfg:     cfg,
		evictor: ev,
		now:     time.Now,
		entries: make(map[string]*list.Element, cfg.MaxEntries),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the configured cache name.
func (c *Cache) Name() string {
	return c.cfg.Name
}

// Get returns the value for key. Expired entries are removed and count as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	now := c.now()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	e := el.Value.(*Entry)
	if e.expired(now) {
		c.removeLocked(el)
		c.expirations++
		c.misses++
		c.mu.Unlock()
		c.notify([]evicted{{entry: e, reason: EvictExpired}})
		return nil, false
	}

	e.AccessedAt = now
	e.Hits++
	c.order.MoveToFront(el)
	c.hits++
	v := e.Value
	c.mu.Unlock()
	return v, true
}

// Peek returns the value without touching recency or counters.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*Entry)
	if e.expired(c.now()) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key. ttl 0 means the configured default TTL.
// After Set returns, entry count and memory are within configured limits.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	now := c.now()
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	size := SizeOf(value)

	var el *list.Element
	if existing, ok := c.entries[key]; ok {
		e := existing.Value.(*Entry)
		c.memory += size - e.Size
		e.Value = value
		e.Size = size
		e.AccessedAt = now
		e.ExpiresAt = expiry(now, ttl)
		c.order.MoveToFront(existing)
		el = existing
	} else {
		e := &Entry{
			Key:        key,
			Value:      value,
			Size:       size,
			CreatedAt:  now,
			AccessedAt: now,
			ExpiresAt:  expiry(now, ttl),
		}
		el = c.order.PushFront(e)
		c.entries[key] = el
		c.memory += size
	}
	c.sets++

	gone := c.enforceLimitsLocked(now, el)
	c.mu.Unlock()
	c.notify(gone)
}

// SetMultiple stores every pair with the same TTL.
func (c *Cache) SetMultiple(values map[string]any, ttl time.Duration) {
	for k, v := range values {
		c.Set(k, v, ttl)
	}
}

// GetMultiple returns found values keyed by key. Each key counts as one Get.
func (c *Cache) GetMultiple(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// Delete removes key. Not counted as an eviction.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(el)
	return true
}

// PurgeExpired drops all expired entries and returns how many were removed.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	now := c.now()
	var gone []evicted
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*Entry)
		if e.expired(now) {
			c.removeLocked(el)
			c.expirations++
			gone = append(gone, evicted{entry: e, reason: EvictExpired})
		}
		el = prev
	}
	c.mu.Unlock()
	c.notify(gone)
	return len(gone)
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.cfg.MaxEntries)
	c.order.Init()
	c.memory = 0
}

// ResetStats zeroes hit/miss/eviction counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.sets, c.evictions, c.expirations = 0, 0, 0, 0, 0
}

// Len returns the number of stored entries (expired ones included until purged).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Name:        c.cfg.Name,
		Entries:     len(c.entries),
		Memory:      c.memory,
		Hits:        c.hits,
		Misses:      c.misses,
		Sets:        c.sets,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRatio = float64(c.hits) / float64(total)
	}
	return s
}

// enforceLimitsLocked evicts until count and memory fit. The just-written
// element is only chosen when it is the last entry left.
func (c *Cache) enforceLimitsLocked(now time.Time, written *list.Element) []evicted {
	var gone []evicted
	for c.overLimitLocked() {
		victim := c.evictor.victim(c.order, now, written)
		if victim == nil {
			victim = written
		}
		e := victim.Value.(*Entry)
		c.removeLocked(victim)

		reason := EvictCapacity
		if e.expired(now) {
			reason = EvictExpired
			c.expirations++
		} else {
			c.evictions++
		}
		gone = append(gone, evicted{entry: e, reason: reason})

		if victim == written {
			break
		}
	}
	if len(gone) > 0 {
		slog.Debug("cache evicted entries",
			"cache", c.cfg.Name,
			"count", len(gone),
			"entries", len(c.entries),
			"memory", c.memory)
	}
	return gone
}

func (c *Cache) overLimitLocked() bool {
	if len(c.entries) > c.cfg.MaxEntries {
		return true
	}
	return c.cfg.MaxMemory > 0 && c.memory > c.cfg.MaxMemory
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*Entry)
	c.order.Remove(el)
	delete(c.entries, e.Key)
	c.memory -= e.Size
}

func (c *Cache) notify(gone []evicted) {
	if c.onEvict == nil {
		return
	}
	for _, g := range gone {
		c.onEvict(g.entry, g.reason)
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
