// Package pool amortizes allocation of short-lived battle objects
// such as projectiles through acquire/release recycling.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// ErrInvalidConfig is returned by New for bad sizes or a nil factory.
var ErrInvalidConfig = errors.New("invalid pool config")

// Poolable is implemented by every pooled object.
type Poolable interface {
	// Reset clears per-use state before the object returns to the pool.
	Reset()
	InUse() bool
	MarkInUse()
	MarkAvailable()
}

// Item is the constraint for pooled types. Pointers satisfy comparable.
type Item interface {
	comparable
	Poolable
}

// Config holds pool sizing and auto-shrink settings.
type Config struct {
	Name            string        `yaml:"name"`
	InitialSize     int           `yaml:"initial_size"`
	MaxSize         int           `yaml:"max_size"`
	ShrinkInterval  time.Duration `yaml:"shrink_interval"`  // 0 disables auto-shrink
	ShrinkThreshold float64       `yaml:"shrink_threshold"` // active/total ratio below which the pool shrinks
}

// DefaultConfig returns a pool config with sane sizes.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		InitialSize:     10,
		MaxSize:         100,
		ShrinkInterval:  30 * time.Second,
		ShrinkThreshold: 0.25,
	}
}

// Validate checks size relations.
func (c Config) Validate() error {
	switch {
	case c.InitialSize < 0:
		return fmt.Errorf("%w %q: initial size %d < 0", ErrInvalidConfig, c.Name, c.InitialSize)
	case c.MaxSize < 1:
		return fmt.Errorf("%w %q: max size %d < 1", ErrInvalidConfig, c.Name, c.MaxSize)
	case c.InitialSize > c.MaxSize:
		return fmt.Errorf("%w %q: initial size %d > max size %d", ErrInvalidConfig, c.Name, c.InitialSize, c.MaxSize)
	case c.ShrinkThreshold < 0 || c.ShrinkThreshold > 1:
		return fmt.Errorf("%w %q: shrink threshold %.2f out of [0,1]", ErrInvalidConfig, c.Name, c.ShrinkThreshold)
	}
	return nil
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Name         string
	Active       int
	Available    int
	TotalCreated int // every factory call, prewarm included
	Created      int // factory calls made by Acquire (pool misses)
	Reused       int
	Discarded    int // released objects dropped because the pool was full
	PeakActive   int
	Shrinks      int
	HitRatio     float64
}

// Pool recycles objects of type T.
//
// MaxSize is a soft limit for Acquire (the pool logs and still constructs)
// and a hard limit for the available list on Release.
type Pool[T Item] struct {
	cfg     Config
	factory func() T

	mu        sync.Mutex
	available []T
	active    map[T]struct{}

	totalCreated int
	created      int
	reused       int
	discarded    int
	peakActive   int
	shrinks      int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a pool and prewarms it with cfg.InitialSize objects.
func New[T Item](factory func() T, cfg Config) (*Pool[T], error) {
	if factory == nil {
		return nil, fmt.Errorf("%w %q: nil factory", ErrInvalidConfig, cfg.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pool[T]{
		cfg:       cfg,
		factory:   factory,
		available: make([]T, 0, cfg.MaxSize),
		active:    make(map[T]struct{}, cfg.InitialSize),
		stopCh:    make(chan struct{}),
	}
	p.Prewarm(cfg.InitialSize)
	return p, nil
}

// Name returns the configured pool name.
func (p *Pool[T]) Name() string {
	return p.cfg.Name
}

// Prewarm adds up to n fresh objects to the available list (bounded by MaxSize).
func (p *Pool[T]) Prewarm(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for range n {
		if len(p.available) >= p.cfg.MaxSize {
			break
		}
		obj := p.factory()
		obj.MarkAvailable()
		p.available = append(p.available, obj)
		p.totalCreated++
		added++
	}
	return added
}

// Acquire returns an object marked in use, reusing an available one when possible.
func (p *Pool[T]) Acquire() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	var obj T
	if n := len(p.available); n > 0 {
		obj = p.available[n-1]
		var zero T
		p.available[n-1] = zero
		p.available = p.available[:n-1]
		p.reused++
	} else {
		if len(p.active)+1 > p.cfg.MaxSize {
			slog.Warn("pool exceeds max size",
				"pool", p.cfg.Name,
				"active", len(p.active)+1,
				"maxSize", p.cfg.MaxSize)
		}
		obj = p.factory()
		p.totalCreated++
		p.created++
	}

	obj.MarkInUse()
	p.active[obj] = struct{}{}
	if len(p.active) > p.peakActive {
		p.peakActive = len(p.active)
	}
	return obj
}

// Release returns obj to the pool. Objects not currently active in this pool are ignored.
func (p *Pool[T]) Release(obj T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.active[obj]; !ok {
		slog.Warn("release of object not active in pool", "pool", p.cfg.Name)
		return false
	}
	delete(p.active, obj)

	obj.Reset()
	obj.MarkAvailable()

	if len(p.available) < p.cfg.MaxSize {
		p.available = append(p.available, obj)
	} else {
		p.discarded++
	}
	return true
}

// Shrink trims the available list when usage is low.
// The available list never drops below InitialSize. Returns the number of objects dropped.
func (p *Pool[T]) Shrink() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	active := len(p.active)
	total := active + len(p.available)
	if total == 0 {
		return 0
	}
	usage := float64(active) / float64(total)
	if usage >= p.cfg.ShrinkThreshold || len(p.available) <= p.cfg.InitialSize {
		return 0
	}

	// keep headroom of half the current active count
	target := max(p.cfg.InitialSize, int(math.Ceil(float64(active)*1.5)))
	if target >= len(p.available) {
		return 0
	}

	dropped := len(p.available) - target
	var zero T
	for i := target; i < len(p.available); i++ {
		p.available[i] = zero
	}
	p.available = p.available[:target]
	p.shrinks++

	slog.Debug("pool shrunk",
		"pool", p.cfg.Name,
		"dropped", dropped,
		"available", target,
		"active", active)
	return dropped
}

// Start launches the auto-shrink loop. Runs until ctx is canceled or Stop is called.
// Does nothing when ShrinkInterval is 0.
func (p *Pool[T]) Start(ctx context.Context) {
	if p.cfg.ShrinkInterval <= 0 {
		return
	}
	p.wg.Add(1)
	go p.run(ctx)
}

func (p *Pool[T]) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ShrinkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Shrink()
		}
	}
}

// Stop terminates the auto-shrink loop and waits for it to exit. Safe to call twice.
func (p *Pool[T]) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// Clear drops all available objects. Active objects are not affected.
func (p *Pool[T]) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.available)
	clear(p.available)
	p.available = p.available[:0]
	return n
}

// HitRatio returns reused / (reused + created on acquire).
func (p *Pool[T]) HitRatio() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hitRatioLocked()
}

func (p *Pool[T]) hitRatioLocked() float64 {
	total := p.reused + p.created
	if total == 0 {
		return 0
	}
	return float64(p.reused) / float64(total)
}

// Stats returns a snapshot of pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Name:         p.cfg.Name,
		Active:       len(p.active),
		Available:    len(p.available),
		TotalCreated: p.totalCreated,
		Created:      p.created,
		Reused:       p.reused,
		Discarded:    p.discarded,
		PeakActive:   p.peakActive,
		Shrinks:      p.shrinks,
		HitRatio:     p.hitRatioLocked(),
	}
}
