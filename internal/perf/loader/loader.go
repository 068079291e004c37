// Package loader implements lazy, priority-ordered resource loading with a
// bounded number of concurrent fetches and a memory budget.
package loader

//go:generate go tool mockgen -destination=./mocks/fetcher_mock.go -package=mocks . Fetcher

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrInvalidResource = errors.New("invalid resource")
	ErrDependencyCycle = errors.New("dependency cycle")
	ErrClosed          = errors.New("loader closed")
	ErrInvalidConfig   = errors.New("invalid loader config")
)

// Request priorities. Higher loads first.
const (
	PriorityLow    = 0
	PriorityNormal = 50
	PriorityHigh   = 100
)

// Type tags what kind of asset a resource is.
type Type string

const (
	TypeImage Type = "image"
	TypeAudio Type = "audio"
	TypeData  Type = "data"
	TypeScene Type = "scene"
)

// Resource describes a loadable asset. Size is in bytes.
type Resource struct {
	ID       string
	Type     Type
	Path     string
	Priority int
	Size     int64
	Deps     []string
}

// Fetcher performs the actual I/O for a resource.
type Fetcher interface {
	Fetch(ctx context.Context, r Resource) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, r Resource) (any, error)

// Fetch calls f(ctx, r).
func (f FetcherFunc) Fetch(ctx context.Context, r Resource) (any, error) {
	return f(ctx, r)
}

// Config holds loader limits.
type Config struct {
	MaxConcurrentLoads int           `yaml:"max_concurrent_loads"`
	MemoryThreshold    int64         `yaml:"memory_threshold"` // bytes, 0 = unlimited
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
	LoadTimeout        time.Duration `yaml:"load_timeout"`
	DependencyBoost    int           `yaml:"dependency_boost"`
}

// DefaultConfig returns the limits used by the simulator.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentLoads: 4,
		MemoryThreshold:    256 << 20,
		RequestTimeout:     10 * time.Second,
		BatchTimeout:       30 * time.Second,
		LoadTimeout:        15 * time.Second,
		DependencyBoost:    10,
	}
}

// Validate checks limits.
func (c Config) Validate() error {
	if c.MaxConcurrentLoads < 1 {
		return fmt.Errorf("%w: max concurrent loads %d < 1", ErrInvalidConfig, c.MaxConcurrentLoads)
	}
	if c.MemoryThreshold < 0 || c.RequestTimeout < 0 || c.BatchTimeout < 0 || c.LoadTimeout < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	return nil
}

// Stats is a diagnostic snapshot.
type Stats struct {
	Registered int
	Loaded     int
	Pending    int
	InFlight   int
	MemoryUsed int64
	Requests   int
	CacheHits  int
	Loads      int
	Failures   int
	Evictions  int
	Unloads    int
	Timeouts   int
}

// BatchResult lists what a batch request loaded and what failed.
type BatchResult struct {
	Loaded []string
	Failed map[string]error
}

type entry struct {
	res     Resource
	loaded  bool
	value   any
	touched uint64 // access sequence, lower = older
	lastErr error
}

// Loader owns the resource registry. Safe for concurrent use.
type Loader struct {
	cfg     Config
	fetcher Fetcher
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	resources map[string]*entry
	pending   map[string]*pending
	queue     requestQueue
	seq       uint64
	clock     uint64
	memory    int64
	inFlight  int
	closed    bool

	requests  int
	hits      int
	loads     int
	failures  int
	evictions int
	unloads   int
	timeouts  int
}

// New creates a loader that fetches through f.
func New(cfg Config, f Fetcher) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: nil fetcher", ErrInvalidConfig)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		cfg:       cfg,
		fetcher:   f,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentLoads)),
		ctx:       ctx,
		cancel:    cancel,
		resources: make(map[string]*entry),
		pending:   make(map[string]*pending),
	}, nil
}

// Register adds a resource description. Re-registering an unloaded id replaces it.
func (l *Loader) Register(r Resource) error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidResource)
	}
	if r.Size < 0 {
		return fmt.Errorf("%w: %s has negative size", ErrInvalidResource, r.ID)
	}
	if slices.Contains(r.Deps, r.ID) {
		return fmt.Errorf("%w: %s depends on itself", ErrDependencyCycle, r.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.resources[r.ID]; ok && (e.loaded || l.pending[r.ID] != nil) {
		return fmt.Errorf("%w: %s is loaded or loading", ErrInvalidResource, r.ID)
	}
	r.Deps = slices.Clone(r.Deps)
	l.resources[r.ID] = &entry{res: r}
	return nil
}

// Request loads id (and its dependencies) and waits for it.
// A resource that is already loaded counts as a cache hit.
func (l *Loader) Request(ctx context.Context, id string, priority int) error {
	return l.request(ctx, id, priority, nil)
}

func (l *Loader) request(ctx context.Context, id string, priority int, path []string) error {
	if slices.Contains(path, id) {
		return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(append(slices.Clone(path), id), " -> "))
	}
	if l.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.RequestTimeout)
		defer cancel()
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	e, ok := l.resources[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	l.requests++
	if e.loaded {
		l.hits++
		l.touchLocked(e)
		l.mu.Unlock()
		return nil
	}
	deps := e.res.Deps
	l.mu.Unlock()

	if len(deps) > 0 {
		next := append(slices.Clone(path), id)
		if err := l.resolveDeps(ctx, id, deps, priority+l.cfg.DependencyBoost, next); err != nil {
			return err
		}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if e.loaded {
		l.touchLocked(e)
		l.mu.Unlock()
		return nil
	}
	p, queued := l.pending[id]
	if queued {
		if p.index >= 0 && priority > p.priority {
			p.priority = priority
			heap.Fix(&l.queue, p.index)
		}
	} else {
		l.seq++
		p = &pending{id: id, priority: priority, seq: l.seq, done: make(chan struct{})}
		l.pending[id] = p
		heap.Push(&l.queue, p)
	}
	l.mu.Unlock()

	l.dispatch()

	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		l.mu.Lock()
		l.timeouts++
		l.mu.Unlock()
		slog.Warn("resource request abandoned", "id", id, "error", ctx.Err())
		return fmt.Errorf("waiting for %s: %w", id, ctx.Err())
	}
}

// resolveDeps loads all dependencies concurrently. The first failure
// abandons the remaining waits.
func (l *Loader) resolveDeps(ctx context.Context, id string, deps []string, priority int, path []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range deps {
		g.Go(func() error {
			if err := l.request(gctx, dep, priority, path); err != nil {
				return fmt.Errorf("dependency %s of %s: %w", dep, id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RequestBatch requests every id concurrently. Individual failures do not
// abort siblings; they are reported in Failed.
func (l *Loader) RequestBatch(ctx context.Context, ids []string, priority int) BatchResult {
	if l.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.BatchTimeout)
		defer cancel()
	}

	var (
		mu  sync.Mutex
		out = BatchResult{Failed: make(map[string]error)}
		g   errgroup.Group
	)
	for _, id := range ids {
		g.Go(func() error {
			err := l.Request(ctx, id, priority)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed[id] = err
			} else {
				out.Loaded = append(out.Loaded, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(out.Loaded)
	if len(out.Failed) > 0 {
		slog.Warn("batch completed with failures",
			"requested", len(ids),
			"loaded", len(out.Loaded),
			"failed", len(out.Failed))
	}
	return out
}

// Preload requests ids at low priority.
func (l *Loader) Preload(ctx context.Context, ids []string) BatchResult {
	return l.RequestBatch(ctx, ids, PriorityLow)
}

// Value returns the loaded value of id and marks it as recently used.
func (l *Loader) Value(id string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.resources[id]
	if !ok || !e.loaded {
		return nil, false
	}
	l.touchLocked(e)
	return e.value, true
}

// IsLoaded reports whether id is resident.
func (l *Loader) IsLoaded(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.resources[id]
	return ok && e.loaded
}

// LastError returns the error of the most recent failed load of id.
func (l *Loader) LastError(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.resources[id]; ok {
		return e.lastErr
	}
	return nil
}

// Unload drops a loaded resource. Returns false if it was not loaded.
func (l *Loader) Unload(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.resources[id]
	if !ok || !e.loaded {
		return false
	}
	l.unloadLocked(e)
	l.unloads++
	return true
}

// UnloadDistant drops every loaded resource for which keep returns false.
func (l *Loader) UnloadDistant(keep func(Resource) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.resources {
		if e.loaded && !keep(e.res) {
			l.unloadLocked(e)
			n++
		}
	}
	l.unloads += n
	if n > 0 {
		slog.Debug("unloaded distant resources", "count", n, "memory", l.memory)
	}
	return n
}

// Stats returns counters.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Stats{
		Registered: len(l.resources),
		Pending:    l.queue.Len(),
		InFlight:   l.inFlight,
		MemoryUsed: l.memory,
		Requests:   l.requests,
		CacheHits:  l.hits,
		Loads:      l.loads,
		Failures:   l.failures,
		Evictions:  l.evictions,
		Unloads:    l.unloads,
		Timeouts:   l.timeouts,
	}
	for _, e := range l.resources {
		if e.loaded {
			s.Loaded++
		}
	}
	return s
}

// Close cancels in-flight fetches and fails queued requests with ErrClosed.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for l.queue.Len() > 0 {
		p := heap.Pop(&l.queue).(*pending)
		delete(l.pending, p.id)
		p.err = ErrClosed
		close(p.done)
	}
	l.mu.Unlock()
	l.cancel()
}

// dispatch starts queued loads while concurrency slots are free.
func (l *Loader) dispatch() {
	for {
		l.mu.Lock()
		if l.closed || l.queue.Len() == 0 || !l.sem.TryAcquire(1) {
			l.mu.Unlock()
			return
		}
		p := heap.Pop(&l.queue).(*pending)
		e := l.resources[p.id]
		l.reserveLocked(e)
		l.inFlight++
		l.mu.Unlock()

		go l.load(p, e.res)
	}
}

func (l *Loader) load(p *pending, r Resource) {
	ctx := l.ctx
	if l.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	v, err := l.fetcher.Fetch(ctx, r)
	l.finish(p, v, err, time.Since(start))
}

func (l *Loader) finish(p *pending, v any, err error, took time.Duration) {
	l.mu.Lock()
	e := l.resources[p.id]
	delete(l.pending, p.id)
	l.inFlight--
	if err != nil {
		l.memory -= e.res.Size
		l.failures++
		e.lastErr = err
		p.err = fmt.Errorf("loading %s: %w", p.id, err)
	} else {
		e.loaded = true
		e.value = v
		e.lastErr = nil
		l.touchLocked(e)
		l.loads++
	}
	close(p.done)
	l.mu.Unlock()
	l.sem.Release(1)

	if err != nil {
		slog.Error("resource load failed",
			"id", p.id,
			"type", e.res.Type,
			"path", e.res.Path,
			"error", err)
	} else {
		slog.Debug("resource loaded",
			"id", p.id,
			"type", e.res.Type,
			"size", e.res.Size,
			"duration", took)
	}

	l.dispatch()
}

// reserveLocked accounts e.Size against the budget, evicting the least
// recently accessed resources first. Direct dependencies of e are kept.
func (l *Loader) reserveLocked(e *entry) {
	need := e.res.Size
	if l.cfg.MemoryThreshold > 0 {
		for l.memory+need > l.cfg.MemoryThreshold {
			victim := l.lruVictimLocked(e.res.Deps)
			if victim == nil {
				slog.Warn("loader memory threshold exceeded",
					"id", e.res.ID,
					"memory", l.memory,
					"need", need,
					"threshold", l.cfg.MemoryThreshold)
				break
			}
			slog.Debug("evicting resource", "id", victim.res.ID, "size", victim.res.Size)
			l.unloadLocked(victim)
			l.evictions++
		}
	}
	l.memory += need
}

func (l *Loader) lruVictimLocked(keep []string) *entry {
	var victim *entry
	for id, e := range l.resources {
		if !e.loaded || slices.Contains(keep, id) {
			continue
		}
		if victim == nil || e.touched < victim.touched {
			victim = e
		}
	}
	return victim
}

func (l *Loader) unloadLocked(e *entry) {
	e.loaded = false
	e.value = nil
	l.memory -= e.res.Size
}

func (l *Loader) touchLocked(e *entry) {
	l.clock++
	e.touched = l.clock
}
