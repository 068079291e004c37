// Package perf owns the performance infrastructure of a running simulation:
// object pools, the asset and data caches, the lazy loader and a profiler.
//
// A Context replaces process-wide singletons. Init builds everything,
// Shutdown tears it down, and Init may be called again afterwards.
package perf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/udisondev/wasteland/internal/perf/cache"
	"github.com/udisondev/wasteland/internal/perf/loader"
	"github.com/udisondev/wasteland/internal/perf/pool"
)

var (
	ErrNotInitialized     = errors.New("perf context not initialized")
	ErrAlreadyInitialized = errors.New("perf context already initialized")
)

// Config groups the settings of every owned component.
type Config struct {
	Pool       pool.Config            `yaml:"pool"`
	AssetCache cache.MultiLevelConfig `yaml:"asset_cache"`
	DataCache  cache.MultiLevelConfig `yaml:"data_cache"`
	Loader     loader.Config          `yaml:"loader"`
	Profiler   ProfilerConfig         `yaml:"profiler"`
}

// DefaultConfig returns defaults for all components.
func DefaultConfig() Config {
	return Config{
		Pool:       pool.DefaultConfig(""),
		AssetCache: cache.DefaultMultiLevelConfig("assets"),
		DataCache:  cache.DefaultMultiLevelConfig("data"),
		Loader:     loader.DefaultConfig(),
		Profiler:   DefaultProfilerConfig(),
	}
}

// PoolFactory builds one named pool from the shared pool config.
// Factories run on every Init so each lifecycle starts with fresh pools.
type PoolFactory func(cfg pool.Config) (pool.Managed, error)

// Status is an aggregated diagnostic snapshot.
type Status struct {
	Initialized bool
	Pools       map[string]pool.Stats
	PoolTotals  pool.GlobalStats
	AssetCache  cache.MultiLevelStats
	DataCache   cache.MultiLevelStats
	Loader      loader.Stats
	Memory      Sample
	Timings     map[string]Timing
}

// Context owns the performance components of one simulation.
type Context struct {
	cfg     Config
	fetcher loader.Fetcher

	mu          sync.Mutex
	factories   map[string]PoolFactory
	initialized bool
	cancel      context.CancelFunc

	pools    *pool.Manager
	assets   *cache.MultiLevel
	data     *cache.MultiLevel
	loader   *loader.Loader
	profiler *Profiler
}

// New validates cfg and creates an uninitialized context. fetcher backs the loader.
func New(cfg Config, fetcher loader.Fetcher) (*Context, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: nil fetcher", loader.ErrInvalidConfig)
	}
	if err := cfg.Loader.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pool.Validate(); err != nil {
		return nil, err
	}
	return &Context{
		cfg:       cfg,
		fetcher:   fetcher,
		factories: make(map[string]PoolFactory),
		pools:     pool.NewManager(),
		profiler:  NewProfiler(cfg.Profiler),
	}, nil
}

// AddPool registers a pool factory under name. Takes effect on the next Init.
func (c *Context) AddPool(name string, f PoolFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Init creates pools, caches and the loader, and starts background loops.
// Components built before a failure are torn down again.
func (c *Context) Init(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return ErrAlreadyInitialized
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		if err != nil {
			cancel()
			c.teardownLocked()
		}
	}()

	names := slices.Sorted(maps.Keys(c.factories))
	for _, name := range names {
		pcfg := c.cfg.Pool
		pcfg.Name = name
		p, err := c.factories[name](pcfg)
		if err != nil {
			return fmt.Errorf("creating pool %s: %w", name, err)
		}
		if err := c.pools.Register(p); err != nil {
			return err
		}
	}

	if c.assets, err = cache.NewMultiLevel(c.cfg.AssetCache); err != nil {
		return fmt.Errorf("creating asset cache: %w", err)
	}
	if c.data, err = cache.NewMultiLevel(c.cfg.DataCache); err != nil {
		return fmt.Errorf("creating data cache: %w", err)
	}
	if c.loader, err = loader.New(c.cfg.Loader, c.fetcher); err != nil {
		return fmt.Errorf("creating loader: %w", err)
	}

	c.pools.StartAll(ctx)
	c.profiler.Start(ctx)
	c.profiler.Sample()

	c.cancel = cancel
	c.initialized = true

	slog.Info("performance context initialized",
		"pools", len(names),
		"assetCache", c.cfg.AssetCache.Name,
		"dataCache", c.cfg.DataCache.Name,
		"maxConcurrentLoads", c.cfg.Loader.MaxConcurrentLoads)
	return nil
}

// Shutdown stops background loops and releases pools, caches and loaded
// resources. Safe to call when not initialized.
func (c *Context) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	c.cancel()
	c.teardownLocked()
	c.initialized = false

	slog.Info("performance context shut down")
}

func (c *Context) teardownLocked() {
	c.profiler.Stop()
	c.pools.Shutdown()
	if c.loader != nil {
		c.loader.UnloadDistant(func(loader.Resource) bool { return false })
		c.loader.Close()
		c.loader = nil
	}
	if c.assets != nil {
		c.assets.Clear()
		c.assets = nil
	}
	if c.data != nil {
		c.data.Clear()
		c.data = nil
	}
	c.cancel = nil
}

// Initialized reports whether Init succeeded and Shutdown was not called since.
func (c *Context) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Pools returns the pool manager. It is empty until Init.
func (c *Context) Pools() *pool.Manager {
	return c.pools
}

// AssetCache returns the asset cache or ErrNotInitialized.
func (c *Context) AssetCache() (*cache.MultiLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.assets, nil
}

// DataCache returns the data cache or ErrNotInitialized.
func (c *Context) DataCache() (*cache.MultiLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.data, nil
}

// Loader returns the resource loader or ErrNotInitialized.
func (c *Context) Loader() (*loader.Loader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.loader, nil
}

// Profiler returns the profiler. It lives across Init/Shutdown cycles.
func (c *Context) Profiler() *Profiler {
	return c.profiler
}

// Status aggregates diagnostics from every component.
func (c *Context) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Initialized: c.initialized,
		Pools:       c.pools.Stats(),
		PoolTotals:  c.pools.GlobalStats(),
		Timings:     c.profiler.Timings(),
	}
	if latest, ok := c.profiler.Latest(); ok {
		s.Memory = latest
	}
	if !c.initialized {
		return s
	}
	s.AssetCache = c.assets.Stats()
	s.DataCache = c.data.Stats()
	s.Loader = c.loader.Stats()
	return s
}

// LogStatus writes a one-line summary of Status at info level.
func (c *Context) LogStatus() {
	s := c.Status()
	slog.Info("performance status",
		"initialized", s.Initialized,
		"pools", s.PoolTotals.Pools,
		"poolHitRatio", s.PoolTotals.HitRatio,
		"assetHitRatio", s.AssetCache.HitRatio,
		"dataHitRatio", s.DataCache.HitRatio,
		"loaded", s.Loader.Loaded,
		"loadFailures", s.Loader.Failures,
		"heapAlloc", s.Memory.HeapAlloc)
}
