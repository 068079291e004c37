package perf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/perf/loader"
	"github.com/udisondev/wasteland/internal/perf/pool"
)

type shell struct{ inUse bool }

func (s *shell) Reset()         {}
func (s *shell) InUse() bool    { return s.inUse }
func (s *shell) MarkInUse()     { s.inUse = true }
func (s *shell) MarkAvailable() { s.inUse = false }

func shellPool(cfg pool.Config) (pool.Managed, error) {
	return pool.New(func() *shell { return &shell{} }, cfg)
}

func echoFetcher() loader.Fetcher {
	return loader.FetcherFunc(func(_ context.Context, r loader.Resource) (any, error) {
		return r.Path, nil
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pool.InitialSize = 4
	cfg.Pool.MaxSize = 16
	cfg.Pool.ShrinkInterval = 0
	cfg.Profiler.SampleInterval = 0
	return cfg
}

func TestNew_Validation(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)

	cfg := testConfig()
	cfg.Loader.MaxConcurrentLoads = 0
	_, err = New(cfg, echoFetcher())
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)

	cfg = testConfig()
	cfg.Pool.MaxSize = 0
	_, err = New(cfg, echoFetcher())
	assert.ErrorIs(t, err, pool.ErrInvalidConfig)
}

func TestContext_AccessBeforeInit(t *testing.T) {
	c, err := New(testConfig(), echoFetcher())
	require.NoError(t, err)

	_, err = c.Loader()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.AssetCache()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.DataCache()
	assert.ErrorIs(t, err, ErrNotInitialized)

	s := c.Status()
	assert.False(t, s.Initialized)
	assert.Empty(t, s.Pools)

	c.Shutdown() // no-op
}

func TestContext_Lifecycle(t *testing.T) {
	c, err := New(testConfig(), echoFetcher())
	require.NoError(t, err)
	c.AddPool("shells", shellPool)

	ctx := context.Background()
	require.NoError(t, c.Init(ctx))
	assert.ErrorIs(t, c.Init(ctx), ErrAlreadyInitialized)
	assert.True(t, c.Initialized())

	managed, ok := c.Pools().Get("shells")
	require.True(t, ok)
	shells := managed.(*pool.Pool[*shell])
	s := shells.Acquire()
	shells.Release(s)

	assets, err := c.AssetCache()
	require.NoError(t, err)
	assets.Set("sprite:raider_a", []byte("png"), 0)
	_, ok = assets.Get("sprite:raider_a")
	assert.True(t, ok)

	ld, err := c.Loader()
	require.NoError(t, err)
	require.NoError(t, ld.Register(loader.Resource{ID: "scene", Type: loader.TypeScene, Path: "scenes/wasteland.json", Size: 10}))
	require.NoError(t, ld.Request(ctx, "scene", loader.PriorityHigh))

	st := c.Status()
	assert.True(t, st.Initialized)
	assert.Equal(t, 1, st.PoolTotals.Pools)
	assert.Equal(t, 1, st.Pools["shells"].Reused)
	assert.Equal(t, 1, st.AssetCache.L1Hits)
	assert.Equal(t, 1, st.Loader.Loaded)
	assert.NotZero(t, st.Memory.HeapAlloc, "Init takes a first sample")

	c.Shutdown()
	assert.False(t, c.Initialized())
	assert.Empty(t, c.Pools().Names())
	assert.False(t, ld.IsLoaded("scene"), "shutdown unloads resources")
	assert.ErrorIs(t, ld.Request(ctx, "scene2", loader.PriorityLow), loader.ErrClosed)

	// re-init builds fresh components
	require.NoError(t, c.Init(ctx))
	defer c.Shutdown()

	assets2, err := c.AssetCache()
	require.NoError(t, err)
	assert.NotSame(t, assets, assets2)
	_, ok = assets2.Get("sprite:raider_a")
	assert.False(t, ok)

	managed, ok = c.Pools().Get("shells")
	require.True(t, ok)
	assert.Equal(t, 4, managed.Stats().Available)
}

func TestContext_InitFailureRollsBack(t *testing.T) {
	c, err := New(testConfig(), echoFetcher())
	require.NoError(t, err)
	c.AddPool("bad", func(cfg pool.Config) (pool.Managed, error) {
		cfg.InitialSize = cfg.MaxSize + 1
		return shellPool(cfg)
	})

	err = c.Init(context.Background())
	require.ErrorIs(t, err, pool.ErrInvalidConfig)
	assert.False(t, c.Initialized())
	assert.Empty(t, c.Pools().Names())
}

func TestProfiler_Timings(t *testing.T) {
	p := NewProfiler(ProfilerConfig{MaxSamples: 2})

	p.Record("attack", 3*time.Millisecond)
	p.Record("attack", time.Millisecond)
	p.Record("attack", 5*time.Millisecond)
	p.Record("spawn", time.Second)

	tm := p.Timings()
	require.Contains(t, tm, "attack")
	a := tm["attack"]
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, time.Millisecond, a.Min)
	assert.Equal(t, 5*time.Millisecond, a.Max)
	assert.Equal(t, 5*time.Millisecond, a.Last)
	assert.Equal(t, 3*time.Millisecond, a.Avg())
	assert.Equal(t, time.Duration(0), Timing{}.Avg())

	p.Reset()
	assert.Empty(t, p.Timings())
}

func TestProfiler_Measure(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})
	now := time.Date(2077, 10, 23, 9, 47, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	stop := p.Measure("load")
	now = now.Add(40 * time.Millisecond)
	stop()

	assert.Equal(t, 40*time.Millisecond, p.Timings()["load"].Total)
}

func TestProfiler_SamplesAreCapped(t *testing.T) {
	p := NewProfiler(ProfilerConfig{MaxSamples: 2})
	first := p.Sample()
	p.Sample()
	third := p.Sample()

	samples := p.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, third, samples[1])
	assert.NotEqual(t, first.Time, time.Time{})

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, third, latest)
}

func TestProfiler_StartStop(t *testing.T) {
	p := NewProfiler(ProfilerConfig{SampleInterval: time.Millisecond, MaxSamples: 10})
	p.Start(context.Background())
	p.Start(context.Background()) // second start is ignored

	assert.Eventually(t, func() bool { return len(p.Samples()) >= 2 }, time.Second, time.Millisecond)
	p.Stop()
	p.Stop()

	n := len(p.Samples())
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, n, len(p.Samples()), "no samples after Stop")
}
