package loader_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/udisondev/wasteland/internal/perf/loader"
	"github.com/udisondev/wasteland/internal/perf/loader/mocks"
)

// resourceID matches a loader.Resource by id.
type resourceID string

func (m resourceID) Matches(x any) bool {
	r, ok := x.(loader.Resource)
	return ok && r.ID == string(m)
}

func (m resourceID) String() string { return "resource " + string(m) }

func testConfig() loader.Config {
	cfg := loader.DefaultConfig()
	cfg.RequestTimeout = 2 * time.Second
	cfg.BatchTimeout = 5 * time.Second
	cfg.LoadTimeout = 2 * time.Second
	return cfg
}

func newLoader(t *testing.T, cfg loader.Config) (*loader.Loader, *mocks.MockFetcher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	l, err := loader.New(cfg, f)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l, f
}

func register(t *testing.T, l *loader.Loader, rs ...loader.Resource) {
	t.Helper()
	for _, r := range rs {
		require.NoError(t, l.Register(r))
	}
}

// orderRecorder records fetch order and returns the id as the value.
type orderRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (o *orderRecorder) fetch(_ context.Context, r loader.Resource) (any, error) {
	o.mu.Lock()
	o.ids = append(o.ids, r.ID)
	o.mu.Unlock()
	return r.ID, nil
}

func (o *orderRecorder) order() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.ids...)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := loader.New(loader.Config{MaxConcurrentLoads: 0}, nil)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)

	_, err = loader.New(loader.DefaultConfig(), nil)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)
}

func TestRegister_Validation(t *testing.T) {
	l, _ := newLoader(t, testConfig())

	assert.ErrorIs(t, l.Register(loader.Resource{}), loader.ErrInvalidResource)
	assert.ErrorIs(t, l.Register(loader.Resource{ID: "x", Size: -1}), loader.ErrInvalidResource)
	assert.ErrorIs(t, l.Register(loader.Resource{ID: "x", Deps: []string{"x"}}), loader.ErrDependencyCycle)
	assert.NoError(t, l.Register(loader.Resource{ID: "x", Type: loader.TypeImage}))
}

func TestRequest_LoadsOnceThenHits(t *testing.T) {
	l, f := newLoader(t, testConfig())
	register(t, l, loader.Resource{ID: "raider.png", Type: loader.TypeImage, Size: 10})

	f.EXPECT().Fetch(gomock.Any(), resourceID("raider.png")).Return("pixels", nil).Times(1)

	ctx := context.Background()
	require.NoError(t, l.Request(ctx, "raider.png", loader.PriorityNormal))
	require.NoError(t, l.Request(ctx, "raider.png", loader.PriorityNormal))

	v, ok := l.Value("raider.png")
	require.True(t, ok)
	assert.Equal(t, "pixels", v)

	s := l.Stats()
	assert.Equal(t, 2, s.Requests)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 1, s.Loads)
	assert.Equal(t, 1, s.Loaded)
	assert.Equal(t, int64(10), s.MemoryUsed)
}

func TestRequest_UnknownResource(t *testing.T) {
	l, _ := newLoader(t, testConfig())

	err := l.Request(context.Background(), "nope", loader.PriorityNormal)
	assert.ErrorIs(t, err, loader.ErrUnknownResource)
}

func TestRequest_DependenciesLoadFirst(t *testing.T) {
	l, f := newLoader(t, testConfig())
	register(t, l,
		loader.Resource{ID: "wasteland.scene", Type: loader.TypeScene, Deps: []string{"ground.png", "wind.ogg"}},
		loader.Resource{ID: "ground.png", Type: loader.TypeImage},
		loader.Resource{ID: "wind.ogg", Type: loader.TypeAudio},
	)

	rec := &orderRecorder{}
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(rec.fetch).Times(3)

	require.NoError(t, l.Request(context.Background(), "wasteland.scene", loader.PriorityNormal))

	order := rec.order()
	require.Len(t, order, 3)
	assert.Equal(t, "wasteland.scene", order[2])
	assert.ElementsMatch(t, []string{"ground.png", "wind.ogg"}, order[:2])
	assert.True(t, l.IsLoaded("ground.png"))
	assert.True(t, l.IsLoaded("wind.ogg"))
}

func TestRequest_DependencyCycle(t *testing.T) {
	l, _ := newLoader(t, testConfig())
	register(t, l,
		loader.Resource{ID: "a", Deps: []string{"b"}},
		loader.Resource{ID: "b", Deps: []string{"a"}},
	)

	err := l.Request(context.Background(), "a", loader.PriorityNormal)
	assert.ErrorIs(t, err, loader.ErrDependencyCycle)
	assert.False(t, l.IsLoaded("a"))
}

func TestRequest_DependencyFailureSkipsDependent(t *testing.T) {
	l, f := newLoader(t, testConfig())
	register(t, l,
		loader.Resource{ID: "scene", Deps: []string{"tex"}},
		loader.Resource{ID: "tex"},
	)

	errDecode := errors.New("decode failed")
	f.EXPECT().Fetch(gomock.Any(), resourceID("tex")).Return(nil, errDecode)

	err := l.Request(context.Background(), "scene", loader.PriorityNormal)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDecode)
	assert.False(t, l.IsLoaded("scene"))
	assert.ErrorIs(t, l.LastError("tex"), errDecode)
	assert.Equal(t, 1, l.Stats().Failures)
}

func TestRequest_PriorityOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentLoads = 1
	l, f := newLoader(t, cfg)
	register(t, l,
		loader.Resource{ID: "blocker"},
		loader.Resource{ID: "low"},
		loader.Resource{ID: "high"},
	)

	release := make(chan struct{})
	rec := &orderRecorder{}
	f.EXPECT().Fetch(gomock.Any(), resourceID("blocker")).DoAndReturn(
		func(ctx context.Context, r loader.Resource) (any, error) {
			<-release
			return rec.fetch(ctx, r)
		})
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(rec.fetch).Times(2)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Go(func() { assert.NoError(t, l.Request(ctx, "blocker", loader.PriorityNormal)) })
	require.Eventually(t, func() bool { return l.Stats().InFlight == 1 }, time.Second, time.Millisecond)

	wg.Go(func() { assert.NoError(t, l.Request(ctx, "low", loader.PriorityLow)) })
	wg.Go(func() { assert.NoError(t, l.Request(ctx, "high", loader.PriorityHigh)) })
	require.Eventually(t, func() bool { return l.Stats().Pending == 2 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"blocker", "high", "low"}, rec.order())
}

func TestRequest_RaisesQueuedPriority(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentLoads = 1
	l, f := newLoader(t, cfg)
	register(t, l,
		loader.Resource{ID: "blocker"},
		loader.Resource{ID: "a"},
		loader.Resource{ID: "b"},
	)

	release := make(chan struct{})
	rec := &orderRecorder{}
	f.EXPECT().Fetch(gomock.Any(), resourceID("blocker")).DoAndReturn(
		func(ctx context.Context, r loader.Resource) (any, error) {
			<-release
			return rec.fetch(ctx, r)
		})
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(rec.fetch).Times(2)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Go(func() { assert.NoError(t, l.Request(ctx, "blocker", loader.PriorityNormal)) })
	require.Eventually(t, func() bool { return l.Stats().InFlight == 1 }, time.Second, time.Millisecond)

	wg.Go(func() { assert.NoError(t, l.Request(ctx, "a", loader.PriorityLow)) })
	require.Eventually(t, func() bool { return l.Stats().Pending == 1 }, time.Second, time.Millisecond)
	wg.Go(func() { assert.NoError(t, l.Request(ctx, "b", loader.PriorityNormal)) })
	require.Eventually(t, func() bool { return l.Stats().Pending == 2 }, time.Second, time.Millisecond)

	// The boost outlives the abandoned waiter; the low request still waits for a.
	bumpCtx, cancel := context.WithCancel(ctx)
	wg.Go(func() { assert.Error(t, l.Request(bumpCtx, "a", loader.PriorityHigh)) })
	require.Eventually(t, func() bool { return l.Stats().Requests == 4 }, time.Second, time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return l.Stats().Timeouts == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, l.Stats().Pending)

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"blocker", "a", "b"}, rec.order())
}

func TestRequest_ConcurrencyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentLoads = 2
	l, f := newLoader(t, cfg)

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("tile%d.png", i)
		register(t, l, loader.Resource{ID: ids[i], Type: loader.TypeImage})
	}

	var current, peak atomic.Int32
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r loader.Resource) (any, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return r.ID, nil
		}).Times(len(ids))

	res := l.RequestBatch(context.Background(), ids, loader.PriorityNormal)

	assert.Len(t, res.Loaded, len(ids))
	assert.Empty(t, res.Failed)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRequestBatch_PartialFailure(t *testing.T) {
	l, f := newLoader(t, testConfig())
	register(t, l,
		loader.Resource{ID: "rat.png"},
		loader.Resource{ID: "broken.png"},
		loader.Resource{ID: "ghoul.png"},
	)

	errIO := errors.New("read error")
	f.EXPECT().Fetch(gomock.Any(), resourceID("broken.png")).Return(nil, errIO)
	f.EXPECT().Fetch(gomock.Any(), gomock.Not(resourceID("broken.png"))).Return("ok", nil).Times(2)

	res := l.RequestBatch(context.Background(), []string{"rat.png", "broken.png", "ghoul.png", "missing.png"}, loader.PriorityNormal)

	assert.Equal(t, []string{"ghoul.png", "rat.png"}, res.Loaded)
	require.Len(t, res.Failed, 2)
	assert.ErrorIs(t, res.Failed["broken.png"], errIO)
	assert.ErrorIs(t, res.Failed["missing.png"], loader.ErrUnknownResource)
}

func TestRequest_TimeoutReleasesCaller(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	l, f := newLoader(t, cfg)
	register(t, l, loader.Resource{ID: "slow.ogg", Type: loader.TypeAudio})

	release := make(chan struct{})
	f.EXPECT().Fetch(gomock.Any(), resourceID("slow.ogg")).DoAndReturn(
		func(_ context.Context, r loader.Resource) (any, error) {
			<-release
			return r.ID, nil
		})

	err := l.Request(context.Background(), "slow.ogg", loader.PriorityNormal)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Stats().Timeouts)

	// the load itself keeps going
	close(release)
	assert.Eventually(t, func() bool { return l.IsLoaded("slow.ogg") }, time.Second, time.Millisecond)
}

func TestMemoryThreshold_EvictsLeastRecentlyUsed(t *testing.T) {
	cfg := testConfig()
	cfg.MemoryThreshold = 100
	l, f := newLoader(t, cfg)
	register(t, l,
		loader.Resource{ID: "a", Size: 40},
		loader.Resource{ID: "b", Size: 40},
		loader.Resource{ID: "c", Size: 40},
	)
	rec := &orderRecorder{}
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(rec.fetch).Times(3)

	ctx := context.Background()
	require.NoError(t, l.Request(ctx, "a", loader.PriorityNormal))
	require.NoError(t, l.Request(ctx, "b", loader.PriorityNormal))
	require.NoError(t, l.Request(ctx, "a", loader.PriorityNormal)) // a is now newer than b
	require.NoError(t, l.Request(ctx, "c", loader.PriorityNormal))

	assert.True(t, l.IsLoaded("a"))
	assert.False(t, l.IsLoaded("b"))
	assert.True(t, l.IsLoaded("c"))

	s := l.Stats()
	assert.Equal(t, 1, s.Evictions)
	assert.Equal(t, int64(80), s.MemoryUsed)
}

func TestUnload(t *testing.T) {
	l, f := newLoader(t, testConfig())
	register(t, l,
		loader.Resource{ID: "hud.png", Type: loader.TypeImage, Size: 5},
		loader.Resource{ID: "vault.png", Type: loader.TypeImage, Size: 7},
		loader.Resource{ID: "radio.ogg", Type: loader.TypeAudio, Size: 11},
		loader.Resource{ID: "items.json", Type: loader.TypeData, Size: 13},
	)
	f.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return("v", nil).Times(4)

	res := l.Preload(context.Background(), []string{"hud.png", "vault.png", "radio.ogg", "items.json"})
	require.Empty(t, res.Failed)

	assert.True(t, l.Unload("hud.png"))
	assert.False(t, l.Unload("hud.png"))

	n := l.UnloadDistant(func(r loader.Resource) bool { return r.Type == loader.TypeData })
	assert.Equal(t, 2, n)

	s := l.Stats()
	assert.Equal(t, 1, s.Loaded)
	assert.Equal(t, 3, s.Unloads)
	assert.Equal(t, int64(13), s.MemoryUsed)
	assert.True(t, l.IsLoaded("items.json"))
}

func TestClose_RejectsRequests(t *testing.T) {
	l, _ := newLoader(t, testConfig())
	register(t, l, loader.Resource{ID: "a"})

	l.Close()
	l.Close()

	assert.ErrorIs(t, l.Request(context.Background(), "a", loader.PriorityNormal), loader.ErrClosed)
}
