package spawn

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/rng"
)

func TestScheduler_ScheduleAndCancel(t *testing.T) {
	sched := NewScheduler(NewSpawner(rng.Floats(0), 10), NewInstanceFactory(rng.Floats(0)), nil)

	sched.Schedule("e1", "Raider", DefaultConfig(), 5*time.Second)
	sched.Schedule("e2", "Raider", DefaultConfig(), 10*time.Second)
	sched.Schedule("e1", "Giant Rat", DefaultConfig(), time.Second)

	if got := sched.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
	assert.True(t, sched.Cancel("e2"))
	assert.False(t, sched.Cancel("e2"))
	assert.Equal(t, 1, sched.Pending())
}

func TestScheduler_ProcessDue(t *testing.T) {
	base := time.Date(2077, 10, 23, 9, 47, 0, 0, time.UTC)

	var mu sync.Mutex
	handled := make(map[string]Result)
	sched := NewScheduler(
		NewSpawner(rng.Floats(0), 10),
		NewInstanceFactory(rng.Floats(0)),
		func(_ context.Context, enc Encounter, res Result) {
			mu.Lock()
			defer mu.Unlock()
			handled[enc.ID] = res
		},
	)
	sched.now = func() time.Time { return base }

	sched.Schedule("soon", "Raider", DefaultConfig(), time.Second)
	sched.Schedule("later", "Raider", DefaultConfig(), time.Minute)
	sched.Schedule("never", "Deathclaw", DefaultConfig(), time.Second)

	assert.Equal(t, 0, sched.processDue(context.Background(), base))
	assert.Equal(t, 2, sched.processDue(context.Background(), base.Add(time.Second)))
	sched.Wait()

	mu.Lock()
	require.Len(t, handled, 1, "unknown template does not reach the handler")
	res := handled["soon"]
	mu.Unlock()
	assert.True(t, res.Success)
	assert.Equal(t, "Raider", res.Template)
	assert.Equal(t, 1, sched.Pending())
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	done := make(chan struct{})
	sched := NewScheduler(
		NewSpawner(rng.Floats(0), 10),
		NewInstanceFactory(rng.Floats(0)),
		func(context.Context, Encounter, Result) { close(done) },
	)
	sched.SetInterval(5 * time.Millisecond)
	sched.Schedule("now", "Giant Rat", DefaultConfig(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sched.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled encounter was not handled")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
