package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMultiLevel(t *testing.T, l1Size, l2Size int, clock *fakeClock) *MultiLevel {
	t.Helper()
	m, err := NewMultiLevel(MultiLevelConfig{
		Name: "assets",
		L1:   Config{Name: "assets.l1", MaxEntries: l1Size},
		L2:   Config{Name: "assets.l2", MaxEntries: l2Size},
	}, WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func TestMultiLevel_SetWritesL1Only(t *testing.T) {
	m := newTestMultiLevel(t, 2, 10, newFakeClock())

	m.Set("a", 1, 0)

	s := m.Stats()
	assert.Equal(t, 1, s.L1.Entries)
	assert.Equal(t, 0, s.L2.Entries)
}

func TestMultiLevel_L1EvictionDemotesToL2(t *testing.T) {
	m := newTestMultiLevel(t, 2, 10, newFakeClock())

	m.Set("a", 1, 0)
	m.Set("b", 2, 0)
	m.Set("c", 3, 0) // evicts a from L1 into L2

	s := m.Stats()
	assert.Equal(t, 2, s.L1.Entries)
	assert.Equal(t, 1, s.L2.Entries)
	assert.Equal(t, 1, s.Demotions)
	assert.Equal(t, 1, s.L1Evictions)
	assert.Zero(t, s.Evictions, "demoted entries are still cached")

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	s = m.Stats()
	assert.Equal(t, 0, s.L1Hits)
	assert.Equal(t, 1, s.L2Hits)
	assert.Equal(t, 1, s.Promotions)

	// a is back in L1 now
	_, ok = m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, m.Stats().L1Hits)
}

func TestMultiLevel_TotalMiss(t *testing.T) {
	m := newTestMultiLevel(t, 2, 2, newFakeClock())

	_, ok := m.Get("nothing")
	assert.False(t, ok)

	s := m.Stats()
	assert.Equal(t, 1, s.Misses)
	assert.Equal(t, 1, s.L1.Misses)
	assert.Equal(t, 1, s.L2.Misses)
}

func TestMultiLevel_Reconciliation(t *testing.T) {
	m := newTestMultiLevel(t, 3, 5, newFakeClock())

	for i := range 50 {
		m.Set(fmt.Sprintf("k%d", i%9), i, 0)
		m.Get(fmt.Sprintf("k%d", (i*7)%11))
		m.GetMultiple([]string{fmt.Sprintf("k%d", i%4), "missing"})
	}

	s := m.Stats()
	assert.Equal(t, 150, s.Gets)
	assert.Equal(t, s.Gets, s.L1Hits+s.L2Hits+s.Misses)
	assert.InDelta(t, float64(s.L1Hits+s.L2Hits)/float64(s.Gets), s.HitRatio, 1e-12)
	assert.LessOrEqual(t, s.L1.Entries, 3)
	assert.LessOrEqual(t, s.L2.Entries, 5)
}

func TestMultiLevel_ExpiredNotDemoted(t *testing.T) {
	clock := newFakeClock()
	m := newTestMultiLevel(t, 1, 5, clock)

	m.Set("a", 1, time.Second)
	clock.Advance(2 * time.Second)
	m.Set("b", 2, 0) // a is evicted while expired

	assert.Equal(t, 0, m.Stats().L2.Entries)
}

func TestMultiLevel_SetDropsStaleL2Copy(t *testing.T) {
	m := newTestMultiLevel(t, 1, 5, newFakeClock())

	m.Set("a", "old", 0)
	m.Set("b", 2, 0) // a demoted
	m.Set("a", "new", 0)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.False(t, m.Delete("zzz"))
	assert.True(t, m.Delete("a"))
}

func TestDefaultMultiLevelConfig(t *testing.T) {
	m, err := NewMultiLevel(DefaultMultiLevelConfig("templates"))
	require.NoError(t, err)
	assert.Equal(t, "templates", m.Name())
	s := m.Stats()
	assert.Equal(t, "templates.l1", s.L1.Name)
	assert.Equal(t, "templates.l2", s.L2.Name)
}
