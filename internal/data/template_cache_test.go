package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/perf/cache"
)

func TestTemplateCache_MissThenHit(t *testing.T) {
	tc, err := NewTemplateCache(cache.DefaultMultiLevelConfig("templates"))
	require.NoError(t, err)

	first, ok := tc.Template("Raider")
	require.True(t, ok)
	second, ok := tc.Template("Raider")
	require.True(t, ok)
	assert.Same(t, first, second)

	s := tc.Stats()
	assert.Equal(t, 2, s.Gets)
	assert.Equal(t, 1, s.L1Hits)
	assert.Equal(t, 1, s.Misses)
}

func TestTemplateCache_Unknown(t *testing.T) {
	tc, err := NewTemplateCache(cache.DefaultMultiLevelConfig("templates"))
	require.NoError(t, err)

	_, ok := tc.Template("Deathclaw")
	assert.False(t, ok)
	assert.Equal(t, 0, tc.Stats().L1.Entries, "unknown names are not cached")
}

func TestTemplateCache_Warm(t *testing.T) {
	tc, err := NewTemplateCache(cache.DefaultMultiLevelConfig("templates"))
	require.NoError(t, err)

	n := tc.Warm()
	assert.Equal(t, len(TemplateNames()), n)

	for _, name := range TemplateNames() {
		_, ok := tc.Template(name)
		assert.True(t, ok, name)
	}
	s := tc.Stats()
	assert.Equal(t, n, s.L1Hits)
	assert.Zero(t, s.Misses)
}

func TestNewTemplateCache_InvalidConfig(t *testing.T) {
	_, err := NewTemplateCache(cache.MultiLevelConfig{Name: "bad"})
	assert.ErrorIs(t, err, cache.ErrInvalidConfig)
}
