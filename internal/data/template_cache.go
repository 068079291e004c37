package data

import (
	"fmt"

	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf/cache"
)

// TemplateCache caches enemy template lookups in a two-tier cache.
// Misses fall through to the static template table.
type TemplateCache struct {
	ml *cache.MultiLevel
}

// NewTemplateCache creates a template cache on a new MultiLevel cache.
func NewTemplateCache(cfg cache.MultiLevelConfig) (*TemplateCache, error) {
	ml, err := cache.NewMultiLevel(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	return &TemplateCache{ml: ml}, nil
}

// NewTemplateCacheOn wraps an existing cache (shared with other data lookups).
func NewTemplateCacheOn(ml *cache.MultiLevel) *TemplateCache {
	return &TemplateCache{ml: ml}
}

// Template returns the named template, caching it on first lookup.
func (c *TemplateCache) Template(name string) (*model.EnemyTemplate, bool) {
	key := templateKey(name)
	if v, ok := c.ml.Get(key); ok {
		if t, ok := v.(*model.EnemyTemplate); ok {
			return t, true
		}
	}

	t, ok := TemplateByName(name)
	if !ok {
		return nil, false
	}
	c.ml.Set(key, t, 0)
	return t, true
}

// Warm loads every known template into the cache. Returns the count.
func (c *TemplateCache) Warm() int {
	all := Templates()
	values := make(map[string]any, len(all))
	for _, t := range all {
		values[templateKey(t.Name)] = t
	}
	c.ml.SetMultiple(values, 0)
	return len(values)
}

// Stats returns the underlying cache counters.
func (c *TemplateCache) Stats() cache.MultiLevelStats {
	return c.ml.Stats()
}

func templateKey(name string) string {
	return "enemy_template:" + name
}
