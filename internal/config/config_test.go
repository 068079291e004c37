package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/wasteland/internal/perf/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wasteland.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesKeepOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
combat:
  retreat_chance: 0.5
  enemy_turn_delay: 250ms
  rates:
    loot_amount_multiplier: 2
spawn:
  spawn_chance: 0.3
  min_group: 2
  max_group: 10
pool:
  initial_size: 8
  max_size: 64
asset_cache:
  l1:
    max_entries: 16
    strategy: ttl
loader:
  max_concurrent_loads: 2
  request_timeout: 3s
profiler:
  sample_interval: 1s
simulation:
  encounters: 3
  seed: 42
  templates: [Raider]
database:
  enabled: true
  host: db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.Combat.RetreatChance)
	assert.Equal(t, 250*time.Millisecond, cfg.Combat.EnemyTurnDelay)
	assert.Equal(t, 50, cfg.Combat.LogSize, "default kept")
	assert.Equal(t, 2.0, cfg.Combat.Rates.LootAmountMultiplier)
	assert.Equal(t, 1.0, cfg.Combat.Rates.LootChanceMultiplier)

	assert.Equal(t, 0.3, cfg.Spawn.Rule.SpawnChance)
	assert.Equal(t, 10, cfg.Spawn.Rule.MaxGroup)
	assert.Equal(t, 100, cfg.Spawn.HistorySize)

	assert.Equal(t, 8, cfg.Perf.Pool.InitialSize)
	assert.Equal(t, 16, cfg.Perf.AssetCache.L1.MaxEntries)
	assert.Equal(t, cache.StrategyTTL, cfg.Perf.AssetCache.L1.Strategy)
	assert.Equal(t, cache.StrategyAdaptive, cfg.Perf.AssetCache.L2.Strategy)
	assert.Equal(t, 2, cfg.Perf.Loader.MaxConcurrentLoads)
	assert.Equal(t, 3*time.Second, cfg.Perf.Loader.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Perf.Profiler.SampleInterval)

	assert.Equal(t, 3, cfg.Simulation.Encounters)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, []string{"Raider"}, cfg.Simulation.Templates)

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://wasteland:wasteland@db:5432/wasteland?sslmode=disable", cfg.Database.DSN())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "combat: [not a map"))
	assert.ErrorContains(t, err, "parsing config")

	_, err = Load(writeConfig(t, "log_level: loud\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Wasteland)
	}{
		{"log size", func(c *Wasteland) { c.Combat.LogSize = 0 }},
		{"retreat chance", func(c *Wasteland) { c.Combat.RetreatChance = 1.5 }},
		{"turn delay", func(c *Wasteland) { c.Combat.EnemyTurnDelay = -time.Second }},
		{"loot rates", func(c *Wasteland) { c.Combat.Rates.LootChanceMultiplier = -1 }},
		{"spawn chance", func(c *Wasteland) { c.Spawn.Rule.SpawnChance = 2 }},
		{"spawn history", func(c *Wasteland) { c.Spawn.HistorySize = 0 }},
		{"pool sizes", func(c *Wasteland) { c.Perf.Pool.InitialSize = c.Perf.Pool.MaxSize + 1 }},
		{"cache strategy", func(c *Wasteland) { c.Perf.DataCache.L2.Strategy = "fifo" }},
		{"asset cache entries", func(c *Wasteland) { c.Perf.AssetCache.L1.MaxEntries = 0 }},
		{"loader", func(c *Wasteland) { c.Perf.Loader.MaxConcurrentLoads = 0 }},
		{"profiler", func(c *Wasteland) { c.Perf.Profiler.SampleInterval = -time.Second }},
		{"concurrency", func(c *Wasteland) { c.Simulation.Concurrency = 0 }},
		{"templates", func(c *Wasteland) { c.Simulation.Templates = nil }},
		{"max turns", func(c *Wasteland) { c.Simulation.MaxTurns = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
