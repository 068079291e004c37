package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/wasteland/internal/perf"
	"github.com/udisondev/wasteland/internal/spawn"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Rates holds loot multipliers.
type Rates struct {
	LootChanceMultiplier float64 `yaml:"loot_chance_multiplier"`
	LootAmountMultiplier float64 `yaml:"loot_amount_multiplier"`
}

// DefaultRates returns x1 multipliers.
func DefaultRates() Rates {
	return Rates{
		LootChanceMultiplier: 1.0,
		LootAmountMultiplier: 1.0,
	}
}

// Combat holds battle settings.
type Combat struct {
	LogSize        int           `yaml:"log_size"`
	RetreatChance  float64       `yaml:"retreat_chance"`
	EnemyTurnDelay time.Duration `yaml:"enemy_turn_delay"` // 0 = enemies act immediately
	Rates          Rates         `yaml:"rates"`
}

// Spawn holds encounter generation settings.
type Spawn struct {
	Rule        spawn.Config `yaml:",inline"`
	HistorySize int          `yaml:"history_size"`
}

// Simulation controls the headless encounter simulator.
type Simulation struct {
	Encounters  int           `yaml:"encounters"`
	Concurrency int           `yaml:"concurrency"`
	Interval    time.Duration `yaml:"interval"` // delay between scheduled encounters
	Seed        uint64        `yaml:"seed"`     // 0 = random
	Templates   []string      `yaml:"templates"`
	MaxTurns    int           `yaml:"max_turns"`
	PlayerID    string        `yaml:"player_id"`
}

// Wasteland holds all configuration for the combat simulator.
type Wasteland struct {
	LogLevel   string         `yaml:"log_level"`
	Combat     Combat         `yaml:"combat"`
	Spawn      Spawn          `yaml:"spawn"`
	Perf       perf.Config    `yaml:",inline"`
	Simulation Simulation     `yaml:"simulation"`
	Database   DatabaseConfig `yaml:"database"`
}

// Default returns Wasteland config with sensible defaults.
func Default() Wasteland {
	return Wasteland{
		LogLevel: "info",
		Combat: Combat{
			LogSize:       50,
			RetreatChance: 0.75,
			Rates:         DefaultRates(),
		},
		Spawn: Spawn{
			Rule:        spawn.Config{SpawnChance: 0.8, MinGroup: 1, MaxGroup: 4},
			HistorySize: spawn.DefaultHistorySize,
		},
		Perf: perf.DefaultConfig(),
		Simulation: Simulation{
			Encounters:  10,
			Concurrency: 4,
			Interval:    100 * time.Millisecond,
			Templates:   []string{"Giant Rat", "Radscorpion", "Raider", "Feral Ghoul"},
			MaxTurns:    100,
			PlayerID:    "vault-dweller",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "wasteland",
			Password: "wasteland",
			DBName:   "wasteland",
			SSLMode:  "disable",
		},
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Wasteland, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges of every section.
func (c Wasteland) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}

	if c.Combat.LogSize < 1 {
		return fmt.Errorf("%w: combat.log_size %d < 1", ErrInvalid, c.Combat.LogSize)
	}
	if c.Combat.RetreatChance <= 0 || c.Combat.RetreatChance > 1 {
		return fmt.Errorf("%w: combat.retreat_chance %.2f out of (0,1]", ErrInvalid, c.Combat.RetreatChance)
	}
	if c.Combat.EnemyTurnDelay < 0 {
		return fmt.Errorf("%w: combat.enemy_turn_delay is negative", ErrInvalid)
	}
	if c.Combat.Rates.LootChanceMultiplier < 0 || c.Combat.Rates.LootAmountMultiplier < 0 {
		return fmt.Errorf("%w: combat.rates must not be negative", ErrInvalid)
	}

	if err := c.Spawn.Rule.Validate(); err != nil {
		return fmt.Errorf("%w: spawn: %v", ErrInvalid, err)
	}
	if c.Spawn.HistorySize < 1 {
		return fmt.Errorf("%w: spawn.history_size %d < 1", ErrInvalid, c.Spawn.HistorySize)
	}

	if err := c.Perf.Pool.Validate(); err != nil {
		return fmt.Errorf("%w: pool: %v", ErrInvalid, err)
	}
	if err := c.Perf.AssetCache.L1.Validate(); err != nil {
		return fmt.Errorf("%w: asset_cache: %v", ErrInvalid, err)
	}
	if err := c.Perf.AssetCache.L2.Validate(); err != nil {
		return fmt.Errorf("%w: asset_cache: %v", ErrInvalid, err)
	}
	if err := c.Perf.DataCache.L1.Validate(); err != nil {
		return fmt.Errorf("%w: data_cache: %v", ErrInvalid, err)
	}
	if err := c.Perf.DataCache.L2.Validate(); err != nil {
		return fmt.Errorf("%w: data_cache: %v", ErrInvalid, err)
	}
	if err := c.Perf.Loader.Validate(); err != nil {
		return fmt.Errorf("%w: loader: %v", ErrInvalid, err)
	}
	if c.Perf.Profiler.SampleInterval < 0 {
		return fmt.Errorf("%w: profiler.sample_interval is negative", ErrInvalid)
	}

	if c.Simulation.Encounters < 0 || c.Simulation.Concurrency < 1 {
		return fmt.Errorf("%w: simulation needs encounters >= 0 and concurrency >= 1", ErrInvalid)
	}
	if len(c.Simulation.Templates) == 0 {
		return fmt.Errorf("%w: simulation.templates is empty", ErrInvalid)
	}
	if c.Simulation.MaxTurns < 1 {
		return fmt.Errorf("%w: simulation.max_turns %d < 1", ErrInvalid, c.Simulation.MaxTurns)
	}
	return nil
}
