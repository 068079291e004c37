// Package spawn populates encounters: it decides whether a group of enemies
// appears, how many, and creates their instances from enemy templates.
package spawn

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid spawn config")

// DefaultHistorySize is the number of spawn results kept by a Spawner.
const DefaultHistorySize = 100

// Config is the spawn rule applied to one SpawnGroup call.
//
// MinGroup/MaxGroup are clamped into the template's group size range.
// Zero is not clamped: it means "unset" and takes the template bound, so
// max_group: 0 yields the template maximum, not its minimum.
type Config struct {
	SpawnChance float64 `yaml:"spawn_chance"` // 0..1
	MinGroup    int     `yaml:"min_group"`    // 0 = template minimum
	MaxGroup    int     `yaml:"max_group"`    // 0 = template maximum
}

// DefaultConfig always spawns a group sized by the template.
func DefaultConfig() Config {
	return Config{SpawnChance: 1}
}

// Validate checks chance and group bounds.
func (c Config) Validate() error {
	switch {
	case c.SpawnChance < 0 || c.SpawnChance > 1:
		return fmt.Errorf("%w: spawn chance %.2f out of [0,1]", ErrInvalidConfig, c.SpawnChance)
	case c.MinGroup < 0 || c.MaxGroup < 0:
		return fmt.Errorf("%w: negative group size", ErrInvalidConfig)
	case c.MaxGroup > 0 && c.MinGroup > c.MaxGroup:
		return fmt.Errorf("%w: min group %d > max group %d", ErrInvalidConfig, c.MinGroup, c.MaxGroup)
	}
	return nil
}

// groupRange clamps the configured range into [tmin, tmax].
func (c Config) groupRange(tmin, tmax int) (lo, hi int) {
	lo, hi = c.MinGroup, c.MaxGroup
	if lo == 0 {
		lo = tmin
	}
	if hi == 0 {
		hi = tmax
	}
	return clamp(lo, tmin, tmax), clamp(hi, tmin, tmax)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
