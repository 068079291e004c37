package model

import (
	"errors"
	"fmt"
	"time"
)

// AmmoMelee marks a weapon that needs no ammunition.
const AmmoMelee = "melee"

// ErrInvalidWeapon is returned by Weapon.Validate.
var ErrInvalidWeapon = errors.New("invalid weapon")

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Weapon — неизменяемое описание оружия.
type Weapon struct {
	Name           string        `yaml:"name"`
	Skill          string        `yaml:"skill"`
	AmmoType       string        `yaml:"ammo_type"`
	Damage         Range         `yaml:"damage"`
	ClipSize       int           `yaml:"clip_size"`
	ShotsPerAttack int           `yaml:"shots_per_attack"`
	Cooldown       time.Duration `yaml:"cooldown"`
	CriticalChance float64       `yaml:"critical_chance"` // percent, 0-100
	APCost         int           `yaml:"ap_cost"`
}

// IsMelee reports whether the weapon has unlimited ammo.
func (w *Weapon) IsMelee() bool {
	return w.AmmoType == "" || w.AmmoType == AmmoMelee
}

// Validate checks weapon invariants: min <= max, no negative numbers.
func (w *Weapon) Validate() error {
	switch {
	case w.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidWeapon)
	case w.Damage.Min < 0 || w.Damage.Max < 0:
		return fmt.Errorf("%w %s: negative damage", ErrInvalidWeapon, w.Name)
	case w.Damage.Min > w.Damage.Max:
		return fmt.Errorf("%w %s: damage min %d > max %d", ErrInvalidWeapon, w.Name, w.Damage.Min, w.Damage.Max)
	case w.ClipSize < 0, w.ShotsPerAttack < 0, w.Cooldown < 0, w.APCost < 0:
		return fmt.Errorf("%w %s: negative field", ErrInvalidWeapon, w.Name)
	case w.CriticalChance < 0 || w.CriticalChance > 100:
		return fmt.Errorf("%w %s: critical chance %.1f out of [0,100]", ErrInvalidWeapon, w.Name, w.CriticalChance)
	}
	return nil
}
