// Package combat resolves turn-based encounters: defense lookup, ammo,
// hit chance, damage, experience and the per-encounter battle state machine.
package combat

import "github.com/udisondev/wasteland/internal/data"

// Defense is the effective protection of an equipped armor piece.
type Defense struct {
	ArmorClass       int
	DamageThreshold  int
	DamageResistance float64
}

// DefenseOf returns the defense for armorID. Unknown ids mean no armor.
func DefenseOf(armorID string) Defense {
	a, ok := data.ArmorByID(armorID)
	if !ok {
		return Defense{}
	}
	return Defense{
		ArmorClass:       a.ArmorClass,
		DamageThreshold:  a.DamageThreshold,
		DamageResistance: a.DamageResistance,
	}
}
