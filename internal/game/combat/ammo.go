package combat

import (
	"fmt"

	"github.com/udisondev/wasteland/internal/model"
)

// Unlimited is reported as remaining ammo and possible shots for melee weapons.
const Unlimited = -1

// shotsPerAttack returns the rounds one attack consumes (at least 1 for ranged weapons).
func shotsPerAttack(w *model.Weapon) int {
	return max(1, w.ShotsPerAttack)
}

// CanUseWeapon reports whether c carries enough ammo for one attack with w.
func CanUseWeapon(c *model.Combatant, w *model.Weapon) bool {
	if w == nil {
		return false
	}
	if w.IsMelee() {
		return true
	}
	return c.Ammo().Count(w.AmmoType) >= shotsPerAttack(w)
}

// ConsumeAmmo takes one attack's worth of rounds. Either the full amount is
// taken and true returned, or the inventory is left untouched.
func ConsumeAmmo(c *model.Combatant, w *model.Weapon) bool {
	if w == nil {
		return false
	}
	if w.IsMelee() {
		return true
	}
	return c.Ammo().Take(w.AmmoType, shotsPerAttack(w))
}

// RemainingAmmo returns rounds of w's ammo type, or Unlimited for melee.
func RemainingAmmo(c *model.Combatant, w *model.Weapon) int {
	if w.IsMelee() {
		return Unlimited
	}
	return c.Ammo().Count(w.AmmoType)
}

// PossibleShots returns how many attacks the carried ammo allows, or Unlimited for melee.
func PossibleShots(c *model.Combatant, w *model.Weapon) int {
	if w.IsMelee() {
		return Unlimited
	}
	return c.Ammo().Count(w.AmmoType) / shotsPerAttack(w)
}

// AddAmmo adds looted or bought rounds.
func AddAmmo(c *model.Combatant, ammoType string, n int) error {
	if ammoType == "" || ammoType == model.AmmoMelee {
		return fmt.Errorf("add ammo: invalid type %q", ammoType)
	}
	if err := c.Ammo().Add(ammoType, n); err != nil {
		return fmt.Errorf("add ammo %s: %w", ammoType, err)
	}
	return nil
}
