package combat

import (
	"errors"
	"fmt"

	"github.com/udisondev/wasteland/internal/model"
)

// Attack precondition failures. Reported to the player, never fatal.
var (
	ErrNoTarget      = errors.New("no target selected")
	ErrTargetDead    = errors.New("target is dead")
	ErrAttackerDead  = errors.New("attacker is dead")
	ErrNoWeapon      = errors.New("no weapon equipped")
	ErrOnCooldown    = errors.New("weapon is cooling down")
	ErrOutOfAmmo     = errors.New("out of ammo")
	ErrNoActionPoint = errors.New("not enough action points")
)

// ValidateAttack checks everything an attack needs before any roll is made.
//
// Checks:
//   - Target exists and is alive
//   - Attacker alive
//   - Weapon equipped and off cooldown
//   - Ammo for one attack
//   - Action points for the weapon's AP cost
func ValidateAttack(attacker, target *model.Combatant, cooldowns *CooldownTracker) error {
	if target == nil {
		return ErrNoTarget
	}
	if attacker.IsDead() {
		return ErrAttackerDead
	}
	if target.IsDead() {
		return fmt.Errorf("%s: %w", target.Name(), ErrTargetDead)
	}

	weapon := attacker.Weapon()
	if weapon == nil {
		return ErrNoWeapon
	}
	if cooldowns != nil {
		if left := cooldowns.Remaining(weapon); left > 0 {
			return fmt.Errorf("%s: %w (%s left)", weapon.Name, ErrOnCooldown, left)
		}
	}
	if !CanUseWeapon(attacker, weapon) {
		return fmt.Errorf("%s: %w", weapon.Name, ErrOutOfAmmo)
	}
	if ap, _ := attacker.ActionPoints(); ap < weapon.APCost {
		return fmt.Errorf("%s needs %d AP, have %d: %w", weapon.Name, weapon.APCost, ap, ErrNoActionPoint)
	}
	return nil
}
