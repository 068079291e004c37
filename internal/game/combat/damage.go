package combat

import (
	"math"

	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// CriticalMultiplier scales base damage on a critical hit.
const CriticalMultiplier = 2

// MinDamage is the least damage a successful hit deals.
const MinDamage = 1

// DamageResult is the outcome of a damage roll.
type DamageResult struct {
	BaseDamage  int
	FinalDamage int
	IsCritical  bool
}

// SkillBonus returns the flat damage bonus for a weapon skill level:
// one point per full 10 skill above 50.
func SkillBonus(skill int) int {
	if skill <= 50 {
		return 0
	}
	return (skill - 50) / 10
}

// ResolveDamage rolls damage for a landed hit. attacker may be nil (no skill bonus).
//
// Draws one IntN for the base roll, then one Float64 for the critical check.
// Mitigation order: threshold (floored at 0), then resistance (floored).
// The result is never below MinDamage.
func ResolveDamage(src rng.Source, weapon *model.Weapon, defender, attacker *model.Combatant) DamageResult {
	base := rng.IntRange(src, weapon.Damage.Min, weapon.Damage.Max)
	critical := src.Float64()*100 < weapon.CriticalChance

	dmg := base
	if critical {
		dmg *= CriticalMultiplier
	}
	if attacker != nil {
		dmg += SkillBonus(attacker.Skill(weapon.Skill))
	}

	def := DefenseOf(defender.ArmorID())
	dmg = max(0, dmg-def.DamageThreshold)
	final := int(math.Floor(float64(dmg)*(1-def.DamageResistance) + 1e-9))

	return DamageResult{
		BaseDamage:  base,
		FinalDamage: max(MinDamage, final),
		IsCritical:  critical,
	}
}
