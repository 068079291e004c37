package combat

import (
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// Hit chance bounds in percentage points.
const (
	MinHitChance = 5
	MaxHitChance = 95
)

// baseArmorClass is the armor class that carries no accuracy penalty.
const baseArmorClass = 5

// HitResult is the outcome of a hit roll.
type HitResult struct {
	FinalChance float64 // percent, within [MinHitChance, MaxHitChance]
	IsHit       bool
}

// HitChance computes the clamped chance for attacker to hit defender with weapon.
// env may be nil.
//
//	chance = skill + crit/2 + lighting + weather - max(0, AC-5)*2
func HitChance(attacker *model.Combatant, weapon *model.Weapon, defender *model.Combatant, env *model.Environment) float64 {
	chance := float64(attacker.Skill(weapon.Skill))
	chance += weapon.CriticalChance / 2
	if env != nil {
		chance += float64(env.AccuracyModifier())
	}
	def := DefenseOf(defender.ArmorID())
	chance -= float64(max(0, def.ArmorClass-baseArmorClass) * 2)

	return min(max(chance, MinHitChance), MaxHitChance)
}

// ResolveHit computes the hit chance and rolls it. Exactly one Float64 is drawn.
func ResolveHit(src rng.Source, attacker *model.Combatant, weapon *model.Weapon, defender *model.Combatant, env *model.Environment) HitResult {
	chance := HitChance(attacker, weapon, defender, env)
	return HitResult{
		FinalChance: chance,
		IsHit:       src.Float64()*100 < chance,
	}
}
