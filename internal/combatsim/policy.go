package combatsim

import (
	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/game/combat"
	"github.com/udisondev/wasteland/internal/model"
)

// Thresholds of the built-in player policy, as fractions of max health.
const (
	HealBelow    = 0.35
	RetreatBelow = 0.15
)

// healing items in order of preference for a large wound.
var healingItems = []string{"super_stimpak", "stimpak", "healing_powder"}

// ActionKind is what the simulated player does on its turn.
type ActionKind uint8

const (
	ActionAttack ActionKind = iota + 1
	ActionHeal
	ActionRetreat
	ActionSwitch
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionHeal:
		return "heal"
	case ActionRetreat:
		return "retreat"
	case ActionSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Action is one policy decision.
type Action struct {
	Kind   ActionKind
	Item   string // ActionHeal
	Weapon string // ActionSwitch
	Target int    // ActionAttack, index into Snapshot.Enemies
}

// Decide picks the next action for player from the battle snapshot.
// Heal first when wounded, retreat when nearly dead with nothing to heal,
// swap to a usable weapon when out of ammo, otherwise shoot the weakest enemy.
func Decide(snap combat.Snapshot, player *model.Combatant, arsenal []*model.Weapon) Action {
	if snap.Player.MaxHealth > 0 {
		frac := float64(snap.Player.Health) / float64(snap.Player.MaxHealth)
		if frac < HealBelow {
			if item := pickHealing(player, snap.Player.MaxHealth-snap.Player.Health); item != "" {
				return Action{Kind: ActionHeal, Item: item}
			}
		}
		if frac < RetreatBelow {
			return Action{Kind: ActionRetreat}
		}
	}

	if snap.Ammo == 0 || !canFire(player) {
		for _, w := range arsenal {
			if w.Name != snap.Weapon && combat.CanUseWeapon(player, w) {
				return Action{Kind: ActionSwitch, Weapon: w.Name}
			}
		}
		return Action{Kind: ActionRetreat}
	}

	target := weakestEnemy(snap.Enemies)
	if target < 0 {
		target = snap.SelectedTarget
	}
	return Action{Kind: ActionAttack, Target: target}
}

// canFire reports whether the equipped weapon has rounds for a full attack.
// A burst weapon can hold rounds and still be unable to fire.
func canFire(player *model.Combatant) bool {
	w := player.Weapon()
	return w == nil || combat.CanUseWeapon(player, w)
}

// pickHealing returns the smallest item that covers missing health,
// or the strongest one available when none does.
func pickHealing(player *model.Combatant, missing int) string {
	var strongest string
	for i := len(healingItems) - 1; i >= 0; i-- {
		id := healingItems[i]
		if player.Medical().Count(id) == 0 {
			continue
		}
		strongest = id
		if amountOf(id) >= missing {
			return id
		}
	}
	return strongest
}

func amountOf(id string) int {
	it, _ := data.MedicalItemByID(id)
	return it.Heal
}

func weakestEnemy(enemies []combat.CombatantView) int {
	best := -1
	for i, e := range enemies {
		if !e.Alive {
			continue
		}
		if best < 0 || e.Health < enemies[best].Health {
			best = i
		}
	}
	return best
}
