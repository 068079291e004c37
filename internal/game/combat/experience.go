package combat

import (
	"log/slog"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
)

// levelPenaltyPercent is the award reduction per level above the enemy's max level.
const levelPenaltyPercent = 10

// AwardFor returns the experience for defeating an enemy of template t.
// Every level the attacker has above t.Level.Max cuts 10% off; the award
// reaches 0 at ten levels over and never goes negative.
func AwardFor(t *model.EnemyTemplate, attackerLevel int) int {
	if t == nil || t.Experience <= 0 {
		return 0
	}
	reduction := max(0, (attackerLevel-t.Level.Max)*levelPenaltyPercent)
	if reduction >= 100 {
		return 0
	}
	return t.Experience * (100 - reduction) / 100
}

// LevelForExperience returns the level reached with exp cumulative experience.
func LevelForExperience(exp int) int {
	return data.GetLevelForExp(exp, 1)
}

// RewardExperience adds exp to player and applies any level-ups: max health
// grows by data.HealthPerLevel per level and health is restored to full.
// Returns the number of levels gained.
func RewardExperience(player *model.Combatant, exp int) int {
	if exp <= 0 {
		return 0
	}
	player.AddExperience(exp)

	oldLevel := player.Level()
	newLevel := data.GetLevelForExp(player.Experience(), oldLevel)
	if newLevel <= oldLevel {
		return 0
	}

	gained := newLevel - oldLevel
	player.SetLevel(newLevel)
	player.SetMaxHealth(player.MaxHealth() + gained*data.HealthPerLevel)
	player.SetHealth(player.MaxHealth())

	slog.Info("level up",
		"player", player.Name(),
		"level", newLevel,
		"maxHealth", player.MaxHealth())
	return gained
}
