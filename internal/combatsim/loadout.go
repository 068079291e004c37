package combatsim

import (
	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// Arsenal is the set of weapons the simulated player carries, in the order
// the policy falls back to them.
var Arsenal = []string{"Hunting Rifle", "10mm Pistol", "Combat Knife"}

// DefaultLoadout is the state of a freshly created player. Every encounter
// is resupplied with its weapon, armor, ammo and medical items.
func DefaultLoadout() model.PlayerState {
	return model.PlayerState{
		Name:      "Vault Dweller",
		Health:    80,
		MaxHealth: 80,
		Level:     1,
		Skills: map[string]int{
			data.SkillSmallGuns: 75,
			data.SkillMelee:     55,
			data.SkillUnarmed:   40,
			data.SkillMedicine:  30,
		},
		Weapon: "Hunting Rifle",
		Armor:  "leather_armor",
		Ammo: map[string]int{
			data.AmmoMM308: 30,
			data.AmmoMM10:  24,
		},
		Medical: map[string]int{
			"stimpak":        3,
			"healing_powder": 2,
		},
	}
}

func weaponOf(st model.PlayerState) *model.Weapon {
	w, _ := data.WeaponByName(st.Weapon)
	return w
}

var (
	lightings = []model.Lighting{model.LightingBright, model.LightingNormal, model.LightingDim, model.LightingDark}
	weathers  = []model.Weather{model.WeatherClear, model.WeatherRain, model.WeatherFog, model.WeatherStorm}
	times     = []model.TimeOfDay{model.TimeDawn, model.TimeDay, model.TimeDusk, model.TimeNight}
)

// RandomEnvironment rolls lighting, weather and time of day uniformly.
func RandomEnvironment(src rng.Source) model.Environment {
	return model.Environment{
		Lighting:  lightings[src.IntN(len(lightings))],
		Weather:   weathers[src.IntN(len(weathers))],
		TimeOfDay: times[src.IntN(len(times))],
	}
}
