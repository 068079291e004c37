package data

import (
	"time"

	"github.com/udisondev/wasteland/internal/model"
)

// Skill names used by weapons and templates.
const (
	SkillSmallGuns     = "small_guns"
	SkillBigGuns       = "big_guns"
	SkillEnergyWeapons = "energy_weapons"
	SkillMelee         = "melee_weapons"
	SkillUnarmed       = "unarmed"
	SkillMedicine      = "medicine"
)

// Ammo type keys.
const (
	AmmoMM9        = "mm_9"
	AmmoMM10       = "mm_10"
	AmmoMM308      = "mm_308"
	AmmoMM5        = "mm_5"
	AmmoEnergyCell = "energy_cell"
)

var weaponTable = map[string]*model.Weapon{
	"10mm Pistol": {
		Name: "10mm Pistol", Skill: SkillSmallGuns, AmmoType: AmmoMM10,
		Damage: model.Range{Min: 5, Max: 12}, ClipSize: 12, ShotsPerAttack: 1,
		Cooldown: 500 * time.Millisecond, CriticalChance: 5, APCost: 4,
	},
	"9mm Pipe Rifle": {
		Name: "9mm Pipe Rifle", Skill: SkillSmallGuns, AmmoType: AmmoMM9,
		Damage: model.Range{Min: 4, Max: 12}, ClipSize: 6, ShotsPerAttack: 1,
		Cooldown: 800 * time.Millisecond, CriticalChance: 4, APCost: 5,
	},
	"Hunting Rifle": {
		Name: "Hunting Rifle", Skill: SkillSmallGuns, AmmoType: AmmoMM308,
		Damage: model.Range{Min: 10, Max: 24}, ClipSize: 5, ShotsPerAttack: 1,
		Cooldown: time.Second, CriticalChance: 10, APCost: 5,
	},
	"Laser Pistol": {
		Name: "Laser Pistol", Skill: SkillEnergyWeapons, AmmoType: AmmoEnergyCell,
		Damage: model.Range{Min: 10, Max: 22}, ClipSize: 12, ShotsPerAttack: 1,
		Cooldown: 500 * time.Millisecond, CriticalChance: 8, APCost: 5,
	},
	"Minigun": {
		Name: "Minigun", Skill: SkillBigGuns, AmmoType: AmmoMM5,
		Damage: model.Range{Min: 7, Max: 11}, ClipSize: 120, ShotsPerAttack: 10,
		Cooldown: 2 * time.Second, CriticalChance: 2, APCost: 6,
	},
	"Combat Knife": {
		Name: "Combat Knife", Skill: SkillMelee, AmmoType: model.AmmoMelee,
		Damage: model.Range{Min: 3, Max: 10}, Cooldown: 300 * time.Millisecond,
		CriticalChance: 10, APCost: 3,
	},
	"Spiked Club": {
		Name: "Spiked Club", Skill: SkillMelee, AmmoType: model.AmmoMelee,
		Damage: model.Range{Min: 4, Max: 9}, Cooldown: 400 * time.Millisecond,
		CriticalChance: 4, APCost: 3,
	},
	"Claws": {
		Name: "Claws", Skill: SkillUnarmed, AmmoType: model.AmmoMelee,
		Damage: model.Range{Min: 2, Max: 6}, CriticalChance: 6, APCost: 3,
	},
	"Stinger": {
		Name: "Stinger", Skill: SkillUnarmed, AmmoType: model.AmmoMelee,
		Damage: model.Range{Min: 5, Max: 10}, CriticalChance: 8, APCost: 4,
		Cooldown: 200 * time.Millisecond,
	},
}

// WeaponByName returns a weapon descriptor. Descriptors are shared and must not be mutated.
func WeaponByName(name string) (*model.Weapon, bool) {
	w, ok := weaponTable[name]
	return w, ok
}

// WeaponNames returns all known weapon names (unordered).
func WeaponNames() []string {
	names := make([]string, 0, len(weaponTable))
	for name := range weaponTable {
		names = append(names, name)
	}
	return names
}
