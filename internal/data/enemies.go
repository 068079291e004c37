package data

import (
	"slices"

	"github.com/udisondev/wasteland/internal/model"
)

var enemyTemplates = map[string]*model.EnemyTemplate{
	"Giant Rat": {
		Name: "Giant Rat", Type: "creature",
		Level: model.Range{Min: 1, Max: 3}, MaxHealth: 12,
		ArmorID: "rat_hide", WeaponName: "Claws",
		Skills:     map[string]int{SkillUnarmed: 40},
		GroupSize:  model.Range{Min: 2, Max: 5},
		Experience: 25,
		Sprites:    []string{"rat_brown", "rat_grey"},
		Loot: []model.LootEntry{
			{Item: "healing_powder", Kind: model.LootMedical, Chance: 15, Count: model.Range{Min: 1, Max: 1}},
		},
	},
	"Radscorpion": {
		Name: "Radscorpion", Type: "creature",
		Level: model.Range{Min: 3, Max: 6}, MaxHealth: 30,
		ArmorID: "radscorpion_carapace", WeaponName: "Stinger",
		Skills:     map[string]int{SkillUnarmed: 55},
		GroupSize:  model.Range{Min: 1, Max: 3},
		Experience: 60,
		Sprites:    []string{"radscorpion"},
		Loot: []model.LootEntry{
			{Item: "healing_powder", Kind: model.LootMedical, Chance: 30, Count: model.Range{Min: 1, Max: 2}},
		},
	},
	"Raider": {
		Name: "Raider", Type: "human",
		Level: model.Range{Min: 2, Max: 8}, MaxHealth: 40,
		ArmorID: "leather_armor", WeaponName: "9mm Pipe Rifle",
		Skills:     map[string]int{SkillSmallGuns: 45, SkillMelee: 40},
		GroupSize:  model.Range{Min: 1, Max: 4},
		Experience: 75,
		Sprites:    []string{"raider_a", "raider_b", "raider_c"},
		Loot: []model.LootEntry{
			{Item: AmmoMM9, Kind: model.LootAmmo, Chance: 70, Count: model.Range{Min: 3, Max: 12}},
			{Item: AmmoMM10, Kind: model.LootAmmo, Chance: 25, Count: model.Range{Min: 2, Max: 8}},
			{Item: "stimpak", Kind: model.LootMedical, Chance: 20, Count: model.Range{Min: 1, Max: 1}},
		},
	},
	"Feral Ghoul": {
		Name: "Feral Ghoul", Type: "ghoul",
		Level: model.Range{Min: 4, Max: 9}, MaxHealth: 35,
		ArmorID: "ghoul_rags", WeaponName: "Claws",
		Skills:     map[string]int{SkillUnarmed: 50},
		GroupSize:  model.Range{Min: 2, Max: 6},
		Experience: 50,
		Sprites:    []string{"ghoul_feral"},
		Loot: []model.LootEntry{
			{Item: AmmoMM10, Kind: model.LootAmmo, Chance: 10, Count: model.Range{Min: 1, Max: 5}},
		},
	},
	"Super Mutant": {
		Name: "Super Mutant", Type: "mutant",
		Level: model.Range{Min: 8, Max: 14}, MaxHealth: 120,
		ArmorID: "mutant_hide", WeaponName: "Spiked Club",
		Skills:     map[string]int{SkillMelee: 70, SkillBigGuns: 60},
		GroupSize:  model.Range{Min: 1, Max: 2},
		Experience: 200,
		Sprites:    []string{"mutant_green"},
		Loot: []model.LootEntry{
			{Item: AmmoMM5, Kind: model.LootAmmo, Chance: 50, Count: model.Range{Min: 20, Max: 60}},
			{Item: "super_stimpak", Kind: model.LootMedical, Chance: 35, Count: model.Range{Min: 1, Max: 1}},
		},
	},
}

// TemplateByName returns an enemy template. Templates are shared and must not be mutated.
func TemplateByName(name string) (*model.EnemyTemplate, bool) {
	t, ok := enemyTemplates[name]
	return t, ok
}

// TemplateNames returns all template names sorted alphabetically.
func TemplateNames() []string {
	names := make([]string, 0, len(enemyTemplates))
	for name := range enemyTemplates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Templates returns all templates sorted by name.
func Templates() []*model.EnemyTemplate {
	names := TemplateNames()
	out := make([]*model.EnemyTemplate, 0, len(names))
	for _, n := range names {
		out = append(out, enemyTemplates[n])
	}
	return out
}
