package data

import "github.com/udisondev/wasteland/internal/model"

var armorTable = map[string]model.Armor{
	"scrap_armor":          {ID: "scrap_armor", Name: "Scrap Armor", ArmorClass: 5, DamageThreshold: 2, DamageResistance: 0.10},
	"leather_jacket":       {ID: "leather_jacket", Name: "Leather Jacket", ArmorClass: 8, DamageThreshold: 0, DamageResistance: 0.20},
	"leather_armor":        {ID: "leather_armor", Name: "Leather Armor", ArmorClass: 15, DamageThreshold: 2, DamageResistance: 0.25},
	"metal_armor":          {ID: "metal_armor", Name: "Metal Armor", ArmorClass: 10, DamageThreshold: 4, DamageResistance: 0.30},
	"combat_armor":         {ID: "combat_armor", Name: "Combat Armor", ArmorClass: 20, DamageThreshold: 5, DamageResistance: 0.40},
	"power_armor":          {ID: "power_armor", Name: "Power Armor", ArmorClass: 25, DamageThreshold: 12, DamageResistance: 0.40},
	"rat_hide":             {ID: "rat_hide", Name: "Rat Hide", ArmorClass: 2},
	"radscorpion_carapace": {ID: "radscorpion_carapace", Name: "Radscorpion Carapace", ArmorClass: 10, DamageThreshold: 3, DamageResistance: 0.20},
	"mutant_hide":          {ID: "mutant_hide", Name: "Mutant Hide", ArmorClass: 12, DamageThreshold: 4, DamageResistance: 0.35},
	"ghoul_rags":           {ID: "ghoul_rags", Name: "Ghoul Rags", ArmorClass: 5, DamageResistance: 0.10},
}

// ArmorByID returns the armor descriptor for id.
func ArmorByID(id string) (model.Armor, bool) {
	a, ok := armorTable[id]
	return a, ok
}
