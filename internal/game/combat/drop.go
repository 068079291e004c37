package combat

import (
	"log/slog"

	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/rng"
)

// LootRates scales drop chances and amounts.
type LootRates struct {
	ChanceMultiplier float64 `yaml:"chance_multiplier"`
	AmountMultiplier float64 `yaml:"amount_multiplier"`
}

// DefaultLootRates leaves template values unchanged.
func DefaultLootRates() LootRates {
	return LootRates{ChanceMultiplier: 1, AmountMultiplier: 1}
}

// Drop is one looted stack.
type Drop struct {
	Item  string
	Kind  model.LootKind
	Count int
}

// CalculateDrops rolls the loot table of t.
//
// For every entry:
//  1. Roll chance (entry.Chance × rates.ChanceMultiplier); chances ≥ 100 skip the roll.
//  2. Count = random(min..max) × rates.AmountMultiplier.
//  3. Append if count > 0.
func CalculateDrops(src rng.Source, t *model.EnemyTemplate, rates LootRates) []Drop {
	if t == nil || len(t.Loot) == 0 {
		return nil
	}
	if rates.ChanceMultiplier <= 0 {
		rates.ChanceMultiplier = 1
	}
	if rates.AmountMultiplier <= 0 {
		rates.AmountMultiplier = 1
	}

	var drops []Drop
	for _, entry := range t.Loot {
		chance := entry.Chance * rates.ChanceMultiplier
		if chance <= 0 {
			continue
		}
		if chance < 100 && src.Float64()*100 >= chance {
			continue
		}

		lo := max(1, entry.Count.Min)
		hi := max(lo, entry.Count.Max)
		count := int(float64(rng.IntRange(src, lo, hi)) * rates.AmountMultiplier)
		if count <= 0 {
			continue
		}
		drops = append(drops, Drop{Item: entry.Item, Kind: entry.Kind, Count: count})
	}
	return drops
}

// ApplyDrops puts drops into the receiver's inventories.
func ApplyDrops(receiver *model.Combatant, drops []Drop) {
	for _, d := range drops {
		var err error
		switch d.Kind {
		case model.LootAmmo:
			err = AddAmmo(receiver, d.Item, d.Count)
		case model.LootMedical:
			err = receiver.Medical().Add(d.Item, d.Count)
		}
		if err != nil {
			slog.Error("failed to apply loot",
				"receiver", receiver.Name(),
				"item", d.Item,
				"error", err)
		}
	}
}
