package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTemplate is returned by EnemyTemplate.Validate.
var ErrInvalidTemplate = errors.New("invalid enemy template")

// EnemyTemplate — статическое описание врага.
// Экземпляры создаются spawn.InstanceFactory.
type EnemyTemplate struct {
	Name       string
	Type       string
	Level      Range
	MaxHealth  int
	ArmorID    string
	WeaponName string
	Skills     map[string]int
	GroupSize  Range
	Experience int
	Sprites    []string
	Loot       []LootEntry
}

// LootKind tells which inventory a drop goes to.
type LootKind string

const (
	LootAmmo    LootKind = "ammo"
	LootMedical LootKind = "medical"
)

// LootEntry — одна позиция таблицы дропа.
// Chance в процентах (0-100), Count — диапазон количества.
type LootEntry struct {
	Item   string
	Kind   LootKind
	Chance float64
	Count  Range
}

// Validate checks ranges and numeric fields.
func (t *EnemyTemplate) Validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidTemplate)
	case t.MaxHealth < 1:
		return fmt.Errorf("%w %s: max health %d", ErrInvalidTemplate, t.Name, t.MaxHealth)
	case t.Level.Min < 1 || t.Level.Min > t.Level.Max:
		return fmt.Errorf("%w %s: level range %d-%d", ErrInvalidTemplate, t.Name, t.Level.Min, t.Level.Max)
	case t.GroupSize.Min < 1 || t.GroupSize.Min > t.GroupSize.Max:
		return fmt.Errorf("%w %s: group size %d-%d", ErrInvalidTemplate, t.Name, t.GroupSize.Min, t.GroupSize.Max)
	case t.Experience < 0:
		return fmt.Errorf("%w %s: negative experience", ErrInvalidTemplate, t.Name)
	}
	for _, l := range t.Loot {
		if l.Item == "" || l.Chance < 0 || l.Count.Min < 0 || l.Count.Min > l.Count.Max {
			return fmt.Errorf("%w %s: bad loot entry %q", ErrInvalidTemplate, t.Name, l.Item)
		}
		if l.Kind != LootAmmo && l.Kind != LootMedical {
			return fmt.Errorf("%w %s: loot %q has kind %q", ErrInvalidTemplate, t.Name, l.Item, l.Kind)
		}
	}
	return nil
}
