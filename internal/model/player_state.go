package model

import "fmt"

// PlayerState — сериализуемое состояние игрока (граница persistence).
type PlayerState struct {
	Name       string         `json:"name"`
	Health     int            `json:"health"`
	MaxHealth  int            `json:"maxHealth"`
	Experience int            `json:"experience"`
	Level      int            `json:"level"`
	Skills     map[string]int `json:"skills"`
	Weapon     string         `json:"weapon"`
	Armor      string         `json:"armor"`
	Ammo       map[string]int `json:"ammo"`
	Medical    map[string]int `json:"medical"`
}

// PlayerFromState builds a player combatant. weapon may be nil (unarmed).
func PlayerFromState(id string, st PlayerState, weapon *Weapon) (*Combatant, error) {
	name := st.Name
	if name == "" {
		name = "Wanderer"
	}
	c, err := NewCombatant(id, name, KindPlayer, st.Level, st.MaxHealth)
	if err != nil {
		return nil, fmt.Errorf("restoring player %s: %w", id, err)
	}
	c.SetHealth(st.Health)
	c.AddExperience(st.Experience)
	for k, v := range st.Skills {
		c.SetSkill(k, v)
	}
	c.SetWeapon(weapon)
	c.SetArmorID(st.Armor)
	for k, v := range st.Ammo {
		c.Ammo().Set(k, v)
	}
	for k, v := range st.Medical {
		c.Medical().Set(k, v)
	}
	return c, nil
}

// State exports the combatant as a serializable player state.
func (c *Combatant) State() PlayerState {
	st := PlayerState{
		Name:       c.Name(),
		Health:     c.Health(),
		MaxHealth:  c.MaxHealth(),
		Experience: c.Experience(),
		Level:      c.Level(),
		Skills:     c.Skills(),
		Armor:      c.ArmorID(),
		Ammo:       c.Ammo().Snapshot(),
		Medical:    c.Medical().Snapshot(),
	}
	if w := c.Weapon(); w != nil {
		st.Weapon = w.Name
	}
	return st
}
