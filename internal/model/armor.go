package model

// Armor — неизменяемое описание брони.
type Armor struct {
	ID               string
	Name             string
	ArmorClass       int
	DamageThreshold  int
	DamageResistance float64 // 0..1
}
