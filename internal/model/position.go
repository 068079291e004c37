package model

// Position — координаты на боевой сетке. Value type.
type Position struct {
	X int
	Y int
}

// WithCoordinates returns a copy moved to x, y.
func (p Position) WithCoordinates(x, y int) Position {
	p.X = x
	p.Y = y
	return p
}

// DistanceSquared returns the squared distance to other (no sqrt).
func (p Position) DistanceSquared(other Position) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}
