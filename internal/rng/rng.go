// Package rng provides the random source used by combat and spawning.
// Every roll in the game goes through a Source so tests can inject a fixed sequence.
package rng

import (
	"math/rand/v2"
	"sync"
)

// Source is the random source consumed by calculators.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int
}

// IntRange returns a random integer in [lo, hi] inclusive.
// If hi <= lo, lo is returned without consuming randomness.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// global wraps math/rand/v2 top-level functions (safe for concurrent use).
type global struct{}

func (global) Float64() float64 { return rand.Float64() }
func (global) IntN(n int) int   { return rand.IntN(n) }

// Default returns the process-wide source backed by math/rand/v2.
func Default() Source {
	return global{}
}

// Seeded is a reproducible source. Safe for concurrent use.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded creates a PCG-backed source from a seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
