package rng

import "sync"

// Sequence replays fixed values. Used by tests to pin rolls.
//
// Floats are returned in order by Float64; ints in order by IntN (each
// reduced modulo n). When a list runs out it wraps around. Calls counts
// every draw so tests can assert how many rolls an operation made.
type Sequence struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
	fi, ii int
	calls  int
}

// NewSequence creates a replaying source.
func NewSequence(floats []float64, ints []int) *Sequence {
	return &Sequence{floats: floats, ints: ints}
}

// Floats is shorthand for a source that only replays floats.
func Floats(values ...float64) *Sequence {
	return NewSequence(values, nil)
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.ints) == 0 || n <= 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Calls returns the number of draws made so far.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
