package core

import "math/rand"

// Source supplies the pseudo-randomness consumed by the detector, the
// planner and the population generator. It is injected everywhere a
// draw happens so tests can substitute a fixed sequence.
type Source interface {
	// Float64 returns a draw in [0, 1).
	Float64() float64
	// Intn returns a draw in [0, n).
	Intn(n int) int
}

// NewRandSource returns a seeded math/rand-backed Source. The same
// seed replays the same draw sequence.
func NewRandSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
