// Package sample provides the randomness source behind every sampled
// behavior in the simulator: persona sampling, fallback selection, and
// response flavoring.
//
// Production code uses a seeded [Selector]; tests inject a fixed
// implementation to make sampled branches deterministic.
package sample

import "math/rand/v2"

// Selector is the randomness source used wherever behavior is sampled.
// *rand.Rand satisfies it.
type Selector interface {
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
}

// New returns a Selector seeded from the given values.
func New(seed1, seed2 uint64) Selector {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// Default returns a Selector with non-deterministic seeding.
func Default() Selector {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Pick returns a uniformly selected element of items, or the zero value when
// items is empty.
func Pick[T any](s Selector, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[s.IntN(len(items))]
}

// Chance reports whether an event with probability p occurred.
func Chance(s Selector, p float64) bool {
	return s.Float64() < p
}

// Between returns a uniform value in [lo, hi] inclusive.
func Between(s Selector, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.IntN(hi-lo+1)
}
