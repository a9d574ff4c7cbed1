package sim

import "math/rand/v2"

// streamSalt separates the PCG stream from the seed so seed 0 still mixes.
const streamSalt = 0x9E3779B97F4A7C15

// NewRand returns the single random source a run draws from.
// The same seed always yields the same sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^streamSalt))
}
