// Package randutil derives reproducible random streams for simulations.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// ForGame returns the stream for game number index of a run seeded with
// seed. Streams for different indexes are independent of how games are
// spread across workers.
func ForGame(seed int64, index int) *rand.Rand {
	return New(int64(mix(uint64(seed) ^ mix(uint64(index)+goldenRatio64))))
}

// Cuts draws n cut points in [1,51]
func Cuts(r *rand.Rand, n int) []int {
	cuts := make([]int, n)
	for i := range cuts {
		cuts[i] = 1 + r.IntN(51)
	}
	return cuts
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
