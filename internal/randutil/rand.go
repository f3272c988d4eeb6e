// Package randutil centralizes how the explorer derives deterministic RNG
// streams: every worker goroutine and segment-sampling decision must be
// reproducible from a single seed, so the mixing lives in one place.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed, combined
// with a per-stream discriminator (typically a thread index). Two calls
// with the same (seed, stream) always produce the same sequence.
func New(seed int64, stream int64) *rand.Rand {
	u := uint64(seed) + uint64(stream)*goldenRatio64
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
