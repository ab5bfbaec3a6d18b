package infer

import "math/rand/v2"

// maxGeneratedSeed bounds generated seeds to the engine's comfortable range.
const maxGeneratedSeed = 1_000_000_000

// ensureSeed returns the caller's seed, or generates a positive one when the
// caller left it unset. The returned value is always recorded on the run's
// report, so a run is reproducible whether or not the caller chose the seed.
func ensureSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return rand.Int64N(maxGeneratedSeed-1) + 1
}
