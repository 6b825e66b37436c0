package sim

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness consumed by Generate and Step. *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int) int
}

var _ Source = (*rand.Rand)(nil)

// NewSource returns a deterministic PCG-backed source. A zero seed is replaced by the
// current time so that unconfigured runs differ.
func NewSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
