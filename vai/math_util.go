package vai

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// InfiniteMap maps a uniform sample in [0, 1) onto (-inf, +inf).
// The mapping is odd around 0.5 and strictly increasing, so most samples land
// near zero while values close to the domain edges produce rare large jumps.
// Samples at or outside the domain edges map to 0.
func InfiniteMap(u float32) float32 {
	if u <= 0 || u >= 1 {
		return 0
	}
	c := u - 0.5
	return 0.5 * c / math32.Sqrt(0.25-c*c)
}

// relu clamps negative values to zero in place.
func relu(values []float32) {
	for i, v := range values {
		values[i] = math32.Max(v, 0)
	}
}

// randIndex draws one uniform sample and floors it into [0, n).
// n is the exclusive upper bound; float rounding can never select past n-1.
func randIndex(rng *rand.Rand, n int) int {
	idx := int(math32.Floor(rng.Float32() * float32(n)))
	if idx >= n {
		idx = n - 1
	}
	return idx
}
