package openforest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// Distance returns the Euclidean distance between two points.
func Distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DeterministicRNG derives a PRNG from the match seed and a sequence
// of key parts, folding their decimal/string forms into SHA-256 and
// seeding from the first 64 bits of the digest. Streams drawn this way
// (ping jitter, for one) reproduce regardless of how many draws any
// other system has consumed.
func DeterministicRNG(seed int64, parts ...any) *rand.Rand {
	h := sha256.New()
	fmt.Fprintf(h, "%d", seed)
	for _, part := range parts {
		h.Write([]byte{':'})
		fmt.Fprint(h, part)
	}
	digest := hex.EncodeToString(h.Sum(nil))
	n, _ := strconv.ParseUint(digest[:16], 16, 64)
	return rand.New(rand.NewSource(int64(n)))
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
