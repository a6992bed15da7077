package transition

import (
	"math"
	"math/bits"
)

// CreditsPerSatoshi is the fixed conversion ratio from asset-lock value to credits.
const CreditsPerSatoshi = 1000

// CreditsFromSatoshis converts an asset-lock output value to credits,
// capping at MaxUint64 on overflow.
func CreditsFromSatoshis(satoshis uint64) uint64 {
	hi, lo := bits.Mul64(satoshis, CreditsPerSatoshi)
	if hi > 0 {
		return math.MaxUint64
	}

	return lo
}
