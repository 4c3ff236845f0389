package domain

import "math/rand/v2"

const (
	syntheticBaseMin    = 40
	syntheticBaseSpan   = 50 // base lands in [40, 89]
	syntheticJitterMax  = 10
	syntheticBoost      = 20
	syntheticBoostBelow = 55
	syntheticBoostOdds  = 0.4
	syntheticCeiling    = 96
)

// SyntheticScore produces a stand-in probability when no generative backend
// is available. The base comes from a hash of location and weather summary;
// the jitter draw and the boost coin-flip come from a generator seeded with
// seed, so equal inputs give equal scores.
func SyntheticScore(location, weatherSummary string, seed int64) int {
	base := syntheticBaseMin + int(stringHash(location+weatherSummary)%syntheticBaseSpan)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	value := base + rng.IntN(syntheticJitterMax+1)
	if value < syntheticBoostBelow && rng.Float64() < syntheticBoostOdds {
		value += syntheticBoost
	}
	return min(value, syntheticCeiling)
}

// stringHash is the 31-multiplier rolling hash over UTF-16 code units,
// truncated to 32 bits and folded to its absolute value.
func stringHash(s string) uint32 {
	var h int32
	for _, r := range s {
		for _, unit := range utf16Units(r) {
			h = 31*h + int32(unit)
		}
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

func utf16Units(r rune) []uint16 {
	if r < 0x10000 {
		return []uint16{uint16(r)}
	}
	r -= 0x10000
	return []uint16{uint16(0xD800 + (r>>10)&0x3FF), uint16(0xDC00 + r&0x3FF)}
}
