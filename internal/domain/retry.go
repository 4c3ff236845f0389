package domain

// suspiciousProbability is a value synthetic paths collide on often enough
// to be treated as a likely duplicate.
const suspiciousProbability = 75

// ShouldRetry reports whether a caller may want a second attempt: the
// probability equals the known collision value, or repeats the previous
// result for the same location. previous is nil when there is none.
// This is caller policy; the scoring paths never retry on their own.
func ShouldRetry(probability int, previous *int) bool {
	if probability == suspiciousProbability {
		return true
	}
	return previous != nil && *previous == probability
}
