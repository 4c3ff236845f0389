package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// SeedRange bounds generated seeds to [0, SeedRange).
const SeedRange = 1_000_000

// Source names the path that produced a score.
type Source string

const (
	SourceRules     Source = "rules"
	SourceModel     Source = "model"
	SourceSynthetic Source = "synthetic"
)

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceRules, SourceModel, SourceSynthetic:
		return src, nil
	default:
		return "", fmt.Errorf("unknown scoring source %q", s)
	}
}

// ScoreRequest asks for a sunset score at a location.
type ScoreRequest struct {
	Location       string `json:"location"`
	WeatherSummary string `json:"weatherSummary"`
	Seed           *int64 `json:"seed,omitempty"`
}

// ScoreResult is returned to callers. Probability is nil only when no path
// could produce a number.
type ScoreResult struct {
	Probability *int   `json:"probability"`
	Description string `json:"description"`

	Source Source `json:"-"`
	Seed   int64  `json:"-"`
}

// SeedFunc supplies a seed for requests that omit one.
type SeedFunc func() int64

// RandomSeed draws a seed uniformly from [0, SeedRange).
func RandomSeed() int64 {
	return rand.Int64N(SeedRange)
}

// Normalize validates r and fills defaults: a trimmed location is required,
// a blank summary becomes the all-NA placeholder, long summaries are cut to
// maxSummaryLen runes, and a missing seed is drawn from seeds.
func (r ScoreRequest) Normalize(maxSummaryLen int, seeds SeedFunc) (ScoreRequest, error) {
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return ScoreRequest{}, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}

	r.WeatherSummary = strings.TrimSpace(r.WeatherSummary)
	if r.WeatherSummary == "" {
		r.WeatherSummary = PlaceholderSummary()
	}
	if maxSummaryLen > 0 {
		if runes := []rune(r.WeatherSummary); len(runes) > maxSummaryLen {
			r.WeatherSummary = string(runes[:maxSummaryLen])
		}
	}

	if r.Seed == nil {
		if seeds == nil {
			seeds = RandomSeed
		}
		seed := seeds()
		r.Seed = &seed
	}
	return r, nil
}

// SeedValue returns the request seed, or 0 when unset.
func (r ScoreRequest) SeedValue() int64 {
	if r.Seed == nil {
		return 0
	}
	return *r.Seed
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
