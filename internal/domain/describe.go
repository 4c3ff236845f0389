package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxDescriptionLen is the longest description returned to callers.
const MaxDescriptionLen = 200

const (
	minDrivers = 3
	maxDrivers = 4
)

var (
	highLeads = []string{"Vivid sunset ahead", "Strong color expected", "Bright glow incoming"}
	midLeads  = []string{"Moderate color expected", "Some glow ahead", "Middling sunset tonight"}
	lowLeads  = []string{"Muted sunset ahead", "Little color expected", "Flat sunset tonight"}
)

var driverPhrases = map[Driver]string{
	DriverRainAmount:    "rain nearby dulling the horizon",
	DriverRainChance:    "showers threatening the window",
	DriverHumidityBoost: "balanced humidity deepening the tones",
	DriverHaze:          "humid haze muting contrast",
	DriverWetHaze:       "damp air washing out color",
	DriverCloudInferred: "patchy cloud data",
	DriverLowCloud:      "a low ceiling hiding the sun",
	DriverOvercast:      "solid overcast capping the glow",
	DriverVeryClear:     "a bare sky with little to light up",
}

// Describe writes a short, deterministic explanation of a score. It names the
// cloud setup first, then the rules with the largest effect, padding with
// neutral context so at least three drivers appear. The seed only varies the
// opening phrase.
func Describe(f WeatherFeatures, o Outcome, probability int, seed int64) string {
	phrases := []string{cloudPhrase(o.CloudPct)}
	if o.CloudInferred {
		phrases[0] = "no reliable cloud reading"
	}

	ranked := slices.Clone(o.Adjustments)
	slices.SortStableFunc(ranked, func(a, b Adjustment) int {
		return cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta))
	})
	seen := map[Driver]bool{}
	for _, a := range ranked {
		if len(phrases) == maxDrivers {
			break
		}
		if seen[a.Driver] {
			continue
		}
		seen[a.Driver] = true
		phrases = append(phrases, driverPhrases[a.Driver])
	}

	for _, p := range contextPhrases(f, seen) {
		if len(phrases) >= minDrivers {
			break
		}
		phrases = append(phrases, p)
	}

	lead := pickLead(probability, seed)
	desc := render(lead, phrases)
	for len(desc) > MaxDescriptionLen && len(phrases) > minDrivers {
		phrases = phrases[:len(phrases)-1]
		desc = render(lead, phrases)
	}
	return SanitizeDescription(desc)
}

// SanitizeDescription strips quotation marks and bounds the length.
func SanitizeDescription(s string) string {
	s = strings.NewReplacer(`"`, "", "“", "", "”", "", "`", "").Replace(s)
	s = stripSingleQuotes(s)
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= MaxDescriptionLen {
		return s
	}
	// Leave room for the closing period.
	limit := MaxDescriptionLen - 1
	cut := strings.LastIndex(s[:limit], " ")
	if cut <= 0 {
		cut = limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return strings.TrimRight(s[:cut], ",;:") + "."
}

// stripSingleQuotes drops single quote marks used for quoting. A mark between
// two letters is an apostrophe ("don't", "it’s") and is kept.
func stripSingleQuotes(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == '\'' || r == '‘' || r == '’' {
			if i == 0 || i == len(runes)-1 || !unicode.IsLetter(runes[i-1]) || !unicode.IsLetter(runes[i+1]) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cloudPhrase(cloud float64) string {
	switch {
	case cloud < 10:
		return "a nearly empty sky"
	case cloud < 30:
		return "a few scattered clouds"
	case cloud < 50:
		return "broken cloud primed to catch color"
	case cloud < 65:
		return "a well-stocked cloud deck"
	case cloud < 75:
		return "heavy cloud cover"
	case cloud < 90:
		return "thick cloud limiting the light"
	default:
		return "overcast skies blocking the sun"
	}
}

// contextPhrases supplies neutral drivers for calm evenings.
func contextPhrases(f WeatherFeatures, seen map[Driver]bool) []string {
	var out []string
	if !seen[DriverRainAmount] && !seen[DriverRainChance] {
		out = append(out, "dry conditions")
	}
	if f.HumidityPct != nil && !seen[DriverHaze] && !seen[DriverHumidityBoost] {
		out = append(out, fmt.Sprintf("humidity near %d%%", Finalize(*f.HumidityPct)))
	}
	if f.CloudHighPct != nil && *f.CloudHighPct >= 20 {
		out = append(out, "high cloud to reflect the glow")
	}
	return append(out, "calm air")
}

func pickLead(probability int, seed int64) string {
	leads := lowLeads
	switch {
	case probability >= 70:
		leads = highLeads
	case probability >= 40:
		leads = midLeads
	}
	i := seed % int64(len(leads))
	if i < 0 {
		i = -i
	}
	return leads[i]
}

func render(lead string, phrases []string) string {
	var b strings.Builder
	b.WriteString(lead)
	b.WriteString(": ")
	for i, p := range phrases {
		switch {
		case i == 0:
		case i == len(phrases)-1:
			b.WriteString(" and ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(p)
	}
	b.WriteString(".")
	return b.String()
}
