package domain

import (
	"fmt"
	"strings"
)

// Prompt is the system/user message pair sent to a generative backend.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = `You are a sunset forecaster. Score how vivid tonight's sunset will be as an integer probability from 0 to 100.
Apply these rules in order to a running score. Later rules see earlier results.

1. Base score from cloud_total_pct: <5 -> 48; 5-15 -> 58; 15-30 -> 68; 30-50 -> 88; 50-65 -> 80; 65-75 -> 68; 75-85 -> 50; 85-90 -> 28; 90-95 -> 16; 95-98 -> 10; >=98 -> 6.
   If cloud_total_pct is NA use cloud_high_pct, then cloud_mid_pct; if both are NA use 50 and remember the cloud value was inferred.
2. Rain amount, largest threshold only: precip_total_mm >0 -> -8; >0.2 -> -15; >1.0 -> -25; >3.0 -> -35; >5.0 -> -45.
   Rain chance, additionally, largest threshold only: precip_prob_max_pct >=50 -> -8; >=70 -> -14; >=85 -> -20.
3. If humidity_pct is 35-70 and cloud_total_pct is 30-65: +6. Never when cloud_total_pct >= 75.
4. If humidity_pct >85 and (cloud_high_pct >60 or cloud_total_pct >70): -12; if also (precip_prob_max_pct >40 or precip_total_mm >0.2): a further -10.
5. If the cloud value was inferred: -5.
6. Low cloud ceilings: low_cloud_pct >=85 -> at most 10; >=92 -> at most 6; >=98 -> at most 3.
   If low_cloud_pct is NA but cloud_total_pct >=92 and (humidity_pct >80 or precip_total_mm >0.2): at most 6.
7. Overcast ceilings: cloud_total_pct >=90 -> at most 18; >=95 -> at most 10; >=98 -> at most 5; >=98 with (precip_prob_max_pct >=50 or precip_total_mm >0.1) -> at most 3.
   The tightest ceiling wins. Ceilings never raise the score.
8. If cloud_total_pct <10: humidity_pct <35 -> -10, otherwise -5.
9. Round to the nearest integer and clamp to 0-100.

Treat NA values as missing; a rule that needs a missing value does not apply.
Write a description of at most 200 characters naming 3 or 4 weather drivers behind the score. Be vivid and direct, no hedging, no quotation marks.
Reply with JSON only: {"probability": <integer>, "description": "<text>"}`

// BuildPrompt renders the scoring prompt. Identical inputs give identical
// prompts; the seed is passed through so the backend can vary its wording.
func BuildPrompt(location, weatherSummary string, seed int64) Prompt {
	f := ParseFeatures(weatherSummary)

	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s\n", location)
	fmt.Fprintf(&b, "Evening weather: %s\n", f)
	if f.CloudInferred {
		b.WriteString("Note: no cloud reading was available; cloud_total_pct is inferred.\n")
	}
	fmt.Fprintf(&b, "Seed: %d", seed)

	return Prompt{System: systemPrompt, User: b.String()}
}
