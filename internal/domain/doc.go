// Package domain scores sunset quality from averaged evening weather.
//
// # Weather-Feature Strings
//
// Upstream weather data is reduced to a semicolon-delimited key=value string
// covering the evening window before sunset:
//
//	cloud_total_pct=40; cloud_high_pct=10; cloud_mid_pct=25; low_cloud_pct=5;
//	humidity_pct=50; precip_total_mm=0.0; precip_prob_max_pct=0
//
// Keys are case-insensitive and unknown keys are ignored. Values that are not
// numbers (the builder writes "NA") count as missing. See [ParseFeatures] and
// [BuildFeatureString].
//
// # Rule Pipeline
//
// [Score] applies an ordered rule pipeline to a running score. Later rules see
// the result of earlier ones:
//
//	1. base from total cloud cover (peaks at 30-50%, see baseScore)
//	2. rain amount penalty (-8..-45) plus rain chance penalty (-8..-20)
//	3. humidity sweet spot +6 (humidity 35-70, cloud 30-65)
//	4. haze -12, wet haze a further -10
//	5. inferred cloud cover -5
//	6. low cloud ceilings (cap 10/6/3)
//	7. overcast ceilings (cap 18/10/5/3)
//	8. very clear sky -10 or -5
//	9. finalize: round, clamp to [0,100]
//
// Caps only ever lower the score. Every rule that changes the score is
// recorded as an [Adjustment] so [Describe] can explain the result.
//
// # Other Scoring Paths
//
// A generative backend can be asked to score with the same rules
// ([BuildPrompt]); its reply is validated by [ParseModelResponse]. When no
// backend exists, [SyntheticScore] derives a seeded pseudo-score from the
// request itself.
package domain
