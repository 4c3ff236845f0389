package domain

import "math"

// Driver identifies a weather effect that moved the score.
type Driver string

const (
	DriverCloudBase     Driver = "cloud_base"
	DriverRainAmount    Driver = "rain_amount"
	DriverRainChance    Driver = "rain_chance"
	DriverHumidityBoost Driver = "humidity_sweet_spot"
	DriverHaze          Driver = "haze"
	DriverWetHaze       Driver = "wet_haze"
	DriverCloudInferred Driver = "cloud_inferred"
	DriverLowCloud      Driver = "low_cloud_cap"
	DriverOvercast      Driver = "overcast_cap"
	DriverVeryClear     Driver = "very_clear"
)

// Adjustment records one rule that changed the running score. Delta is the
// signed change actually applied; for caps it is the amount removed.
type Adjustment struct {
	Driver Driver  `json:"driver"`
	Delta  float64 `json:"delta"`
	Cap    float64 `json:"cap,omitempty"`
}

// Outcome is the result of the rule pipeline together with its trace.
type Outcome struct {
	Score         int          `json:"score"`
	Base          float64      `json:"base"`
	CloudPct      float64      `json:"cloud_pct"`
	CloudInferred bool         `json:"cloud_inferred"`
	Adjustments   []Adjustment `json:"adjustments"`
}

// Contribution returns the summed delta recorded for driver d.
func (o Outcome) Contribution(d Driver) float64 {
	var total float64
	for _, a := range o.Adjustments {
		if a.Driver == d {
			total += a.Delta
		}
	}
	return total
}

// cloudBucket maps an upper cloud bound (exclusive) to a base score.
type cloudBucket struct {
	below float64
	score float64
}

// baseBuckets is intentionally not monotonic: broken cloud around 30-50%
// catches the most color.
var baseBuckets = []cloudBucket{
	{5, 48},
	{15, 58},
	{30, 68},
	{50, 88},
	{65, 80},
	{75, 68},
	{85, 50},
	{90, 28},
	{95, 16},
	{98, 10},
}

const overcastBase = 6

// baseScore looks up the starting score for a total cloud percentage.
func baseScore(cloud float64) float64 {
	for _, b := range baseBuckets {
		if cloud < b.below {
			return b.score
		}
	}
	return overcastBase
}

// reading is a clamped feature value and whether it was present.
type reading struct {
	v  float64
	ok bool
}

func pct(p *float64) reading {
	if p == nil {
		return reading{}
	}
	return reading{v: math.Min(100, math.Max(0, *p)), ok: true}
}

func mm(p *float64) reading {
	if p == nil {
		return reading{}
	}
	return reading{v: math.Max(0, *p), ok: true}
}

func (r reading) gt(x float64) bool { return r.ok && r.v > x }
func (r reading) ge(x float64) bool { return r.ok && r.v >= x }
func (r reading) lt(x float64) bool { return r.ok && r.v < x }
func (r reading) in(lo, hi float64) bool {
	return r.ok && r.v >= lo && r.v <= hi
}

// scorer carries the running score and trace through the rule pipeline.
type scorer struct {
	score float64
	trace []Adjustment
}

func (s *scorer) add(d Driver, delta float64) {
	if delta == 0 {
		return
	}
	s.score += delta
	s.trace = append(s.trace, Adjustment{Driver: d, Delta: delta})
}

// capAt lowers the score to ceiling. Scores already at or below it are left alone.
func (s *scorer) capAt(d Driver, ceiling float64) {
	if s.score <= ceiling {
		return
	}
	s.trace = append(s.trace, Adjustment{Driver: d, Delta: ceiling - s.score, Cap: ceiling})
	s.score = ceiling
}

// Score runs the rule pipeline over f. The result depends only on f; the
// seed-driven tie-break has no second scoring path to compare against and
// therefore never fires, so Score takes no seed.
func Score(f WeatherFeatures) Outcome {
	f = f.withResolvedCloud()

	cloud := pct(f.CloudTotalPct)
	high := pct(f.CloudHighPct)
	low := pct(f.LowCloudPct)
	humidity := pct(f.HumidityPct)
	rain := mm(f.PrecipTotalMM)
	rainChance := pct(f.PrecipProbMaxPct)

	base := baseScore(cloud.v)
	s := &scorer{score: base}

	s.add(DriverRainAmount, rainAmountPenalty(rain))
	s.add(DriverRainChance, rainChancePenalty(rainChance))

	// The cloud band also keeps the boost away from heavy overcast (>= 75%).
	if humidity.in(35, 70) && cloud.in(30, 65) {
		s.add(DriverHumidityBoost, 6)
	}

	if humidity.gt(85) && (high.gt(60) || cloud.gt(70)) {
		s.add(DriverHaze, -12)
		if rainChance.gt(40) || rain.gt(0.2) {
			s.add(DriverWetHaze, -10)
		}
	}

	if f.CloudInferred {
		s.add(DriverCloudInferred, -5)
	}

	if ceiling, ok := lowCloudCeiling(low, cloud, humidity, rain); ok {
		s.capAt(DriverLowCloud, ceiling)
	}
	if ceiling, ok := overcastCeiling(cloud, rainChance, rain); ok {
		s.capAt(DriverOvercast, ceiling)
	}

	if cloud.lt(10) {
		if humidity.lt(35) {
			s.add(DriverVeryClear, -10)
		} else {
			s.add(DriverVeryClear, -5)
		}
	}

	return Outcome{
		Score:         Finalize(s.score),
		Base:          base,
		CloudPct:      cloud.v,
		CloudInferred: f.CloudInferred,
		Adjustments:   s.trace,
	}
}

// Finalize rounds x to the nearest integer and clamps it to [0,100].
func Finalize(x float64) int {
	return int(math.Min(100, math.Max(0, math.Round(x))))
}

// rainAmountPenalty picks the single largest threshold crossed.
func rainAmountPenalty(rain reading) float64 {
	switch {
	case rain.gt(5.0):
		return -45
	case rain.gt(3.0):
		return -35
	case rain.gt(1.0):
		return -25
	case rain.gt(0.2):
		return -15
	case rain.gt(0):
		return -8
	default:
		return 0
	}
}

func rainChancePenalty(chance reading) float64 {
	switch {
	case chance.ge(85):
		return -20
	case chance.ge(70):
		return -14
	case chance.ge(50):
		return -8
	default:
		return 0
	}
}

// lowCloudCeiling returns the tightest low-cloud cap that applies. Without a
// low cloud reading, near-total cloud with damp air stands in for it.
func lowCloudCeiling(low, cloud, humidity, rain reading) (float64, bool) {
	if low.ok {
		switch {
		case low.ge(98):
			return 3, true
		case low.ge(92):
			return 6, true
		case low.ge(85):
			return 10, true
		}
		return 0, false
	}
	if cloud.ge(92) && (humidity.gt(80) || rain.gt(0.2)) {
		return 6, true
	}
	return 0, false
}

func overcastCeiling(cloud, rainChance, rain reading) (float64, bool) {
	switch {
	case cloud.ge(98) && (rainChance.ge(50) || rain.gt(0.1)):
		return 3, true
	case cloud.ge(98):
		return 5, true
	case cloud.ge(95):
		return 10, true
	case cloud.ge(90):
		return 18, true
	}
	return 0, false
}
