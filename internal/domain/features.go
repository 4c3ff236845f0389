package domain

import (
	"math"
	"strconv"
	"strings"
)

// Feature keys as they appear in weather-feature strings.
const (
	KeyCloudTotal    = "cloud_total_pct"
	KeyCloudHigh     = "cloud_high_pct"
	KeyCloudMid      = "cloud_mid_pct"
	KeyLowCloud      = "low_cloud_pct"
	KeyHumidity      = "humidity_pct"
	KeyPrecipTotal   = "precip_total_mm"
	KeyPrecipProbMax = "precip_prob_max_pct"
)

// missingValue is written for features without a reading.
const missingValue = "NA"

// defaultCloudPct stands in for cloud cover when no cloud field is usable.
const defaultCloudPct = 50

// WeatherFeatures holds the averaged evening readings. A nil field means the
// reading was missing or not numeric. Values are not range-checked here; the
// scoring rules clamp them.
type WeatherFeatures struct {
	CloudTotalPct    *float64 `json:"cloud_total_pct"`
	CloudHighPct     *float64 `json:"cloud_high_pct"`
	CloudMidPct      *float64 `json:"cloud_mid_pct"`
	LowCloudPct      *float64 `json:"low_cloud_pct"`
	HumidityPct      *float64 `json:"humidity_pct"`
	PrecipTotalMM    *float64 `json:"precip_total_mm"`
	PrecipProbMaxPct *float64 `json:"precip_prob_max_pct"`

	// CloudInferred is set when CloudTotalPct was defaulted because no cloud
	// reading at all was available.
	CloudInferred bool `json:"-"`
}

// ParseFeatures decodes a weather-feature string. It never fails: pairs
// without "=", unknown keys and non-numeric values are skipped. A missing
// total cloud cover is filled from high cloud, then mid cloud, then the
// default of 50 with CloudInferred set.
func ParseFeatures(s string) WeatherFeatures {
	var f WeatherFeatures
	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		field := f.field(strings.ToLower(strings.TrimSpace(key)))
		if field == nil {
			continue
		}
		*field = parseReading(value)
	}
	return f.withResolvedCloud()
}

// String encodes the features in canonical key order, writing NA for missing
// readings. Parsing the result yields the same readings.
func (f WeatherFeatures) String() string {
	cloudTotal := f.CloudTotalPct
	if f.CloudInferred {
		cloudTotal = nil
	}
	parts := []string{
		KeyCloudTotal + "=" + formatPct(cloudTotal),
		KeyCloudHigh + "=" + formatPct(f.CloudHighPct),
		KeyCloudMid + "=" + formatPct(f.CloudMidPct),
		KeyLowCloud + "=" + formatPct(f.LowCloudPct),
		KeyHumidity + "=" + formatPct(f.HumidityPct),
		KeyPrecipTotal + "=" + formatMM(f.PrecipTotalMM),
		KeyPrecipProbMax + "=" + formatPct(f.PrecipProbMaxPct),
	}
	return strings.Join(parts, "; ")
}

// PlaceholderSummary is the all-missing feature string used for blank input.
func PlaceholderSummary() string {
	return WeatherFeatures{}.String()
}

func (f *WeatherFeatures) field(key string) **float64 {
	switch key {
	case KeyCloudTotal:
		return &f.CloudTotalPct
	case KeyCloudHigh:
		return &f.CloudHighPct
	case KeyCloudMid:
		return &f.CloudMidPct
	case KeyLowCloud:
		return &f.LowCloudPct
	case KeyHumidity:
		return &f.HumidityPct
	case KeyPrecipTotal:
		return &f.PrecipTotalMM
	case KeyPrecipProbMax:
		return &f.PrecipProbMaxPct
	default:
		return nil
	}
}

// withResolvedCloud fills CloudTotalPct when it is missing. It is idempotent,
// so Score can call it on hand-built features too.
func (f WeatherFeatures) withResolvedCloud() WeatherFeatures {
	if f.CloudTotalPct != nil {
		return f
	}
	switch {
	case f.CloudHighPct != nil:
		f.CloudTotalPct = Float(*f.CloudHighPct)
	case f.CloudMidPct != nil:
		f.CloudTotalPct = Float(*f.CloudMidPct)
	default:
		f.CloudTotalPct = Float(defaultCloudPct)
		f.CloudInferred = true
	}
	return f
}

func parseReading(value string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatPct(v *float64) string {
	if v == nil {
		return missingValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatMM(v *float64) string {
	if v == nil {
		return missingValue
	}
	if *v == math.Trunc(*v) {
		return strconv.FormatFloat(*v, 'f', 1, 64)
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Float returns a pointer to v, for building features by hand.
func Float(v float64) *float64 {
	return &v
}
