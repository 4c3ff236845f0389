package domain

import (
	"math"
	"time"
)

// EveningWindowLead is how far before sunset the evening window opens.
const EveningWindowLead = 3 * time.Hour

// HourlyWeather is one hour of forecast data. Nil fields were not reported.
type HourlyWeather struct {
	Time          time.Time
	CloudTotalPct *float64
	CloudHighPct  *float64
	CloudMidPct   *float64
	LowCloudPct   *float64
	HumidityPct   *float64
	PrecipMM      *float64
	PrecipProbPct *float64
}

// EveningWindow returns the inclusive window [sunset-EveningWindowLead, sunset].
func EveningWindow(sunset time.Time) (time.Time, time.Time) {
	return sunset.Add(-EveningWindowLead), sunset
}

// AggregateEvening reduces the hours inside [from, to] to features: cloud
// and humidity are averaged, precipitation summed and precipitation
// probability maximized. Aggregates with no readings stay missing.
func AggregateEvening(hours []HourlyWeather, from, to time.Time) WeatherFeatures {
	var cloud, high, mid, low, humidity, precip, chance aggregate
	for _, h := range hours {
		if h.Time.Before(from) || h.Time.After(to) {
			continue
		}
		cloud.add(h.CloudTotalPct)
		high.add(h.CloudHighPct)
		mid.add(h.CloudMidPct)
		low.add(h.LowCloudPct)
		humidity.add(h.HumidityPct)
		precip.add(h.PrecipMM)
		chance.add(h.PrecipProbPct)
	}
	return WeatherFeatures{
		CloudTotalPct:    cloud.mean(0),
		CloudHighPct:     high.mean(0),
		CloudMidPct:      mid.mean(0),
		LowCloudPct:      low.mean(0),
		HumidityPct:      humidity.mean(0),
		PrecipTotalMM:    precip.total(1),
		PrecipProbMaxPct: chance.maximum(),
	}
}

// BuildFeatureString renders the evening aggregate as a weather-feature string.
func BuildFeatureString(hours []HourlyWeather, from, to time.Time) string {
	return AggregateEvening(hours, from, to).String()
}

type aggregate struct {
	sum, max float64
	n        int
}

func (a *aggregate) add(v *float64) {
	if v == nil {
		return
	}
	if a.n == 0 || *v > a.max {
		a.max = *v
	}
	a.sum += *v
	a.n++
}

func (a aggregate) mean(decimals int) *float64 {
	if a.n == 0 {
		return nil
	}
	return Float(roundTo(a.sum/float64(a.n), decimals))
}

func (a aggregate) total(decimals int) *float64 {
	if a.n == 0 {
		return nil
	}
	return Float(roundTo(a.sum, decimals))
}

func (a aggregate) maximum() *float64 {
	if a.n == 0 {
		return nil
	}
	return Float(a.max)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
