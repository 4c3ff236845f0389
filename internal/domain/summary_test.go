package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEvening(t *testing.T) {
	sunset := time.Date(2026, time.June, 21, 21, 5, 0, 0, time.UTC)
	from, to := EveningWindow(sunset)
	require.Equal(t, time.Date(2026, time.June, 21, 18, 5, 0, 0, time.UTC), from)

	hour := func(h int, cloud, humidity, precip, chance float64) HourlyWeather {
		return HourlyWeather{
			Time:          time.Date(2026, time.June, 21, h, 0, 0, 0, time.UTC),
			CloudTotalPct: Float(cloud),
			HumidityPct:   Float(humidity),
			PrecipMM:      Float(precip),
			PrecipProbPct: Float(chance),
		}
	}
	hours := []HourlyWeather{
		hour(17, 100, 99, 9, 99), // before the window
		hour(19, 30, 50, 0.1, 20),
		hour(20, 40, 60, 0.3, 40),
		{Time: time.Date(2026, time.June, 21, 21, 0, 0, 0, time.UTC), CloudTotalPct: Float(51), LowCloudPct: Float(10)},
		hour(22, 100, 99, 9, 99), // after sunset
	}

	f := AggregateEvening(hours, from, to)

	assert.Equal(t, 40.0, *f.CloudTotalPct)
	assert.Equal(t, 55.0, *f.HumidityPct)
	assert.Equal(t, 0.4, *f.PrecipTotalMM)
	assert.Equal(t, 40.0, *f.PrecipProbMaxPct)
	assert.Equal(t, 10.0, *f.LowCloudPct)
	assert.Nil(t, f.CloudHighPct)
	assert.Nil(t, f.CloudMidPct)
}

func TestBuildFeatureString(t *testing.T) {
	sunset := time.Date(2026, time.June, 21, 21, 0, 0, 0, time.UTC)
	from, to := EveningWindow(sunset)

	got := BuildFeatureString([]HourlyWeather{{
		Time:          sunset.Add(-time.Hour),
		CloudTotalPct: Float(33.3),
		PrecipMM:      Float(0),
	}}, from, to)

	assert.Equal(t,
		"cloud_total_pct=33; cloud_high_pct=NA; cloud_mid_pct=NA; low_cloud_pct=NA; humidity_pct=NA; precip_total_mm=0.0; precip_prob_max_pct=NA",
		got)
	assert.Equal(t, PlaceholderSummary(), BuildFeatureString(nil, from, to))
}

func TestNewAnalysisEvent(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.June, 21, 20, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	req := ScoreRequest{Location: "Lisbon", WeatherSummary: "cloud_total_pct=40"}
	res := ScoreResult{Probability: Int(88), Description: "Bright", Source: SourceRules, Seed: 4}

	ev := NewAnalysisEvent("evt-1", req, res)
	assert.Equal(t, AnalysisEvent{
		ID:             "evt-1",
		Location:       "Lisbon",
		WeatherSummary: "cloud_total_pct=40",
		Seed:           4,
		Probability:    Int(88),
		Description:    "Bright",
		Source:         SourceRules,
		AnalyzedAt:     fakeClock.Now(),
	}, ev)
}

func TestForecast_NextSunset(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, time.June, d, 21, 5, 0, 0, time.UTC) }
	f := Forecast{Sunsets: []time.Time{day(20), day(21), day(22)}}

	got, ok := f.NextSunset(day(21).Add(-time.Hour))
	require.True(t, ok)
	assert.Equal(t, day(21), got)

	got, ok = f.NextSunset(day(21))
	require.True(t, ok)
	assert.Equal(t, day(21), got, "a sunset at the query time still counts")

	_, ok = f.NextSunset(day(22).Add(time.Minute))
	assert.False(t, ok)
}
