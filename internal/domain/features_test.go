package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatures(t *testing.T) {
	t.Run("all keys", func(t *testing.T) {
		f := ParseFeatures("cloud_total_pct=40; cloud_high_pct=10; cloud_mid_pct=25; low_cloud_pct=5; humidity_pct=50; precip_total_mm=0.4; precip_prob_max_pct=30")

		require.NotNil(t, f.CloudTotalPct)
		assert.Equal(t, 40.0, *f.CloudTotalPct)
		assert.Equal(t, 10.0, *f.CloudHighPct)
		assert.Equal(t, 25.0, *f.CloudMidPct)
		assert.Equal(t, 5.0, *f.LowCloudPct)
		assert.Equal(t, 50.0, *f.HumidityPct)
		assert.Equal(t, 0.4, *f.PrecipTotalMM)
		assert.Equal(t, 30.0, *f.PrecipProbMaxPct)
		assert.False(t, f.CloudInferred)
	})

	t.Run("keys are case-insensitive and padded", func(t *testing.T) {
		f := ParseFeatures("  Cloud_Total_PCT = 61 ;HUMIDITY_PCT=77")
		require.NotNil(t, f.CloudTotalPct)
		assert.Equal(t, 61.0, *f.CloudTotalPct)
		require.NotNil(t, f.HumidityPct)
		assert.Equal(t, 77.0, *f.HumidityPct)
	})

	t.Run("unknown keys and junk are ignored", func(t *testing.T) {
		f := ParseFeatures("wind_kph=20; garbage; =5; cloud_total_pct=30")
		require.NotNil(t, f.CloudTotalPct)
		assert.Equal(t, 30.0, *f.CloudTotalPct)
		assert.Nil(t, f.HumidityPct)
	})

	t.Run("non-numeric values are missing", func(t *testing.T) {
		f := ParseFeatures("cloud_total_pct=30; humidity_pct=NA; precip_total_mm=lots; precip_prob_max_pct=NaN")
		assert.Nil(t, f.HumidityPct)
		assert.Nil(t, f.PrecipTotalMM)
		assert.Nil(t, f.PrecipProbMaxPct)
	})

	t.Run("out of range values are kept", func(t *testing.T) {
		f := ParseFeatures("cloud_total_pct=140; precip_total_mm=-2")
		assert.Equal(t, 140.0, *f.CloudTotalPct)
		assert.Equal(t, -2.0, *f.PrecipTotalMM)
	})
}

func TestParseFeatures_CloudSubstitution(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     float64
		inferred bool
	}{
		{"total present", "cloud_total_pct=20; cloud_high_pct=70", 20, false},
		{"falls back to high", "cloud_high_pct=70; cloud_mid_pct=30", 70, false},
		{"falls back to mid", "cloud_mid_pct=30", 30, false},
		{"non-numeric total falls back", "cloud_total_pct=NA; cloud_mid_pct=12", 12, false},
		{"defaults to 50", "humidity_pct=40", 50, true},
		{"blank input", "", 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseFeatures(tt.input)
			require.NotNil(t, f.CloudTotalPct)
			assert.Equal(t, tt.want, *f.CloudTotalPct)
			assert.Equal(t, tt.inferred, f.CloudInferred)
		})
	}
}

func TestWeatherFeatures_String(t *testing.T) {
	f := WeatherFeatures{
		CloudTotalPct:    Float(42),
		HumidityPct:      Float(63.5),
		PrecipTotalMM:    Float(0),
		PrecipProbMaxPct: Float(10),
	}

	assert.Equal(t,
		"cloud_total_pct=42; cloud_high_pct=NA; cloud_mid_pct=NA; low_cloud_pct=NA; humidity_pct=63.5; precip_total_mm=0.0; precip_prob_max_pct=10",
		f.String())

	reparsed := ParseFeatures(f.String())
	assert.Equal(t, f, reparsed)
}

func TestWeatherFeatures_StringKeepsInferredCloudMissing(t *testing.T) {
	f := ParseFeatures("humidity_pct=40")
	require.True(t, f.CloudInferred)

	assert.Contains(t, f.String(), "cloud_total_pct=NA")
	assert.Equal(t, f, ParseFeatures(f.String()))
}

func TestPlaceholderSummary(t *testing.T) {
	assert.Equal(t,
		"cloud_total_pct=NA; cloud_high_pct=NA; cloud_mid_pct=NA; low_cloud_pct=NA; humidity_pct=NA; precip_total_mm=NA; precip_prob_max_pct=NA",
		PlaceholderSummary())

	f := ParseFeatures(PlaceholderSummary())
	assert.True(t, f.CloudInferred)
	assert.Nil(t, f.HumidityPct)
}
