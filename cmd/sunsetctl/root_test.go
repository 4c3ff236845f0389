package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sunsettings/internal/domain"
)

const clearEvening = "cloud_total_pct=40; cloud_high_pct=25; humidity_pct=55; precip_total_mm=0; precip_prob_max_pct=10"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root := newRootCmd("test")
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestScore_Text(t *testing.T) {
	out, err := run(t, "score", "--weather", clearEvening)
	require.NoError(t, err)
	assert.Contains(t, out, "probability: 94\n")
	assert.Contains(t, out, "humidity_sweet_spot")
}

func TestScore_JSON(t *testing.T) {
	out, err := run(t, "score", "--weather", clearEvening, "--json")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 94, got.Probability)
	assert.Equal(t, 94, got.Score)
	assert.InDelta(t, 88, got.Base, 0)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, domain.DriverHumidityBoost, got.Adjustments[0].Driver)
	assert.NotEmpty(t, got.Description)
}

func TestScore_BlankUsesPlaceholder(t *testing.T) {
	out, err := run(t, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "probability: 75\n")
	assert.Contains(t, out, "cloud_inferred")
}

func TestFeatures(t *testing.T) {
	out, err := run(t, "features", "--weather", "cloud_high_pct=30; bogus=1")
	require.NoError(t, err)
	assert.Equal(t,
		"cloud_total_pct=30; cloud_high_pct=30; cloud_mid_pct=NA; low_cloud_pct=NA; humidity_pct=NA; precip_total_mm=NA; precip_prob_max_pct=NA\n",
		out)

	out, err = run(t, "features")
	require.NoError(t, err)
	assert.Contains(t, out, domain.PlaceholderSummary())
	assert.Contains(t, out, "cloud cover inferred as 50%")
}

func TestPrompt(t *testing.T) {
	out, err := run(t, "prompt", "--location", "Lisbon", "--weather", clearEvening, "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "--- system ---")
	assert.Contains(t, out, "Location: Lisbon\n")
	assert.Contains(t, out, "Seed: 7")
}

func TestPrompt_RequiresLocation(t *testing.T) {
	_, err := run(t, "prompt", "--weather", clearEvening)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSynth_Deterministic(t *testing.T) {
	first, err := run(t, "synth", "--location", "Lisbon", "--weather", clearEvening, "--seed", "7")
	require.NoError(t, err)
	second, err := run(t, "synth", "--location", "Lisbon", "--weather", clearEvening, "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(first, "probability:")))
	require.NoError(t, err)
	assert.Equal(t, domain.SyntheticScore("Lisbon", clearEvening, 7), p)
}

func TestForecast_InvalidCoordinates(t *testing.T) {
	_, err := run(t, "forecast", "--lat", "95", "--lon", "0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestForecast_RequiresCoordinates(t *testing.T) {
	_, err := run(t, "forecast")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "sunsetctl version test\n", out)
}
