package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sunsettings/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const lisbonForecast = `{
  "latitude": 38.72,
  "longitude": -9.14,
  "utc_offset_seconds": 3600,
  "timezone": "Europe/Lisbon",
  "hourly": {
    "time": ["2026-06-21T19:00", "2026-06-21T20:00", "2026-06-21T21:00"],
    "cloud_cover": [30, 40, null],
    "cloud_cover_low": [0, 5, 10],
    "cloud_cover_mid": [10, 20, 30],
    "cloud_cover_high": [40, 50, 60],
    "relative_humidity_2m": [55, 60, 65],
    "precipitation": [0.0, 0.1, 0.0],
    "precipitation_probability": [5, 10]
  },
  "daily": {
    "time": ["2026-06-21", "2026-06-22"],
    "sunset": ["2026-06-21T21:05", ""]
  }
}`

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "38.7223", q.Get("latitude"))
		assert.Equal(t, "-9.1393", q.Get("longitude"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "sunset", q.Get("daily"))
		assert.Contains(t, q.Get("hourly"), "cloud_cover_high")
		assert.Contains(t, q.Get("hourly"), "precipitation_probability")

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(lisbonForecast))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	f, err := c.Forecast(context.Background(), 38.7223, -9.1393)
	require.NoError(t, err)

	require.Len(t, f.Hours, 3)
	loc := time.FixedZone("Europe/Lisbon", 3600)
	assert.True(t, f.Hours[0].Time.Equal(time.Date(2026, time.June, 21, 19, 0, 0, 0, loc)))
	assert.Equal(t, 30.0, *f.Hours[0].CloudTotalPct)
	assert.Nil(t, f.Hours[2].CloudTotalPct, "null values stay missing")
	assert.Nil(t, f.Hours[2].PrecipProbPct, "short series stay missing")
	assert.Equal(t, 60.0, *f.Hours[2].CloudHighPct)

	require.Len(t, f.Sunsets, 1, "empty sunsets are skipped")
	assert.True(t, f.Sunsets[0].Equal(time.Date(2026, time.June, 21, 20, 5, 0, 0, time.UTC)))
}

func TestClient_Forecast_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":true,"reason":"Latitude must be in range"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Forecast(context.Background(), 123, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamErrors.WithLabelValues(upstream)))
}

func TestClient_Forecast_BadTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"time":["yesterday"]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse hourly time")
}

func TestClient_Forecast_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
