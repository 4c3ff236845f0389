package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

const upstream = "open_meteo"

// localTimeLayout is how Open-Meteo writes times when timezone=auto.
const localTimeLayout = "2006-01-02T15:04"

var hourlyFields = []string{
	"cloud_cover",
	"cloud_cover_low",
	"cloud_cover_mid",
	"cloud_cover_high",
	"relative_humidity_2m",
	"precipitation",
	"precipitation_probability",
}

// Client implements domain.ForecastProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo forecast client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Forecast fetches two days of hourly weather and daily sunsets, in the
// location's own time zone.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (domain.Forecast, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', 4, 64)},
		"hourly":        {strings.Join(hourlyFields, ",")},
		"daily":         {"sunset"},
		"timezone":      {"auto"},
		"forecast_days": {"2"},
	}

	start := time.Now()
	f, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues(upstream).Inc()
		c.logger.Warn("forecast request failed", "lat", lat, "lon", lon, "error", err)
		return domain.Forecast{}, err
	}
	return f, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Forecast{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Forecast{}, fmt.Errorf("decode response: %w", err)
	}
	return r.toForecast()
}

// Open-Meteo API response types. Values are null where the model has no data.

type response struct {
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Timezone         string `json:"timezone"`
	Hourly           hourly `json:"hourly"`
	Daily            daily  `json:"daily"`
}

type hourly struct {
	Time                     []string   `json:"time"`
	CloudCover               []*float64 `json:"cloud_cover"`
	CloudCoverLow            []*float64 `json:"cloud_cover_low"`
	CloudCoverMid            []*float64 `json:"cloud_cover_mid"`
	CloudCoverHigh           []*float64 `json:"cloud_cover_high"`
	RelativeHumidity2m       []*float64 `json:"relative_humidity_2m"`
	Precipitation            []*float64 `json:"precipitation"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
}

type daily struct {
	Time   []string `json:"time"`
	Sunset []string `json:"sunset"`
}

func (r response) toForecast() (domain.Forecast, error) {
	loc := time.FixedZone(r.Timezone, r.UTCOffsetSeconds)

	hours := make([]domain.HourlyWeather, 0, len(r.Hourly.Time))
	for i, ts := range r.Hourly.Time {
		t, err := time.ParseInLocation(localTimeLayout, ts, loc)
		if err != nil {
			return domain.Forecast{}, fmt.Errorf("parse hourly time %q: %w", ts, err)
		}
		hours = append(hours, domain.HourlyWeather{
			Time:          t,
			CloudTotalPct: at(r.Hourly.CloudCover, i),
			CloudHighPct:  at(r.Hourly.CloudCoverHigh, i),
			CloudMidPct:   at(r.Hourly.CloudCoverMid, i),
			LowCloudPct:   at(r.Hourly.CloudCoverLow, i),
			HumidityPct:   at(r.Hourly.RelativeHumidity2m, i),
			PrecipMM:      at(r.Hourly.Precipitation, i),
			PrecipProbPct: at(r.Hourly.PrecipitationProbability, i),
		})
	}

	sunsets := make([]time.Time, 0, len(r.Daily.Sunset))
	for _, ts := range r.Daily.Sunset {
		if ts == "" {
			// Polar day or night.
			continue
		}
		t, err := time.ParseInLocation(localTimeLayout, ts, loc)
		if err != nil {
			return domain.Forecast{}, fmt.Errorf("parse sunset %q: %w", ts, err)
		}
		sunsets = append(sunsets, t)
	}

	return domain.Forecast{Hours: hours, Sunsets: sunsets}, nil
}

// at tolerates series shorter than the time axis.
func at(series []*float64, i int) *float64 {
	if i >= len(series) {
		return nil
	}
	return series[i]
}
