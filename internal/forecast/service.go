// Package forecast turns a coordinate into the evening weather-feature string
// the scoring engine consumes.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/sunsettings/internal/cache"
	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

const cacheName = "forecast"

// Summary is the evening outlook for one coordinate.
type Summary struct {
	Location       string                 `json:"location"`
	Latitude       float64                `json:"latitude"`
	Longitude      float64                `json:"longitude"`
	Sunset         time.Time              `json:"sunset"`
	WeatherSummary string                 `json:"weatherSummary"`
	Features       domain.WeatherFeatures `json:"features"`
}

// Service builds weather summaries from a forecast provider. Forecasts are
// cached per coordinate rounded to two decimals (about 1 km) and concurrent
// fetches for the same cell share one upstream call.
type Service struct {
	provider domain.ForecastProvider
	geocoder domain.Geocoder // nil disables place labels
	store    cache.Cache
	ttl      time.Duration
	group    singleflight.Group
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates a forecast service. geocoder may be nil.
func NewService(provider domain.ForecastProvider, geocoder domain.Geocoder, store cache.Cache, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		geocoder: geocoder,
		store:    store,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// Summarize returns the feature string for the evening window ending at the
// next sunset at or after now, or the last sunset the forecast covers.
func (s *Service) Summarize(ctx context.Context, lat, lon float64) (Summary, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Summary{}, err
	}

	f, err := s.forecast(ctx, lat, lon)
	if err != nil {
		return Summary{}, err
	}

	sunset, ok := f.NextSunset(domain.Now())
	if !ok {
		if len(f.Sunsets) == 0 {
			return Summary{}, fmt.Errorf("%w: forecast for %.4f,%.4f has no sunset", domain.ErrUpstream, lat, lon)
		}
		sunset = f.Sunsets[len(f.Sunsets)-1]
	}

	from, to := domain.EveningWindow(sunset)
	features := domain.AggregateEvening(f.Hours, from, to)

	return Summary{
		Location:       s.label(ctx, lat, lon),
		Latitude:       lat,
		Longitude:      lon,
		Sunset:         sunset,
		WeatherSummary: features.String(),
		Features:       features,
	}, nil
}

// ValidateCoordinates rejects latitudes outside [-90,90] and longitudes
// outside [-180,180].
func ValidateCoordinates(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) {
		return fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidInput, lat)
	}
	if !(lon >= -180 && lon <= 180) {
		return fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidInput, lon)
	}
	return nil
}

func (s *Service) forecast(ctx context.Context, lat, lon float64) (domain.Forecast, error) {
	key := fmt.Sprintf("forecast:%.2f,%.2f", lat, lon)

	var f domain.Forecast
	ok, err := cache.GetJSON(ctx, s.store, key, &f)
	switch {
	case err != nil:
		s.metrics.CacheLookups.WithLabelValues(cacheName, "error").Inc()
		s.logger.Warn("forecast cache read failed", "key", key, "error", err)
	case ok:
		s.metrics.CacheLookups.WithLabelValues(cacheName, "hit").Inc()
		return f, nil
	default:
		s.metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
	}

	// The shared fetch outlives any one caller; the provider's HTTP timeout
	// bounds it. Each caller still stops waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		f, err := s.provider.Forecast(fetchCtx, lat, lon)
		if err != nil {
			return domain.Forecast{}, err
		}
		if err := cache.PutJSON(fetchCtx, s.store, key, f, s.ttl); err != nil {
			s.logger.Warn("forecast cache write failed", "key", key, "error", err)
		}
		return f, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Forecast{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		// No caller can cancel the fetch, so even a deadline here is the upstream's.
		return domain.Forecast{}, fmt.Errorf("%w: %w", domain.ErrUpstream, res.Err)
	}
	return res.Val.(domain.Forecast), nil
}

// label names the coordinate, falling back to the coordinate itself.
func (s *Service) label(ctx context.Context, lat, lon float64) string {
	fallback := fmt.Sprintf("%.4f, %.4f", lat, lon)
	if s.geocoder == nil {
		return fallback
	}
	place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil || place.Label == "" {
		return fallback
	}
	return place.Label
}
