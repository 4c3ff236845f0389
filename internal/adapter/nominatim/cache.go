package nominatim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/sunsettings/internal/cache"
	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

const cacheName = "geocode"

// CachedGeocoder wraps a Geocoder with a shared cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   cache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, store cache.Cache, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Place, error) {
	// Four decimals is roughly 11 m, well inside one settlement.
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)

	var place domain.Place
	ok, err := cache.GetJSON(ctx, c.store, key, &place)
	switch {
	case err != nil:
		c.metrics.CacheLookups.WithLabelValues(cacheName, "error").Inc()
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	case ok:
		c.metrics.CacheLookups.WithLabelValues(cacheName, "hit").Inc()
		return place, nil
	default:
		c.metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
	}

	place, err = c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return place, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if place.Label != "" {
		if err := cache.PutJSON(ctx, c.store, key, place, c.ttl); err != nil {
			c.logger.Warn("geocode cache write failed", "key", key, "error", err)
		}
	}
	return place, nil
}
