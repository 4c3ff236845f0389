package domain

import (
	"context"
	"time"
)

// Place is a human-readable label for a coordinate.
type Place struct {
	Label       string // e.g. "Lisbon, PT"
	DisplayName string // full provider address
	CountryCode string
}

// Geocoder names the place at a coordinate. An empty Place with a nil error
// means the provider knows nothing there.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// Forecast is an hourly forecast plus the sunsets it covers, in the
// location's local time.
type Forecast struct {
	Hours   []HourlyWeather
	Sunsets []time.Time
}

// NextSunset returns the first sunset at or after t.
func (f Forecast) NextSunset(t time.Time) (time.Time, bool) {
	for _, s := range f.Sunsets {
		if !s.Before(t) {
			return s, true
		}
	}
	return time.Time{}, false
}

// ForecastProvider fetches the hourly forecast for a coordinate.
type ForecastProvider interface {
	Forecast(ctx context.Context, lat, lon float64) (Forecast, error)
}
