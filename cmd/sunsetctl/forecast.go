package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sunsettings/internal/adapter/nominatim"
	"github.com/couchcryptid/sunsettings/internal/adapter/openmeteo"
	"github.com/couchcryptid/sunsettings/internal/cache"
	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/forecast"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

func newForecastCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		lat, lon     float64
		meteoURL     string
		geocode      bool
		nominatimURL string
		userAgent    string
		timeout      time.Duration
		score        bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fetch tonight's weather-feature string for a coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := forecast.ValidateCoordinates(lat, lon); err != nil {
				return err
			}
			log := logger(cmd)
			metrics := observability.NewMetricsForTesting()
			store, err := cache.NewMemory(16, nil)
			if err != nil {
				return err
			}

			var geocoder domain.Geocoder
			if geocode {
				geocoder = nominatim.NewClient(nominatimURL, userAgent, timeout, metrics, log)
			}
			svc := forecast.NewService(openmeteo.NewClient(meteoURL, timeout, metrics, log), geocoder, store, time.Minute, metrics, log)

			summary, err := svc.Summarize(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "location: %s\n", summary.Location)
			fmt.Fprintf(w, "sunset:   %s\n", summary.Sunset.Format(time.RFC3339))
			fmt.Fprintf(w, "weather:  %s\n", summary.WeatherSummary)
			if score {
				o := domain.Score(summary.Features)
				fmt.Fprintf(w, "score:    %d\n", o.Score)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	cmd.Flags().StringVar(&meteoURL, "open-meteo-url", "https://api.open-meteo.com/v1/forecast", "Open-Meteo forecast endpoint")
	cmd.Flags().BoolVar(&geocode, "geocode", false, "label the coordinate with Nominatim")
	cmd.Flags().StringVar(&nominatimURL, "nominatim-url", "https://nominatim.openstreetmap.org", "Nominatim base URL")
	cmd.Flags().StringVar(&userAgent, "user-agent", "sunsetctl/1.0", "User-Agent sent to Nominatim")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "upstream request timeout")
	cmd.Flags().BoolVar(&score, "score", false, "also score the evening with the rule evaluator")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
