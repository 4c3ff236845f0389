package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/sunsettings/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sunsettings/internal/adapter/kafka"
	"github.com/couchcryptid/sunsettings/internal/adapter/nominatim"
	"github.com/couchcryptid/sunsettings/internal/adapter/openai"
	"github.com/couchcryptid/sunsettings/internal/adapter/openmeteo"
	"github.com/couchcryptid/sunsettings/internal/analysis"
	"github.com/couchcryptid/sunsettings/internal/cache"
	"github.com/couchcryptid/sunsettings/internal/config"
	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/forecast"
	"github.com/couchcryptid/sunsettings/internal/observability"
	"github.com/couchcryptid/sunsettings/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, closeStore, err := newCache(cfg)
	if err != nil {
		logger.Error("failed to create cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	backend := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
		RPS:     cfg.OpenAIRPS,
	}, logger)
	if !backend.Configured() {
		logger.Info("generative backend disabled: OPENAI_API_KEY not set")
	}

	analyzer := analysis.NewService(analysis.Options{
		Mode:            cfg.ScoringMode,
		Fallback:        cfg.ScoringFallback,
		RetrySuspicious: cfg.RetrySuspicious,
		MaxSummaryLen:   cfg.WeatherSummaryMaxLen,
	}, backend, store, metrics, logger)
	logger.Info("scoring configured", "mode", cfg.ScoringMode, "fallback", cfg.ScoringFallback)

	// Reverse geocoding is feature-flagged via NOMINATIM_ENABLED.
	var geocoder domain.Geocoder
	if cfg.NominatimEnabled {
		client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.OpenMeteoTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, store, cfg.GeocodeCacheTTL, metrics, logger)
		logger.Info("reverse geocoding enabled", "ttl", cfg.GeocodeCacheTTL)
	} else {
		logger.Info("reverse geocoding disabled")
	}

	meteo := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoTimeout, metrics, logger)
	weather := forecast.NewService(meteo, geocoder, store, cfg.ForecastCacheTTL, metrics, logger)

	limiter := httpadapter.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, clockwork.NewRealClock(), metrics)

	ready := readiness{analyzer}
	if c, ok := store.(sharedobs.ReadinessChecker); ok {
		ready = append(ready, c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the Kafka batch scorer when brokers are configured.
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	pipelineDone := make(chan struct{})
	if cfg.BatchEnabled() {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(analyzer, cfg.WeatherSummaryMaxLen)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("batch scorer enabled", "source", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic)
	} else {
		close(pipelineDone)
		logger.Info("batch scorer disabled: KAFKA_BROKERS not set")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Analyzer: analyzer,
		Weather:  weather,
		Ready:    ready,
		Limiter:  limiter,
	}, logger)

	go limiter.Run(ctx)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("batch scorer did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newCache builds the shared TTL cache for forecasts, geocodes and retry
// history. The returned func releases it.
func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.CacheBackend == config.CacheRedis {
		r := cache.NewRedis(cfg.RedisAddr, "sunsettings:")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	m, err := cache.NewMemory(cfg.CacheSize, clockwork.NewRealClock())
	if err != nil {
		return nil, nil, err
	}
	return m, func() {}, nil
}

// readiness reports ready only when every component does.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
