package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/sunsettings/internal/domain"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scoring behaviour.
	ScoringMode          domain.Source
	ScoringFallback      domain.Source // empty when no fallback is configured
	RetrySuspicious      bool
	WeatherSummaryMaxLen int

	// Generative backend.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration
	OpenAIRPS     float64

	// Forecast and geocoding upstreams.
	OpenMeteoBaseURL   string
	OpenMeteoTimeout   time.Duration
	ForecastCacheTTL   time.Duration
	NominatimEnabled   bool
	NominatimBaseURL   string
	NominatimUserAgent string
	GeocodeCacheTTL    time.Duration

	CacheBackend string
	CacheSize    int
	RedisAddr    string

	RateLimitRPS   float64
	RateLimitBurst int

	// Batch scorer; disabled when KafkaBrokers is empty.
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// BatchEnabled reports whether the Kafka batch scorer should run.
func (c *Config) BatchEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RetrySuspicious:      p.boolean("RETRY_SUSPICIOUS", false),
		WeatherSummaryMaxLen: p.positiveInt("WEATHER_SUMMARY_MAX_LEN", 1000),

		OpenAIAPIKey:  sharedcfg.EnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:   sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: p.duration("OPENAI_TIMEOUT", "20s"),
		OpenAIRPS:     p.positiveFloat("OPENAI_RPS", 5),

		OpenMeteoBaseURL:   sharedcfg.EnvOrDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoTimeout:   p.duration("OPEN_METEO_TIMEOUT", "5s"),
		ForecastCacheTTL:   p.duration("FORECAST_CACHE_TTL", "10m"),
		NominatimEnabled:   p.boolean("NOMINATIM_ENABLED", true),
		NominatimBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "sunsettings/1.0"),
		GeocodeCacheTTL:    p.duration("GEOCODE_CACHE_TTL", "24h"),

		CacheBackend: strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		CacheSize:    p.positiveInt("CACHE_SIZE", 1000),
		RedisAddr:    sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),

		RateLimitRPS:   p.positiveFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: p.positiveInt("RATE_LIMIT_BURST", 5),

		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "sunset-analysis-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "sunset-analysis-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "sunsettings"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}
	if brokers := strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}
	if p.err != nil {
		return nil, p.err
	}

	mode, err := domain.ParseSource(sharedcfg.EnvOrDefault("SCORING_MODE", string(domain.SourceRules)))
	if err != nil {
		return nil, fmt.Errorf("invalid SCORING_MODE: %w", err)
	}
	cfg.ScoringMode = mode

	if fb := strings.TrimSpace(sharedcfg.EnvOrDefault("SCORING_FALLBACK", "none")); fb != "" && !strings.EqualFold(fb, "none") {
		fallback, err := domain.ParseSource(fb)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORING_FALLBACK: %w", err)
		}
		cfg.ScoringFallback = fallback
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ScoringFallback != "" && c.ScoringFallback == c.ScoringMode {
		return errors.New("SCORING_FALLBACK must differ from SCORING_MODE")
	}
	if c.CacheBackend != CacheMemory && c.CacheBackend != CacheRedis {
		return fmt.Errorf("invalid CACHE_BACKEND %q: want %s or %s", c.CacheBackend, CacheMemory, CacheRedis)
	}
	if c.CacheBackend == CacheRedis && c.RedisAddr == "" {
		return errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
	}
	if c.BatchEnabled() {
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if c.NominatimEnabled && c.NominatimUserAgent == "" {
		return errors.New("NOMINATIM_ENABLED is true but NOMINATIM_USER_AGENT is not set")
	}
	return nil
}

// parser reads typed variables and keeps the first error it sees.
type parser struct {
	err error
}

func (p *parser) fail(name, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", name, value)
	}
}

func (p *parser) duration(name, def string) time.Duration {
	s := sharedcfg.EnvOrDefault(name, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(name, s)
		return 0
	}
	return d
}

func (p *parser) positiveInt(name string, def int) int {
	s := sharedcfg.EnvOrDefault(name, strconv.Itoa(def))
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(name, s)
		return 0
	}
	return n
}

func (p *parser) positiveFloat(name string, def float64) float64 {
	s := sharedcfg.EnvOrDefault(name, strconv.FormatFloat(def, 'f', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		p.fail(name, s)
		return 0
	}
	return v
}

func (p *parser) boolean(name string, def bool) bool {
	s := sharedcfg.EnvOrDefault(name, strconv.FormatBool(def))
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(name, s)
		return false
	}
	return v
}
