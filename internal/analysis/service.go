// Package analysis answers score requests by running one of the scoring
// paths and applying the service's fallback and retry policy.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/sunsettings/internal/cache"
	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/observability"
)

const (
	historyCache      = "history"
	defaultHistoryTTL = time.Hour
)

// Backend is a generative model that completes a system/user prompt pair.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Configured() bool
}

// Options selects the scoring behaviour.
type Options struct {
	Mode domain.Source
	// Fallback answers model requests the backend cannot serve. Empty
	// disables fallback.
	Fallback        domain.Source
	RetrySuspicious bool
	MaxSummaryLen   int
	HistoryTTL      time.Duration
}

// Service scores requests. It is safe for concurrent use.
type Service struct {
	opts    Options
	backend Backend     // nil when no backend is wired
	history cache.Cache // previous probability per location; nil disables retry history
	seeds   domain.SeedFunc
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates an analysis service. backend and history may be nil.
func NewService(opts Options, backend Backend, history cache.Cache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if opts.Mode == "" {
		opts.Mode = domain.SourceRules
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = defaultHistoryTTL
	}
	return &Service{
		opts:    opts,
		backend: backend,
		history: history,
		seeds:   domain.RandomSeed,
		metrics: metrics,
		logger:  logger,
	}
}

// Analyze validates req and scores it with the configured path.
func (s *Service) Analyze(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
	req, err := req.Normalize(s.opts.MaxSummaryLen, s.seeds)
	if err != nil {
		s.metrics.Analyses.WithLabelValues(string(s.opts.Mode), outcome(err)).Inc()
		return domain.ScoreResult{}, err
	}

	res, err := s.score(ctx, s.opts.Mode, req)
	if err != nil && s.opts.Fallback != "" && canFallBack(err) {
		s.logger.Warn("scoring backend failed, using fallback",
			"location", req.Location, "fallback", s.opts.Fallback, "error", err)
		s.metrics.Fallbacks.WithLabelValues(string(s.opts.Mode), string(s.opts.Fallback)).Inc()
		res, err = s.score(ctx, s.opts.Fallback, req)
	}
	if err != nil {
		return domain.ScoreResult{}, err
	}

	s.remember(ctx, req.Location, *res.Probability)
	s.logger.Debug("analysis complete",
		"location", req.Location,
		"source", res.Source,
		"seed", res.Seed,
		"probability", *res.Probability,
	)
	return res, nil
}

// CheckReadiness fails when the service is set up to need a generative
// backend it does not have.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.opts.Mode != domain.SourceModel || s.opts.Fallback != "" {
		return nil
	}
	if s.backend == nil || !s.backend.Configured() {
		return fmt.Errorf("%w: model scoring selected without credentials or fallback", domain.ErrBackendUnavailable)
	}
	return nil
}

func (s *Service) score(ctx context.Context, src domain.Source, req domain.ScoreRequest) (domain.ScoreResult, error) {
	start := time.Now()
	var (
		res domain.ScoreResult
		err error
	)
	switch src {
	case domain.SourceModel:
		res, err = s.scoreModel(ctx, req)
	case domain.SourceSynthetic:
		res = scoreSynthetic(req)
	default:
		res = scoreRules(req)
	}
	s.metrics.AnalysisDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())
	s.metrics.Analyses.WithLabelValues(string(src), outcome(err)).Inc()
	if err == nil {
		s.metrics.Probability.Observe(float64(*res.Probability))
	}
	return res, err
}

func scoreRules(req domain.ScoreRequest) domain.ScoreResult {
	f := domain.ParseFeatures(req.WeatherSummary)
	o := domain.Score(f)
	return domain.ScoreResult{
		Probability: domain.Int(o.Score),
		Description: domain.Describe(f, o, o.Score, req.SeedValue()),
		Source:      domain.SourceRules,
		Seed:        req.SeedValue(),
	}
}

func scoreSynthetic(req domain.ScoreRequest) domain.ScoreResult {
	p := domain.SyntheticScore(req.Location, req.WeatherSummary, req.SeedValue())
	f := domain.ParseFeatures(req.WeatherSummary)
	return domain.ScoreResult{
		Probability: domain.Int(p),
		Description: domain.Describe(f, domain.Score(f), p, req.SeedValue()),
		Source:      domain.SourceSynthetic,
		Seed:        req.SeedValue(),
	}
}

func (s *Service) scoreModel(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
	if s.backend == nil {
		return domain.ScoreResult{}, fmt.Errorf("%w: no backend wired", domain.ErrBackendUnavailable)
	}

	seed := req.SeedValue()
	verdict, err := s.ask(ctx, req, seed)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	if s.opts.RetrySuspicious && domain.ShouldRetry(verdict.Probability, s.previous(ctx, req.Location)) {
		s.metrics.Retries.Inc()
		s.logger.Info("suspicious probability, retrying once",
			"location", req.Location, "probability", verdict.Probability, "seed", seed)
		retry, err := s.ask(ctx, req, seed+1)
		if err != nil {
			s.logger.Warn("retry failed, keeping first answer", "location", req.Location, "error", err)
		} else {
			verdict, seed = retry, seed+1
		}
	}

	rule := domain.Score(domain.ParseFeatures(req.WeatherSummary))
	s.metrics.RuleDrift.Observe(float64(verdict.Probability - rule.Score))

	return domain.ScoreResult{
		Probability: domain.Int(verdict.Probability),
		Description: verdict.Description,
		Source:      domain.SourceModel,
		Seed:        seed,
	}, nil
}

func (s *Service) ask(ctx context.Context, req domain.ScoreRequest, seed int64) (domain.ModelVerdict, error) {
	prompt := domain.BuildPrompt(req.Location, req.WeatherSummary, seed)

	start := time.Now()
	text, err := s.backend.Complete(ctx, prompt.System, prompt.User)
	s.metrics.BackendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.BackendRequests.WithLabelValues(outcome(err)).Inc()
		return domain.ModelVerdict{}, err
	}

	verdict, err := domain.ParseModelResponse(text)
	if err != nil {
		var mre *domain.MalformedResponseError
		if errors.As(err, &mre) {
			s.logger.Warn("malformed backend response",
				"location", req.Location, "reason", mre.Reason, "excerpt", mre.Excerpt)
		}
		s.metrics.BackendRequests.WithLabelValues(outcome(err)).Inc()
		return domain.ModelVerdict{}, err
	}
	s.metrics.BackendRequests.WithLabelValues("success").Inc()
	return verdict, nil
}

func historyKey(location string) string {
	return "history:" + strings.ToLower(location)
}

// previous returns the last probability served for location, if known.
func (s *Service) previous(ctx context.Context, location string) *int {
	if s.history == nil {
		return nil
	}
	var p int
	ok, err := cache.GetJSON(ctx, s.history, historyKey(location), &p)
	switch {
	case err != nil:
		s.metrics.CacheLookups.WithLabelValues(historyCache, "error").Inc()
		s.logger.Warn("history read failed", "location", location, "error", err)
		return nil
	case !ok:
		s.metrics.CacheLookups.WithLabelValues(historyCache, "miss").Inc()
		return nil
	}
	s.metrics.CacheLookups.WithLabelValues(historyCache, "hit").Inc()
	return &p
}

func (s *Service) remember(ctx context.Context, location string, probability int) {
	if s.history == nil {
		return
	}
	if err := cache.PutJSON(ctx, s.history, historyKey(location), probability, s.opts.HistoryTTL); err != nil {
		s.logger.Warn("history write failed", "location", location, "error", err)
	}
}

// canFallBack reports errors that mean the backend could not answer at all.
// Malformed answers are surfaced, not papered over.
func canFallBack(err error) bool {
	return errors.Is(err, domain.ErrBackendUnavailable) || errors.Is(err, domain.ErrUpstream)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}
