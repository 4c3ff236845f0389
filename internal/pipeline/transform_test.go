package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sunsettings/internal/domain"
	"github.com/couchcryptid/sunsettings/internal/pipeline"
)

type stubAnalyzer struct {
	got domain.ScoreRequest
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, req domain.ScoreRequest) (domain.ScoreResult, error) {
	s.got = req
	if s.err != nil {
		return domain.ScoreResult{}, s.err
	}
	return domain.ScoreResult{
		Probability: domain.Int(72),
		Description: "Vivid sunset ahead.",
		Source:      domain.SourceRules,
		Seed:        req.SeedValue(),
	}, nil
}

func TestAnalysisTransformer_Transform(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.June, 21, 19, 30, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	analyzer := &stubAnalyzer{}
	tfm := pipeline.NewTransformer(analyzer, 500)

	raw := domain.RawEvent{
		Key:   []byte("req-1"),
		Value: []byte(`{"location":"  Lisbon ","weatherSummary":"cloud_total_pct=40","seed":7}`),
	}
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "req-1", out.ID)
	assert.Equal(t, "Lisbon", out.Location)
	assert.Equal(t, "cloud_total_pct=40", out.WeatherSummary)
	assert.Equal(t, int64(7), out.Seed)
	require.NotNil(t, out.Probability)
	assert.Equal(t, 72, *out.Probability)
	assert.Equal(t, domain.SourceRules, out.Source)
	assert.Equal(t, clock.Now(), out.AnalyzedAt)
	assert.Equal(t, "Lisbon", analyzer.got.Location)
}

func TestAnalysisTransformer_BlankSummaryUsesPlaceholder(t *testing.T) {
	tfm := pipeline.NewTransformer(&stubAnalyzer{}, 500)

	out, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(`{"location":"Porto"}`)})
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderSummary(), out.WeatherSummary)
	_, err = uuid.Parse(out.ID)
	assert.NoError(t, err, "unkeyed messages get a generated id")
}

func TestAnalysisTransformer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
		want  error
	}{
		{name: "bad json", value: `not json`, want: domain.ErrInvalidInput},
		{name: "missing location", value: `{"weatherSummary":"cloud_total_pct=40"}`, want: domain.ErrInvalidInput},
		{name: "analyzer failure", value: `{"location":"Lisbon"}`, err: domain.ErrUpstream, want: domain.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tfm := pipeline.NewTransformer(&stubAnalyzer{err: tt.err}, 500)
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(tt.value)})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
