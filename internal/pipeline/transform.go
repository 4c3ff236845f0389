package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/couchcryptid/sunsettings/internal/domain"
)

// Analyzer scores a sunset request.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.ScoreRequest) (domain.ScoreResult, error)
}

// AnalysisTransformer implements Transformer by decoding a JSON ScoreRequest
// from the message value and scoring it.
type AnalysisTransformer struct {
	analyzer      Analyzer
	maxSummaryLen int
}

// NewTransformer creates an AnalysisTransformer.
func NewTransformer(analyzer Analyzer, maxSummaryLen int) *AnalysisTransformer {
	return &AnalysisTransformer{analyzer: analyzer, maxSummaryLen: maxSummaryLen}
}

// Transform scores raw. The event ID is the message key, or a fresh UUID for
// unkeyed messages.
func (t *AnalysisTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.AnalysisEvent, error) {
	var req domain.ScoreRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return domain.AnalysisEvent{}, fmt.Errorf("%w: decode request: %w", domain.ErrInvalidInput, err)
	}
	// Normalize here too so the published event carries exactly what was scored.
	req, err := req.Normalize(t.maxSummaryLen, nil)
	if err != nil {
		return domain.AnalysisEvent{}, err
	}

	res, err := t.analyzer.Analyze(ctx, req)
	if err != nil {
		return domain.AnalysisEvent{}, err
	}

	id := string(raw.Key)
	if id == "" {
		id = uuid.NewString()
	}
	return domain.NewAnalysisEvent(id, req, res), nil
}
