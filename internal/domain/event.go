package domain

import (
	"context"
	"time"
)

// RawEvent is an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// AnalysisEvent is a scored request as published to the result topic.
type AnalysisEvent struct {
	ID             string    `json:"id"`
	Location       string    `json:"location"`
	WeatherSummary string    `json:"weather_summary"`
	Seed           int64     `json:"seed"`
	Probability    *int      `json:"probability"`
	Description    string    `json:"description"`
	Source         Source    `json:"source"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// NewAnalysisEvent stamps a result with the current clock time.
func NewAnalysisEvent(id string, req ScoreRequest, res ScoreResult) AnalysisEvent {
	return AnalysisEvent{
		ID:             id,
		Location:       req.Location,
		WeatherSummary: req.WeatherSummary,
		Seed:           res.Seed,
		Probability:    res.Probability,
		Description:    res.Description,
		Source:         res.Source,
		AnalyzedAt:     clock.Now().UTC(),
	}
}
