package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/observability"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

// ScoreTransformer implements Transformer by running every profile scorer
// registered for the submission's event type and emitting one score report
// per scorer.
type ScoreTransformer struct {
	scorers *profile.Set
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a ScoreTransformer over a built scorer set.
func NewTransformer(scorers *profile.Set, logger *slog.Logger, metrics *observability.Metrics) *ScoreTransformer {
	return &ScoreTransformer{
		scorers: scorers,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *ScoreTransformer) Transform(_ context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	sub, err := domain.ParseSubmission(raw)
	if err != nil {
		return nil, err
	}

	warnings, err := domain.ParseWarnings(sub.Warnings)
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
	}
	events, err := domain.ParseEvents(sub.GSR)
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
	}

	scorers := t.scorers.ForEventType(sub.EventType)
	if len(scorers) == 0 {
		t.logger.Warn("no scorer registered for event type",
			"submission_id", sub.ID, "event_type", sub.EventType)
		return nil, nil
	}

	outs := make([]domain.OutputEvent, 0, len(scorers))
	for _, ns := range scorers {
		start := time.Now()
		result, err := ns.Scorer.Score(warnings, events)
		if err != nil {
			return nil, fmt.Errorf("submission %s: scorer %s: %w", sub.ID, ns.Name, err)
		}
		t.metrics.ScoringDuration.WithLabelValues(ns.Name).Observe(time.Since(start).Seconds())
		t.metrics.QualityScore.WithLabelValues(ns.Name).Observe(result.Results.QualityScore)
		t.metrics.MatchedPairs.WithLabelValues(ns.Name).Add(float64(len(result.Matches)))

		report := domain.NewScoreReport(sub, ns.Name, result)
		out, err := domain.SerializeScoreReport(report)
		if err != nil {
			return nil, fmt.Errorf("submission %s: scorer %s: %w", sub.ID, ns.Name, err)
		}
		t.logger.Info("submission scored",
			"submission_id", sub.ID,
			"scorer", ns.Name,
			"matches", len(result.Matches),
			"quality_score", result.Results.QualityScore,
		)
		outs = append(outs, out)
	}
	return outs, nil
}
