package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawEvent represents an unprocessed message from the source topic.
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

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Submission is one scoring job: a participant's warnings bundled with the
// GSR slice they are to be scored against. Warnings and GSR stay as generic
// field maps here; the scorers parse them under their own category rules.
type Submission struct {
	ID            string           `json:"Submission_ID"`
	ParticipantID string           `json:"Participant_ID,omitempty"`
	EventType     string           `json:"Event_Type"`
	Warnings      []map[string]any `json:"Warnings"`
	GSR           []map[string]any `json:"GSR"`
}

// ParseSubmission deserializes a RawEvent's value into a Submission.
func ParseSubmission(raw RawEvent) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal(raw.Value, &sub); err != nil {
		return Submission{}, fmt.Errorf("parse submission: %w", err)
	}
	if sub.ID == "" {
		return Submission{}, fmt.Errorf("parse submission: missing Submission_ID")
	}
	if sub.EventType == "" {
		return Submission{}, fmt.Errorf("parse submission %s: missing Event_Type", sub.ID)
	}
	return sub, nil
}

// ScoreReport is the published outcome of scoring one submission with one
// configured scorer.
type ScoreReport struct {
	RunID         string    `json:"Run_ID"`
	SubmissionID  string    `json:"Submission_ID,omitempty"`
	ParticipantID string    `json:"Participant_ID,omitempty"`
	Scorer        string    `json:"Scorer"`
	EventType     string    `json:"Event_Type"`
	Result        Result    `json:"Result"`
	ScoredAt      time.Time `json:"Scored_At"`
}

// NewScoreReport stamps a result with a fresh run ID and the current time.
func NewScoreReport(sub Submission, scorerName string, result Result) ScoreReport {
	return ScoreReport{
		RunID:         uuid.NewString(),
		SubmissionID:  sub.ID,
		ParticipantID: sub.ParticipantID,
		Scorer:        scorerName,
		EventType:     sub.EventType,
		Result:        result,
		ScoredAt:      clock.Now(),
	}
}

// SerializeScoreReport marshals a report into an output event keyed by run ID.
func SerializeScoreReport(report ScoreReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize score report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(report.RunID),
		Value: data,
		Headers: map[string]string{
			"event_type": report.EventType,
			"scorer":     report.Scorer,
			"scored_at":  report.ScoredAt.Format(time.RFC3339),
		},
	}, nil
}
