package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/observability"
	"github.com/couchcryptid/warning-score-service/internal/pipeline"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err  error
	outs int
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	outs := make([]domain.OutputEvent, 0, m.outs)
	for i := 0; i < m.outs; i++ {
		outs = append(outs, domain.OutputEvent{Key: raw.Key, Value: raw.Value})
	}
	return outs, nil
}

type mockLoader struct {
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeSubmissionEvent(t, "sub-1")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{outs: 1}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_FanOut(t *testing.T) {
	raw := makeSubmissionEvent(t, "sub-2")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{outs: 3}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 3)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	tfm := &mockTransformer{outs: 1}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	commits := 0
	raw := makeSubmissionEvent(t, "sub-3")
	raw.Commit = func(_ context.Context) error {
		commits++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{err: errors.New("bad data")}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 1, commits)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeSubmissionEvent(t, "sub-4")
	raw.Topic = "warning-submissions"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	tfm := &mockTransformer{outs: 1}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestScoreTransformer_Transform(t *testing.T) {
	scorers, err := profile.BuildSet(profile.Default())
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(scorers, slog.Default(), newTestMetrics())

	t.Run("disease submission produces one report", func(t *testing.T) {
		raw := makeSubmissionEvent(t, "sub-10")

		outs, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, outs, 1)

		var report domain.ScoreReport
		require.NoError(t, json.Unmarshal(outs[0].Value, &report))
		assert.Equal(t, "sub-10", report.SubmissionID)
		assert.Equal(t, "egypt-disease", report.Scorer)
		assert.Equal(t, 1.0, report.Result.Results.QualityScore)
		assert.Equal(t, []byte(report.RunID), outs[0].Key)
		assert.Equal(t, "Disease", outs[0].Headers["event_type"])
	})

	t.Run("unknown event type yields no reports", func(t *testing.T) {
		raw := domain.RawEvent{Value: []byte(`{
			"Submission_ID": "sub-11",
			"Event_Type": "Earthquake",
			"Warnings": [],
			"GSR": []
		}`)}

		outs, err := tfm.Transform(context.Background(), raw)
		require.NoError(t, err)
		assert.Empty(t, outs)
	})

	t.Run("malformed submission is an error", func(t *testing.T) {
		_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
		assert.Error(t, err)
	})

	t.Run("malformed warning record is an error", func(t *testing.T) {
		raw := domain.RawEvent{Value: []byte(`{
			"Submission_ID": "sub-12",
			"Event_Type": "Disease",
			"Warnings": [{"Event_Type": "Disease"}],
			"GSR": []
		}`)}

		_, err := tfm.Transform(context.Background(), raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sub-12")
	})
}

// --- helpers ---

func makeSubmissionEvent(t *testing.T, id string) domain.RawEvent {
	t.Helper()
	sub := domain.Submission{
		ID:        id,
		EventType: "Disease",
		Warnings: []map[string]any{
			{"Warning_ID": "w1", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-22", "Case_Count": 3},
		},
		GSR: []map[string]any{
			{"Event_ID": "e1", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-22", "Case_Count": 3},
		},
	}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
