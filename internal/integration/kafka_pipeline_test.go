//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/warning-score-service/internal/adapter/kafka"
	"github.com/couchcryptid/warning-score-service/internal/config"
	"github.com/couchcryptid/warning-score-service/internal/domain"
	"github.com/couchcryptid/warning-score-service/internal/observability"
	"github.com/couchcryptid/warning-score-service/internal/pipeline"
	"github.com/couchcryptid/warning-score-service/internal/profile"
)

const (
	testSourceTopic = "test-submissions"
	testSinkTopic   = "test-reports"
)

// reportMessage holds a deserialized score report read from the sink topic.
type reportMessage struct {
	Report  domain.ScoreReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.ScoreReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return reportMessage{
		Report:  report,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func diseaseSubmission(t *testing.T, id string) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.Submission{
		ID:            id,
		ParticipantID: "team-42",
		EventType:     "Disease",
		Warnings: []map[string]any{
			{"Warning_ID": "w1", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-22", "Case_Count": 3},
			{"Warning_ID": "w2", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-23", "Case_Count": 0},
		},
		GSR: []map[string]any{
			{"Event_ID": "e1", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-22", "Case_Count": 3},
			{"Event_ID": "e2", "Event_Type": "Disease", "Country": "Egypt", "Event_Date": "2024-04-23", "Case_Count": 1},
		},
	})
	require.NoError(t, err)
	return payload
}

func newScoreTransformer(t *testing.T) *pipeline.ScoreTransformer {
	t.Helper()
	scorers, err := profile.BuildSet(profile.Default())
	require.NoError(t, err)
	return pipeline.NewTransformer(scorers, discardLogger(), observability.NewMetricsForTesting())
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a submission through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	payload := diseaseSubmission(t, "sub-1")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("sub-1"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("sub-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Score the submission.
	transformer := newScoreTransformer(t)
	outs, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, outs))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readReport(ctx, t, consumer)
	assert.Equal(t, "Disease", rm.Headers["event_type"])
	assert.Equal(t, "egypt-disease", rm.Headers["scorer"])
	_, err = time.Parse(time.RFC3339, rm.Headers["scored_at"])
	assert.NoError(t, err, "scored_at should be valid RFC3339")

	assert.Equal(t, rm.Report.RunID, rm.Key)
	assert.Equal(t, "sub-1", rm.Report.SubmissionID)
	assert.Equal(t, "team-42", rm.Report.ParticipantID)
	require.Len(t, rm.Report.Result.Matches, 2)
	assert.InDelta(t, 0.875, rm.Report.Result.Results.QualityScore, 1e-9)
}

// TestPipelineEndToEnd wires the full pipeline (Reader, Transformer, Writer)
// with real Kafka and verifies scored reports for a stream of submissions.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	const submissionCount = 10

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, submissionCount)
	for i := 0; i < submissionCount; i++ {
		id := fmt.Sprintf("sub-%d", i)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(id),
			Value: diseaseSubmission(t, id),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := newScoreTransformer(t)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]reportMessage, 0, submissionCount)
	for len(received) < submissionCount {
		received = append(received, readReport(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, submissionCount)
	seen := map[string]bool{}
	for _, rm := range received {
		seen[rm.Report.SubmissionID] = true
		assert.Equal(t, "egypt-disease", rm.Report.Scorer)
		assert.Equal(t, "Disease", rm.Headers["event_type"])
		assert.InDelta(t, 0.875, rm.Report.Result.Results.QualityScore, 1e-9)
		assert.Equal(t, 1.0, rm.Report.Result.Results.Precision)
		assert.False(t, rm.Report.ScoredAt.IsZero(), "missing scored_at stamp")
	}
	assert.Len(t, seen, submissionCount, "every submission scored exactly once")
}

// TestPipelineScoreError verifies that an invalid submission (poison pill) is
// skipped and the pipeline continues processing valid submissions.
func TestPipelineScoreError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: diseaseSubmission(t, "sub-ok")},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := newScoreTransformer(t)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid submission should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readReport(ctx, t, consumer)
	assert.Equal(t, "sub-ok", rm.Report.SubmissionID)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
