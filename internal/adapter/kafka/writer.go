package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/incident-data-service/internal/config"
	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes incident snapshots to a Kafka topic.
// It implements pipeline.BatchPublisher.
type Writer struct {
	writer    messageWriter
	batchSize int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return newWriter(w, cfg.BatchSize, metrics, logger)
}

func newWriter(w messageWriter, batchSize int, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	return &Writer{writer: w, batchSize: batchSize, metrics: metrics, logger: logger}
}

// Publish writes every incident of a snapshot, keyed by incident ID, in
// chunks of the configured batch size. It stops at the first failed chunk;
// chunks already written stay written.
func (w *Writer) Publish(ctx context.Context, snapshotID string, incidents []domain.Incident) error {
	for start := 0; start < len(incidents); start += w.batchSize {
		end := min(start+w.batchSize, len(incidents))

		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(snapshotID, incidents[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}

		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("write incidents %d-%d: %w", start, end-1, err)
		}
		w.metrics.IncidentsPublished.Add(float64(len(msgs)))
	}

	w.logger.Debug("snapshot published", "snapshot_id", snapshotID, "incidents", len(incidents))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Incident into a Kafka message.
func serializeToMessage(snapshotID string, inc domain.Incident) (kafkago.Message, error) {
	data, err := json.Marshal(inc)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident %s: %w", inc.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(inc.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snapshotID)},
			{Key: "news_type", Value: []byte(inc.NewsType)},
			{Key: "category", Value: []byte(inc.Category)},
		},
	}, nil
}
