package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/envirocar-etl/internal/config"
	"github.com/couchcryptid/envirocar-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// Notifier publishes run reports to a Kafka topic so that downstream
// consumers can tell a complete export from a partial one.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured report topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes a single report keyed by its table.
func (n *Notifier) Notify(ctx context.Context, report pipeline.Report) error {
	msg, err := serializeReport(report)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run report: %w", err)
	}
	n.logger.Info("run report published", "topic", n.writer.Topic, "status", report.Status)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeReport marshals a Report into a Kafka message.
func serializeReport(report pipeline.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Table),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(report.Status)},
			{Key: "finished_at", Value: []byte(report.FinishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
