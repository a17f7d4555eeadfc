package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
	contracts "github.com/joeyyy09/clinical-flow/pkg/contracts/events"
)

// Notifier is told about every processed file and about the end of each run
type Notifier interface {
	FileProcessed(ctx context.Context, runID string, report domain.FileReport) error
	RunCompleted(ctx context.Context, report *domain.IngestReport) error
	Close() error
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) FileProcessed(context.Context, string, domain.FileReport) error { return nil }
func (NopNotifier) RunCompleted(context.Context, *domain.IngestReport) error { return nil }
func (NopNotifier) Close() error { return nil }

// MessageWriter is the part of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ingestion events as JSON envelopes keyed by run id,
// so all events of one run land on the same partition in order.
type KafkaPublisher struct {
	writer  MessageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// New returns a KafkaPublisher when events are enabled, a NopNotifier otherwise
func New(cfg config.EventsConfig, logger *slog.Logger) Notifier {
	if !cfg.Enabled {
		return NopNotifier{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisher(writer, logger)
}

// NewKafkaPublisher wraps an existing writer
func NewKafkaPublisher(writer MessageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  writer,
		logger:  infrastructure.WithComponent(logger, "events"),
		timeout: config.EventPublishTimeout,
	}
}

// FileProcessed publishes the report of one file
func (p *KafkaPublisher) FileProcessed(ctx context.Context, runID string, report domain.FileReport) error {
	return p.publish(ctx, contracts.EventFileProcessed, runID, report)
}

// RunCompleted publishes the totals of a finished run
func (p *KafkaPublisher) RunCompleted(ctx context.Context, report *domain.IngestReport) error {
	summary := contracts.RunSummary{
		Roots:      report.Roots,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Ingested:   report.Count(domain.IngestStatusIngested),
		Skipped:    report.Count(domain.IngestStatusSkipped),
		Failed:     report.Count(domain.IngestStatusFailed),
		Records:    report.RecordsIngested(),
		Warnings:   report.Warnings,
	}
	return p.publish(ctx, contracts.EventRunCompleted, report.RunID, summary)
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType contracts.EventType, runID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	env := contracts.Envelope{
		Version:   contracts.ProtocolVersion,
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Payload:   body,
		Timestamp: time.Now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(runID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "protocol", Value: []byte(contracts.ProtocolName)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish event",
			slog.String("type", string(eventType)),
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
