package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/grant-portal/internal/schemas"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a KafkaNotifier.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	MaxRetries int
}

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON events keyed by the
// applicant's email, so one applicant's events stay ordered.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// statusEvent is the wire format of a published notification.
type statusEvent struct {
	ApplicationID string `json:"application_id"`
	Email         string `json:"email"`
	ResearchTitle string `json:"research_title"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	Subject       string `json:"subject"`
	Text          string `json:"text"`
	Comments      string `json:"comments,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// NewKafkaNotifier creates a notifier writing to cfg.Topic.
func NewKafkaNotifier(cfg KafkaConfig, logger *slog.Logger) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka notifier requires a topic")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}

	logger.Info("kafka notifier created", slog.Any("brokers", cfg.Brokers), slog.String("topic", cfg.Topic))
	return &KafkaNotifier{writer: writer, topic: cfg.Topic, logger: logger}, nil
}

func encodeEvent(n StatusNotification) ([]byte, error) {
	occurred := n.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	data, err := json.Marshal(statusEvent{
		ApplicationID: n.ApplicationID.String(),
		Email:         n.Email,
		ResearchTitle: n.ResearchTitle,
		Status:        n.Status,
		StatusLabel:   StatusLabel(n.Status),
		Subject:       n.Subject(),
		Text:          n.Text(),
		Comments:      n.Comments,
		OccurredAt:    occurred.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := schemas.ValidateBytes(schemas.StatusNotification, data); err != nil {
		return nil, fmt.Errorf("notification payload rejected: %w", err)
	}
	return data, nil
}

// Notify publishes n. The payload is checked against the embedded event
// schema first; an invalid payload is never sent.
func (k *KafkaNotifier) Notify(ctx context.Context, n StatusNotification) error {
	payload, err := encodeEvent(n)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(n.Email),
		Value: payload,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish notification to %s: %w", k.topic, err)
	}

	k.logger.DebugContext(ctx, "notification published",
		slog.String("topic", k.topic),
		slog.String("application_id", n.ApplicationID.String()))
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
