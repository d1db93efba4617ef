package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/pos-admin/internal/obs"
)

// MessageWriter writes to Kafka. *kafka.Writer satisfies it.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter builds a writer that routes by message topic and keeps
// messages with the same key on one partition.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Publisher forwards publish tasks to Kafka.
type Publisher struct {
	Writer      MessageWriter
	TopicPrefix string
	Logger      zerolog.Logger
}

// Topic maps an event type to the Kafka topic it is written to.
func (p Publisher) Topic(eventType string) string {
	prefix := strings.Trim(strings.TrimSpace(p.TopicPrefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Register wires the publish handler into an asynq mux.
func (p Publisher) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskPublish, p.HandleTask)
}

// HandleTask writes one envelope. Malformed envelopes are skipped without retry.
func (p Publisher) HandleTask(ctx context.Context, task *asynq.Task) error {
	var env Envelope
	if err := json.Unmarshal(task.Payload(), &env); err != nil {
		p.Logger.Error().Err(err).Msg("event_envelope_invalid")
		return fmt.Errorf("decode envelope: %v: %w", err, asynq.SkipRetry)
	}
	msg := kafka.Message{
		Topic: p.Topic(env.EventType),
		Key:   []byte(env.CorrelationID),
		Value: task.Payload(),
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		observePublish(env.EventType, "error")
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}
	observePublish(env.EventType, "ok")
	p.Logger.Debug().Str("event_id", env.EventID).Str("topic", msg.Topic).Msg("event_published")
	return nil
}

func observePublish(eventType, result string) {
	if obs.EventsPublishedTotal != nil {
		obs.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
	}
}
