// Package events records what happened in the API and forwards it to Kafka
// through an asynq task queue.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Envelope wraps every event payload.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Enqueuer schedules a task. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Bus turns domain events into publish tasks.
type Bus struct {
	Queue    Enqueuer
	Producer string
	MaxRetry int
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (b *Bus) now() time.Time {
	if b != nil && b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Emit enqueues an event. A nil Bus or one without a queue drops events.
func (b *Bus) Emit(ctx context.Context, topic, key string, payload any) (Envelope, error) {
	if b == nil || b.Queue == nil {
		return Envelope{}, nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Envelope{}, errors.New("events: topic is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode payload: %w", err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     topic,
		EventVersion:  1,
		OccurredAt:    b.now().UTC(),
		Producer:      b.producer(),
		CorrelationID: key,
		Payload:       encoded,
	}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		env.TraceID = span.TraceID().String()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: encode envelope: %w", err)
	}
	maxRetry := b.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 10
	}
	task := asynq.NewTask(TaskPublish, data)
	if _, err := b.Queue.EnqueueContext(ctx, task,
		asynq.Queue(QueueName),
		asynq.TaskID(env.EventID),
		asynq.MaxRetry(maxRetry),
	); err != nil {
		return env, fmt.Errorf("events: enqueue %s: %w", topic, err)
	}
	return env, nil
}

// Notify emits and logs failures instead of returning them, for callers whose
// own outcome must not depend on event delivery.
func (b *Bus) Notify(ctx context.Context, topic, key string, payload any) {
	if b == nil {
		return
	}
	if _, err := b.Emit(ctx, topic, key, payload); err != nil {
		b.Logger.Warn().Err(err).Str("topic", topic).Str("key", key).Msg("event_emit_failed")
	}
}

func (b *Bus) producer() string {
	if p := strings.TrimSpace(b.Producer); p != "" {
		return p
	}
	return "pos-admin"
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case json.RawMessage:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	default:
		return json.Marshal(v)
	}
}
