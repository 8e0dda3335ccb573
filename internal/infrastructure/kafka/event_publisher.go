package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bakery-platform/batching-service/internal/domain"
	"github.com/bakery-platform/batching-service/pkg/kafka"
	"github.com/bakery-platform/batching-service/pkg/metrics"
)

const eventSource = "batching-service"

// EventPublisher implements domain.EventPublisher using Kafka. Events are
// published after the mutation commits; a lost publish costs a notification,
// never batch state.
type EventPublisher struct {
	producer *kafka.Producer
	topic    string
	metrics  *metrics.Metrics
}

// NewEventPublisher creates a new Kafka-based event publisher
func NewEventPublisher(producer *kafka.Producer, topic string, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topic:    topic,
		metrics:  m,
	}
}

// Publish publishes domain events to the batch events topic
func (p *EventPublisher) Publish(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}

		env := &kafka.Envelope{
			ID:     uuid.NewString(),
			Type:   event.EventType(),
			Source: eventSource,
			Time:   event.OccurredAt(),
			Data:   data,
		}

		err = p.producer.PublishEnvelope(ctx, p.topic, env)
		if p.metrics != nil {
			p.metrics.RecordKafkaPublish(p.topic, event.EventType(), err == nil)
		}
		if err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}
