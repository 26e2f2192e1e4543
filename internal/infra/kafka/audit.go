package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
)

// AuditPublisher publishes role audit events to Kafka as JSON envelopes.
type AuditPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewAuditPublisher constructs a Kafka-backed audit event publisher.
func NewAuditPublisher(producer *Producer, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{producer: producer, logger: logger}
}

// eventEnvelope is the wire format shared by all audit events.
type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	ActorID   int64           `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Payload   json.RawMessage `json:"payload"`
}

type auditPayload struct {
	RoleID int64                   `json:"role_id"`
	Before *domain.RoleSnapshot    `json:"before,omitempty"`
	After  *domain.RoleSnapshot    `json:"after,omitempty"`
	Delta  *domain.PermissionDelta `json:"delta,omitempty"`
}

func eventType(action domain.AuditAction) string {
	switch action {
	case domain.AuditRoleCreate:
		return "role.created"
	case domain.AuditRoleUpdate:
		return "role.updated"
	case domain.AuditRoleDelete:
		return "role.deleted"
	case domain.AuditPermissionChange:
		return "role.permissions_changed"
	default:
		return "role.unknown"
	}
}

// PublishAuditEvent serializes the event and enqueues it on the async
// producer. The message is fire-and-forget; delivery failures surface on the
// producer's error channel.
func (p *AuditPublisher) PublishAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	payload, err := json.Marshal(auditPayload{
		RoleID: event.RoleID,
		Before: event.Before,
		After:  event.After,
		Delta:  event.Delta,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	envelope := eventEnvelope{
		EventID:   event.EventID,
		EventType: eventType(event.Action),
		ActorID:   event.ActorUserID,
		Timestamp: event.OccurredAt.UTC(),
		Version:   "1.0",
		Payload:   payload,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(envelope.EventType),
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", event.RoleID)),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Producer().Input() <- msg:
		p.logger.Debug("Audit event enqueued",
			zap.String("event_id", envelope.EventID),
			zap.String("event_type", envelope.EventType),
			zap.Int64("role_id", event.RoleID),
		)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue audit event: %w", ctx.Err())
	}
}

var _ port.AuditPublisher = (*AuditPublisher)(nil)
