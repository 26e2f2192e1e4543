package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
)

// StubPublisher logs audit events instead of sending them to Kafka. Useful
// for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly audit publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishAuditEvent logs the event at info level.
func (p *StubPublisher) PublishAuditEvent(_ context.Context, event domain.AuditEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub audit event published",
		zap.String("event_id", event.EventID),
		zap.String("event_type", eventType(event.Action)),
		zap.Int64("actor_id", event.ActorUserID),
		zap.Int64("role_id", event.RoleID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("before", event.Before),
		zap.Any("after", event.After),
		zap.Any("delta", event.Delta),
	)
	return nil
}

var _ port.AuditPublisher = (*StubPublisher)(nil)
