package port

import (
	"context"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// AuditPublisher ships role-store audit events to the audit collaborator.
// Implementations must not let a publish failure propagate into the
// operation that produced the event.
type AuditPublisher interface {
	PublishAuditEvent(ctx context.Context, event domain.AuditEvent) error
}
