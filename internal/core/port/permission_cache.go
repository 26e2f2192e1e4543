package port

import (
	"context"
	"time"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// PermissionCache holds short-TTL copies of user-resolved permission sets.
// A cached entry must be invalidated whenever the user's role or permission
// assignment changes; the TTL bounds staleness if an invalidation is lost.
type PermissionCache interface {
	GetPermissionSet(ctx context.Context, userID int64) (domain.PermissionSet, bool, error)
	SetPermissionSet(ctx context.Context, userID int64, set domain.PermissionSet, ttl time.Duration) error
	InvalidateUsers(ctx context.Context, userIDs []int64) error
}
