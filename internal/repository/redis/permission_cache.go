package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
)

// PermissionCacheRepository holds short-TTL user permission sets in Redis.
// Entries are invalidated whenever a role mutation touches the user; the TTL
// bounds staleness if an invalidation is lost.
type PermissionCacheRepository struct {
	client *redis.Client
	prefix string
}

// NewPermissionCacheRepository constructs a Redis-backed permission cache.
func NewPermissionCacheRepository(client *redis.Client, prefix string) *PermissionCacheRepository {
	if prefix == "" {
		prefix = "admin:permissions"
	}
	return &PermissionCacheRepository{client: client, prefix: prefix}
}

// GetPermissionSet returns the cached set for the user. The second return is
// false on a cache miss.
func (r *PermissionCacheRepository) GetPermissionSet(ctx context.Context, userID int64) (domain.PermissionSet, bool, error) {
	payload, err := r.client.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get permission set: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err != nil {
		return nil, false, fmt.Errorf("decode permission set: %w", err)
	}

	return domain.NewPermissionSet(names...), true, nil
}

// SetPermissionSet stores the user's resolved set with the provided TTL.
// A non-positive TTL skips caching entirely.
func (r *PermissionCacheRepository) SetPermissionSet(ctx context.Context, userID int64, set domain.PermissionSet, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(set.Names())
	if err != nil {
		return fmt.Errorf("encode permission set: %w", err)
	}

	if err := r.client.Set(ctx, r.key(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set permission set: %w", err)
	}

	return nil
}

// InvalidateUsers drops cached sets for the provided users.
func (r *PermissionCacheRepository) InvalidateUsers(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, r.key(userID))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate permission sets: %w", err)
	}

	return nil
}

func (r *PermissionCacheRepository) key(userID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, userID)
}

var _ port.PermissionCache = (*PermissionCacheRepository)(nil)
