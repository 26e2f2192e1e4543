package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/authz"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
)

// AccessService resolves user permission sets for authorization decisions.
// The database is authoritative; an optional short-TTL cache sits in front of
// it and degrades to the database on any cache failure.
type AccessService struct {
	permissions port.PermissionRepository
	cache       port.PermissionCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewAccessService constructs an AccessService without caching.
func NewAccessService(permissions port.PermissionRepository, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{permissions: permissions, logger: logger}
}

// WithCache enables the permission cache. A non-positive TTL leaves caching
// disabled.
func (s *AccessService) WithCache(cache port.PermissionCache, ttl time.Duration) *AccessService {
	if cache != nil && ttl > 0 {
		s.cache = cache
		s.cacheTTL = ttl
	}
	return s
}

// ResolvePermissionSet returns the user's current permission set. Cache reads
// that fail are logged and bypassed, never turned into a denial.
func (s *AccessService) ResolvePermissionSet(ctx context.Context, userID int64) (domain.PermissionSet, error) {
	if s.cache != nil {
		set, found, err := s.cache.GetPermissionSet(ctx, userID)
		if err != nil {
			s.logger.Warn("permission cache read failed, falling back to database",
				zap.Int64("user_id", userID), zap.Error(err))
		} else if found {
			return set, nil
		}
	}

	permissions, err := s.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user permissions: %w", err)
	}

	set := make(domain.PermissionSet, len(permissions))
	for _, permission := range permissions {
		set[permission.Name] = struct{}{}
	}

	if s.cache != nil {
		if err := s.cache.SetPermissionSet(ctx, userID, set, s.cacheTTL); err != nil {
			s.logger.Warn("permission cache write failed",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return set, nil
}

// CheckAny reports whether the user holds at least one of the required
// permissions. An empty requirement list is public.
func (s *AccessService) CheckAny(ctx context.Context, userID int64, required ...string) (bool, error) {
	set, err := s.ResolvePermissionSet(ctx, userID)
	if err != nil {
		return false, err
	}
	return authz.Evaluate(set, required, authz.ModeAny), nil
}

// CheckAll reports whether the user holds every required permission.
func (s *AccessService) CheckAll(ctx context.Context, userID int64, required ...string) (bool, error) {
	set, err := s.ResolvePermissionSet(ctx, userID)
	if err != nil {
		return false, err
	}
	return authz.Evaluate(set, required, authz.ModeAll), nil
}
