package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

// GroupedPermissions maps category names to their ordered permissions.
type GroupedPermissions struct {
	Groups map[string][]domain.Permission
	Total  int
}

// PermissionService exposes read operations over the permission catalog.
type PermissionService struct {
	permissions port.PermissionRepository
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(permissions port.PermissionRepository) *PermissionService {
	return &PermissionService{permissions: permissions}
}

// ListPermissions returns all permissions ordered by category then name.
// An empty catalog yields an empty slice, never an error.
func (s *PermissionService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return permissions, nil
}

// GetPermission retrieves a permission the caller expects to exist.
func (s *PermissionService) GetPermission(ctx context.Context, id int64) (*domain.Permission, error) {
	permission, err := s.permissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return permission, nil
}

// FindPermissionByName looks a permission up for existence checks. A missing
// name returns (nil, nil) rather than an error.
func (s *PermissionService) FindPermissionByName(ctx context.Context, name string) (*domain.Permission, error) {
	permission, err := s.permissions.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find permission by name: %w", err)
	}
	return permission, nil
}

// GroupedByCategory buckets the catalog by category for display. Permissions
// without a category land under the literal "other" bucket.
func (s *PermissionService) GroupedByCategory(ctx context.Context) (*GroupedPermissions, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	groups := make(map[string][]domain.Permission)
	for _, permission := range permissions {
		category := permission.Category
		if category == "" {
			category = domain.PermissionCategoryOther
		}
		groups[category] = append(groups[category], permission)
	}

	return &GroupedPermissions{Groups: groups, Total: len(permissions)}, nil
}

// ListCategories returns the sorted distinct categories in the catalog.
func (s *PermissionService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.permissions.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	sort.Strings(categories)
	return categories, nil
}

// UserHasPermission checks one permission name against the user's resolved
// roles, straight from the database. It never trusts a client-supplied flag.
func (s *PermissionService) UserHasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	has, err := s.permissions.UserHasPermission(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("check user permission: %w", err)
	}
	return has, nil
}

// GetUserPermissions returns the user's resolved permission set, ordered by
// category then name. A user without roles gets an empty slice.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID int64) ([]domain.Permission, error) {
	permissions, err := s.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}
	return permissions, nil
}
