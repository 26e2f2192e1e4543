package port

import (
	"context"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// PermissionRepository reads the permission catalog. The catalog is seeded at
// setup time and read-only in normal operation.
type PermissionRepository interface {
	List(ctx context.Context) ([]domain.Permission, error)
	GetByID(ctx context.Context, id int64) (*domain.Permission, error)
	GetByName(ctx context.Context, name string) (*domain.Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListByRole(ctx context.Context, roleID int64) ([]domain.Permission, error)
	ListByRoles(ctx context.Context, roleIDs []int64) (map[int64][]domain.Permission, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Permission, error)
	UserHasPermission(ctx context.Context, userID int64, name string) (bool, error)
}
