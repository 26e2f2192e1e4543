package port

import (
	"context"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// RoleUpdate carries the partial field set for a role update. Nil fields are
// left untouched.
type RoleUpdate struct {
	Name        *string
	Description *string
}

// RoleRepository handles role persistence and the role-permission join table.
// CreateWithPermissions runs the role insert and every permission attachment
// inside one transaction; all other mutations are single atomic statements.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) (int64, error)
	CreateWithPermissions(ctx context.Context, role domain.Role, permissionIDs []int64) (int64, error)
	List(ctx context.Context) ([]domain.Role, error)
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Update(ctx context.Context, id int64, update RoleUpdate) error
	Delete(ctx context.Context, id int64) error
	AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error)
	CountUsers(ctx context.Context, roleID int64) (int, error)
	CountUsersByRole(ctx context.Context, roleIDs []int64) (map[int64]int, error)
	ListUserIDs(ctx context.Context, roleID int64) ([]int64, error)
}
