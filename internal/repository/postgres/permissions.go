package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

// PermissionRepository implements port.PermissionRepository over PostgreSQL.
// The catalog is seeded at setup time; this repository only reads it.
type PermissionRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository constructs a permission repository instance.
func NewPermissionRepository(db DB) *PermissionRepository {
	return &PermissionRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List retrieves all permissions ordered by category then name.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("id", "name", "category", "description").
		From("admin.permissions").
		OrderBy("category ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// GetByID retrieves a permission by its ID.
func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id")
}

// GetByName retrieves a permission by its unique name.
func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, "by name")
}

func (r *PermissionRepository) getOne(ctx context.Context, where squirrel.Eq, label string) (*domain.Permission, error) {
	stmt, args, err := r.builder.Select("id", "name", "category", "description").
		From("admin.permissions").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission %s sql: %w", label, err)
	}

	row := r.db.QueryRow(ctx, stmt, args...)

	permission, err := scanPermissionRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission %s: %w", label, err)
	}

	return permission, nil
}

// GetByIDs retrieves the permissions matching the provided IDs. Unknown IDs
// are simply absent from the result; callers diff against their input to
// detect invalid references.
func (r *PermissionRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Permission, error) {
	if len(ids) == 0 {
		return []domain.Permission{}, nil
	}

	stmt, args, err := r.builder.Select("id", "name", "category", "description").
		From("admin.permissions").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("category ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permissions by ids sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// ListCategories returns the sorted set of distinct non-null categories.
func (r *PermissionRepository) ListCategories(ctx context.Context) ([]string, error) {
	stmt, args, err := r.builder.Select("DISTINCT category").
		From("admin.permissions").
		Where("category IS NOT NULL").
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// ListByRole returns permissions mapped to a role via role_permissions.
func (r *PermissionRepository) ListByRole(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("p.id", "p.name", "p.category", "p.description").
		From("admin.permissions p").
		Join("admin.role_permissions rp ON rp.permission_id = p.id").
		Where(squirrel.Eq{"rp.role_id": roleID}).
		OrderBy("p.category ASC", "p.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build permissions by role sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// ListByRoles returns the permissions of several roles in one query, grouped
// by role ID.
func (r *PermissionRepository) ListByRoles(ctx context.Context, roleIDs []int64) (map[int64][]domain.Permission, error) {
	grouped := make(map[int64][]domain.Permission, len(roleIDs))
	if len(roleIDs) == 0 {
		return grouped, nil
	}

	stmt, args, err := r.builder.Select("rp.role_id", "p.id", "p.name", "p.category", "p.description").
		From("admin.permissions p").
		Join("admin.role_permissions rp ON rp.permission_id = p.id").
		Where(squirrel.Eq{"rp.role_id": roleIDs}).
		OrderBy("rp.role_id ASC", "p.category ASC", "p.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build permissions by roles sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions by roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleID      int64
			permission  domain.Permission
			category    sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&roleID, &permission.ID, &permission.Name, &category, &description); err != nil {
			return nil, fmt.Errorf("scan permission by roles: %w", err)
		}
		permission.Category = category.String
		if description.Valid {
			desc := description.String
			permission.Description = &desc
		}
		grouped[roleID] = append(grouped[roleID], permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions by roles: %w", err)
	}

	return grouped, nil
}

// ListByUser returns distinct permissions resolved for the user via roles,
// ordered by category then name.
func (r *PermissionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Permission, error) {
	stmt, args, err := r.builder.Select("DISTINCT p.id", "p.name", "p.category", "p.description").
		From("admin.permissions p").
		Join("admin.role_permissions rp ON rp.permission_id = p.id").
		Join("admin.user_roles ur ON ur.role_id = rp.role_id").
		Where(squirrel.Eq{"ur.user_id": userID}).
		OrderBy("p.category ASC", "p.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build permissions by user sql: %w", err)
	}

	return r.queryPermissions(ctx, stmt, args)
}

// UserHasPermission performs a server-authoritative existence check of a
// single permission against the user's resolved roles.
func (r *PermissionRepository) UserHasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("admin.permissions p").
		Join("admin.role_permissions rp ON rp.permission_id = p.id").
		Join("admin.user_roles ur ON ur.role_id = rp.role_id").
		Where(squirrel.Eq{"ur.user_id": userID}).
		Where(squirrel.Eq{"p.name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build user has permission sql: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count user permission: %w", err)
	}

	return count > 0, nil
}

func (r *PermissionRepository) queryPermissions(ctx context.Context, stmt string, args []any) ([]domain.Permission, error) {
	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var (
			permission  domain.Permission
			category    sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&permission.ID, &permission.Name, &category, &description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permission.Category = category.String
		if description.Valid {
			desc := description.String
			permission.Description = &desc
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}

func scanPermissionRow(row pgx.Row) (*domain.Permission, error) {
	var (
		permission  domain.Permission
		category    sql.NullString
		description sql.NullString
	)
	if err := row.Scan(&permission.ID, &permission.Name, &category, &description); err != nil {
		return nil, err
	}
	// The catalog's super-admin entry carries a NULL category.
	permission.Category = category.String
	if description.Valid {
		desc := description.String
		permission.Description = &desc
	}
	return &permission, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
