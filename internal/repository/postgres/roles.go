package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

// RoleRepository implements role persistence operations.
type RoleRepository struct {
	db      DB
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository constructs a PostgreSQL-backed role repository.
func NewRoleRepository(db DB) *RoleRepository {
	return &RoleRepository{
		db:      db,
		exec:    db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	if tx == nil {
		return r
	}
	return &RoleRepository{
		db:      r.db,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new role and returns the generated ID. New roles are never
// system roles.
func (r *RoleRepository) Create(ctx context.Context, role domain.Role) (int64, error) {
	stmt, args, err := r.builder.Insert("admin.roles").
		Columns("name", "description", "is_system").
		Values(role.Name, role.Description, false).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert role sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicate
		}
		return 0, fmt.Errorf("insert role: %w", err)
	}

	return id, nil
}

// CreateWithPermissions inserts a role and attaches the provided permissions
// inside a single transaction. On any failure nothing is persisted.
func (r *RoleRepository) CreateWithPermissions(ctx context.Context, role domain.Role, permissionIDs []int64) (int64, error) {
	var id int64

	err := WithinTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)

		created, err := txRepo.Create(ctx, role)
		if err != nil {
			return err
		}

		if _, err := txRepo.AttachPermissions(ctx, created, permissionIDs); err != nil {
			return err
		}

		id = created
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// List retrieves all roles sorted by name.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	stmt, args, err := r.builder.Select("id", "name", "description", "is_system", "created_at").
		From("admin.roles").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

// GetByID retrieves a role by its ID.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id")
}

// GetByName retrieves a role by its unique name. Comparison is exact, not
// case-folded; uniqueness pre-checks rely on that.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, "by name")
}

func (r *RoleRepository) getOne(ctx context.Context, where squirrel.Eq, label string) (*domain.Role, error) {
	stmt, args, err := r.builder.Select("id", "name", "description", "is_system", "created_at").
		From("admin.roles").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role %s sql: %w", label, err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	role, err := scanRoleRow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role %s: %w", label, err)
	}

	return role, nil
}

// Update applies the supplied partial fields to an existing role.
func (r *RoleRepository) Update(ctx context.Context, id int64, update port.RoleUpdate) error {
	query := r.builder.Update("admin.roles").Where(squirrel.Eq{"id": id})

	changed := false
	if update.Name != nil {
		query = query.Set("name", *update.Name)
		changed = true
	}
	if update.Description != nil {
		query = query.Set("description", *update.Description)
		changed = true
	}
	if !changed {
		return nil
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update role: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a role by ID (cascades to user_roles and role_permissions via FK).
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Delete("admin.roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AttachPermissions links the provided permissions to the role and returns the
// number of rows inserted. Already-attached pairs are skipped, keeping the
// operation idempotent.
func (r *RoleRepository) AttachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	query := r.builder.Insert("admin.role_permissions").
		Columns("role_id", "permission_id")

	for _, permissionID := range permissionIDs {
		query = query.Values(roleID, permissionID)
	}

	stmt, args, err := query.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build attach role permissions sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("attach role permissions: %w", err)
	}

	return int(res.RowsAffected()), nil
}

// DetachPermissions removes the provided permissions from the role and returns
// the number of rows deleted. Absent pairs are tolerated.
func (r *RoleRepository) DetachPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	stmt, args, err := r.builder.Delete("admin.role_permissions").
		Where(squirrel.Eq{"role_id": roleID}).
		Where(squirrel.Eq{"permission_id": permissionIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build detach role permissions sql: %w", err)
	}

	res, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("detach role permissions: %w", err)
	}

	return int(res.RowsAffected()), nil
}

// CountUsers returns how many users currently hold the role.
func (r *RoleRepository) CountUsers(ctx context.Context, roleID int64) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("admin.user_roles").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count role users sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count role users: %w", err)
	}

	return count, nil
}

// CountUsersByRole returns user counts for the provided roles in one query.
func (r *RoleRepository) CountUsersByRole(ctx context.Context, roleIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(roleIDs))
	if len(roleIDs) == 0 {
		return counts, nil
	}

	stmt, args, err := r.builder.Select("role_id", "COUNT(*)").
		From("admin.user_roles").
		Where(squirrel.Eq{"role_id": roleIDs}).
		GroupBy("role_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count users by role sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query user counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleID int64
			count  int
		)
		if err := rows.Scan(&roleID, &count); err != nil {
			return nil, fmt.Errorf("scan user count: %w", err)
		}
		counts[roleID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user counts: %w", err)
	}

	return counts, nil
}

// ListUserIDs returns the IDs of users currently assigned the role.
func (r *RoleRepository) ListUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	stmt, args, err := r.builder.Select("user_id").
		From("admin.user_roles").
		Where(squirrel.Eq{"role_id": roleID}).
		OrderBy("user_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query role users: %w", err)
	}
	defer rows.Close()

	userIDs := make([]int64, 0)
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan role user: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role users: %w", err)
	}

	return userIDs, nil
}

func scanRole(rows pgx.Rows) (domain.Role, error) {
	var (
		role        domain.Role
		description sql.NullString
	)
	if err := rows.Scan(&role.ID, &role.Name, &description, &role.IsSystem, &role.CreatedAt); err != nil {
		return domain.Role{}, fmt.Errorf("scan role: %w", err)
	}
	if description.Valid {
		desc := description.String
		role.Description = &desc
	}
	return role, nil
}

func scanRoleRow(row pgx.Row) (*domain.Role, error) {
	var (
		role        domain.Role
		description sql.NullString
	)
	if err := row.Scan(&role.ID, &role.Name, &description, &role.IsSystem, &role.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		desc := description.String
		role.Description = &desc
	}
	return &role, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ port.RoleRepository = (*RoleRepository)(nil)
