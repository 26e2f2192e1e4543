package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

var (
	// ErrRoleExists indicates a role with the provided name already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrSystemRole indicates a protected built-in role cannot be deleted.
	ErrSystemRole = errors.New("system roles cannot be deleted")
	// ErrRoleNameRequired indicates an empty role name was supplied.
	ErrRoleNameRequired = errors.New("role name is required")
)

// UnknownPermissionsError names the permission IDs that do not exist in the
// catalog. The triggering operation makes no change when it is returned.
type UnknownPermissionsError struct {
	IDs []int64
}

func (e *UnknownPermissionsError) Error() string {
	return fmt.Sprintf("unknown permission ids: %v", e.IDs)
}

// CreateRoleInput captures the payload for creating a role.
type CreateRoleInput struct {
	Name          string
	Description   *string
	PermissionIDs []int64
}

// UpdateRoleInput captures a partial-field role update. Nil fields are left
// untouched.
type UpdateRoleInput struct {
	Name        *string
	Description *string
}

// RoleService manages roles and their permission assignments.
type RoleService struct {
	roles       port.RoleRepository
	permissions port.PermissionRepository
	audit       port.AuditPublisher
	cache       port.PermissionCache
	logger      *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles port.RoleRepository, permissions port.PermissionRepository, audit port.AuditPublisher, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{roles: roles, permissions: permissions, audit: audit, logger: logger}
}

// WithPermissionCache wires the short-TTL permission cache so role mutations
// can invalidate affected users.
func (s *RoleService) WithPermissionCache(cache port.PermissionCache) *RoleService {
	s.cache = cache
	return s
}

// ListRoles returns every role annotated with its user count and permissions.
// Permissions and counts are batched in one query each, keyed by role ID.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	if len(roles) == 0 {
		return roles, nil
	}

	roleIDs := make([]int64, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}

	counts, err := s.roles.CountUsersByRole(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("count role users: %w", err)
	}

	permissions, err := s.permissions.ListByRoles(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}

	for i := range roles {
		roles[i].UserCount = counts[roles[i].ID]
		roles[i].Permissions = permissions[roles[i].ID]
		if roles[i].Permissions == nil {
			roles[i].Permissions = []domain.Permission{}
		}
	}

	return roles, nil
}

// GetRole returns a single role with its permissions and user count.
func (s *RoleService) GetRole(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	if err := s.annotate(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

// FindRoleByName looks a role up for uniqueness pre-checks. A missing name
// returns (nil, nil) rather than an error.
func (s *RoleService) FindRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return role, nil
}

// CreateRole provisions a new role, optionally seeding permissions. The role
// insert and all permission attachments commit in one transaction.
func (s *RoleService) CreateRole(ctx context.Context, actorID int64, input CreateRoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrRoleNameRequired
	}

	if existing, err := s.FindRoleByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrRoleExists
	}

	if err := s.validatePermissionIDs(ctx, input.PermissionIDs); err != nil {
		return nil, err
	}

	role := domain.Role{Name: name}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed != "" {
			role.Description = &trimmed
		}
	}

	id, err := s.roles.CreateWithPermissions(ctx, role, input.PermissionIDs)
	if err != nil {
		// A concurrent create can slip past the pre-check and hit the
		// unique index instead.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRoleExists
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	created, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, domain.AuditEvent{
		Action:      domain.AuditRoleCreate,
		ActorUserID: actorID,
		RoleID:      created.ID,
		After:       domain.SnapshotRole(*created),
	})

	return created, nil
}

// UpdateRole applies a partial-field update. A name change re-checks
// uniqueness, excluding the role's own row.
func (s *RoleService) UpdateRole(ctx context.Context, actorID, id int64, input UpdateRoleInput) (*domain.Role, error) {
	current, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	update := port.RoleUpdate{Description: input.Description}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrRoleNameRequired
		}
		if name != current.Name {
			if existing, err := s.FindRoleByName(ctx, name); err != nil {
				return nil, err
			} else if existing != nil && existing.ID != id {
				return nil, ErrRoleExists
			}
		}
		update.Name = &name
	}

	if err := s.roles.Update(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRoleExists
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	updated, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, domain.AuditEvent{
		Action:      domain.AuditRoleUpdate,
		ActorUserID: actorID,
		RoleID:      id,
		Before:      domain.SnapshotRole(*current),
		After:       domain.SnapshotRole(*updated),
	})

	s.invalidateRoleUsers(ctx, id, nil)

	return updated, nil
}

// DeleteRole removes a role. System roles are protected; deleting a role that
// still has users is allowed but logged so the orphaned assignments are
// visible to operators.
func (s *RoleService) DeleteRole(ctx context.Context, actorID, id int64) error {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return ErrSystemRole
	}

	if role.UserCount > 0 {
		s.logger.Warn("deleting role with assigned users",
			zap.Int64("role_id", id),
			zap.String("role_name", role.Name),
			zap.Int("user_count", role.UserCount),
		)
	}

	userIDs, err := s.roles.ListUserIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("list role users: %w", err)
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete role: %w", err)
	}

	s.publishAudit(ctx, domain.AuditEvent{
		Action:      domain.AuditRoleDelete,
		ActorUserID: actorID,
		RoleID:      id,
		Before:      domain.SnapshotRole(*role),
	})

	s.invalidateRoleUsers(ctx, id, userIDs)

	return nil
}

// AssignPermissions attaches permissions to a role. All supplied IDs must
// exist in the catalog or nothing changes; re-assigning an already-attached
// permission is a no-op for that pair.
func (s *RoleService) AssignPermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) (*domain.Role, error) {
	before, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if err := s.validatePermissionIDs(ctx, permissionIDs); err != nil {
		return nil, err
	}

	if _, err := s.roles.AttachPermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, fmt.Errorf("attach permissions: %w", err)
	}

	after, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, domain.AuditEvent{
		Action:      domain.AuditPermissionChange,
		ActorUserID: actorID,
		RoleID:      roleID,
		Delta:       permissionDelta(before.PermissionNames(), after.PermissionNames()),
	})

	s.invalidateRoleUsers(ctx, roleID, nil)

	return after, nil
}

// RemovePermissions detaches permissions from a role. Pairs that are not
// currently assigned are tolerated.
func (s *RoleService) RemovePermissions(ctx context.Context, actorID, roleID int64, permissionIDs []int64) (*domain.Role, error) {
	before, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.roles.DetachPermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, fmt.Errorf("detach permissions: %w", err)
	}

	after, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, domain.AuditEvent{
		Action:      domain.AuditPermissionChange,
		ActorUserID: actorID,
		RoleID:      roleID,
		Delta:       permissionDelta(before.PermissionNames(), after.PermissionNames()),
	})

	s.invalidateRoleUsers(ctx, roleID, nil)

	return after, nil
}

func (s *RoleService) annotate(ctx context.Context, role *domain.Role) error {
	permissions, err := s.permissions.ListByRole(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("list role permissions: %w", err)
	}
	role.Permissions = permissions

	count, err := s.roles.CountUsers(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("count role users: %w", err)
	}
	role.UserCount = count

	return nil
}

// validatePermissionIDs checks every supplied ID against the catalog and
// reports the full invalid set at once.
func (s *RoleService) validatePermissionIDs(ctx context.Context, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}

	known, err := s.permissions.GetByIDs(ctx, permissionIDs)
	if err != nil {
		return fmt.Errorf("validate permission ids: %w", err)
	}

	knownSet := make(map[int64]struct{}, len(known))
	for _, permission := range known {
		knownSet[permission.ID] = struct{}{}
	}

	var unknown []int64
	seen := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := knownSet[id]; !ok {
			unknown = append(unknown, id)
		}
	}

	if len(unknown) > 0 {
		return &UnknownPermissionsError{IDs: unknown}
	}

	return nil
}

// publishAudit ships an audit event after the triggering operation committed.
// Failures are logged and swallowed; an audit outage must not undo or block
// role changes.
func (s *RoleService) publishAudit(ctx context.Context, event domain.AuditEvent) {
	if s.audit == nil {
		return
	}

	event.EventID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()

	if err := s.audit.PublishAuditEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish audit event",
			zap.String("action", string(event.Action)),
			zap.Int64("role_id", event.RoleID),
			zap.Error(err),
		)
	}
}

// invalidateRoleUsers drops cached permission sets for users holding the
// role. Cache failures are logged and ignored; the TTL bounds staleness.
func (s *RoleService) invalidateRoleUsers(ctx context.Context, roleID int64, userIDs []int64) {
	if s.cache == nil {
		return
	}

	if userIDs == nil {
		ids, err := s.roles.ListUserIDs(ctx, roleID)
		if err != nil {
			s.logger.Warn("failed to resolve users for cache invalidation",
				zap.Int64("role_id", roleID), zap.Error(err))
			return
		}
		userIDs = ids
	}

	if err := s.cache.InvalidateUsers(ctx, userIDs); err != nil {
		s.logger.Warn("failed to invalidate permission cache",
			zap.Int64("role_id", roleID), zap.Error(err))
	}
}

func permissionDelta(before, after []string) *domain.PermissionDelta {
	beforeSet := domain.NewPermissionSet(before...)
	afterSet := domain.NewPermissionSet(after...)

	delta := &domain.PermissionDelta{}
	for _, name := range after {
		if !beforeSet.Has(name) {
			delta.Added = append(delta.Added, name)
		}
	}
	for _, name := range before {
		if !afterSet.Has(name) {
			delta.Removed = append(delta.Removed, name)
		}
	}

	return delta
}
