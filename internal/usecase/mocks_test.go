package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/port"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

// In-memory repository mocks shared by the usecase tests.

type roleRepoMock struct {
	nextID          int64
	roles           map[int64]domain.Role
	rolePermissions map[int64][]int64
	roleUsers       map[int64][]int64
	permissions     *permRepoMock

	createErr error
	updateErr error
	deleteErr error
	attachErr error
	detachErr error
}

func newRoleRepoMock(permissions *permRepoMock) *roleRepoMock {
	return &roleRepoMock{
		nextID:          1,
		roles:           make(map[int64]domain.Role),
		rolePermissions: make(map[int64][]int64),
		roleUsers:       make(map[int64][]int64),
		permissions:     permissions,
	}
}

func (m *roleRepoMock) seed(role domain.Role, permissionIDs []int64, userIDs []int64) int64 {
	if role.ID == 0 {
		role.ID = m.nextID
	}
	if role.ID >= m.nextID {
		m.nextID = role.ID + 1
	}
	role.CreatedAt = time.Now().UTC()
	m.roles[role.ID] = role
	m.rolePermissions[role.ID] = append([]int64(nil), permissionIDs...)
	m.roleUsers[role.ID] = append([]int64(nil), userIDs...)
	return role.ID
}

func (m *roleRepoMock) Create(_ context.Context, role domain.Role) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	role.ID = m.nextID
	role.CreatedAt = time.Now().UTC()
	m.nextID++
	m.roles[role.ID] = role
	return role.ID, nil
}

func (m *roleRepoMock) CreateWithPermissions(ctx context.Context, role domain.Role, permissionIDs []int64) (int64, error) {
	id, err := m.Create(ctx, role)
	if err != nil {
		return 0, err
	}
	if _, err := m.AttachPermissions(ctx, id, permissionIDs); err != nil {
		// all-or-nothing: undo the insert like a rollback would
		delete(m.roles, id)
		return 0, err
	}
	return id, nil
}

func (m *roleRepoMock) List(_ context.Context) ([]domain.Role, error) {
	ids := make([]int64, 0, len(m.roles))
	for id := range m.roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return m.roles[ids[i]].Name < m.roles[ids[j]].Name })

	roles := make([]domain.Role, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, m.roles[id])
	}
	return roles, nil
}

func (m *roleRepoMock) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	if role, ok := m.roles[id]; ok {
		return &role, nil
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) GetByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) Update(_ context.Context, id int64, update port.RoleUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	role, ok := m.roles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Name != nil {
		role.Name = *update.Name
	}
	if update.Description != nil {
		role.Description = update.Description
	}
	m.roles[id] = role
	return nil
}

func (m *roleRepoMock) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, id)
	delete(m.rolePermissions, id)
	delete(m.roleUsers, id)
	return nil
}

func (m *roleRepoMock) AttachPermissions(_ context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if m.attachErr != nil {
		return 0, m.attachErr
	}

	existing := make(map[int64]struct{}, len(m.rolePermissions[roleID]))
	for _, id := range m.rolePermissions[roleID] {
		existing[id] = struct{}{}
	}

	attached := 0
	for _, id := range permissionIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		m.rolePermissions[roleID] = append(m.rolePermissions[roleID], id)
		attached++
	}
	return attached, nil
}

func (m *roleRepoMock) DetachPermissions(_ context.Context, roleID int64, permissionIDs []int64) (int, error) {
	if m.detachErr != nil {
		return 0, m.detachErr
	}

	toRemove := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		toRemove[id] = struct{}{}
	}

	kept := make([]int64, 0, len(m.rolePermissions[roleID]))
	detached := 0
	for _, id := range m.rolePermissions[roleID] {
		if _, ok := toRemove[id]; ok {
			detached++
			continue
		}
		kept = append(kept, id)
	}
	m.rolePermissions[roleID] = kept
	return detached, nil
}

func (m *roleRepoMock) CountUsers(_ context.Context, roleID int64) (int, error) {
	return len(m.roleUsers[roleID]), nil
}

func (m *roleRepoMock) CountUsersByRole(_ context.Context, roleIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(roleIDs))
	for _, id := range roleIDs {
		counts[id] = len(m.roleUsers[id])
	}
	return counts, nil
}

func (m *roleRepoMock) ListUserIDs(_ context.Context, roleID int64) ([]int64, error) {
	return append([]int64(nil), m.roleUsers[roleID]...), nil
}

type permRepoMock struct {
	permissions map[int64]domain.Permission
	roleRepo    *roleRepoMock
	userErr     error

	listByUserCalls int
	userPermissions map[int64][]domain.Permission
}

func newPermRepoMock() *permRepoMock {
	return &permRepoMock{
		permissions:     make(map[int64]domain.Permission),
		userPermissions: make(map[int64][]domain.Permission),
	}
}

func (m *permRepoMock) seed(id int64, name string) {
	m.permissions[id] = domain.Permission{
		ID:       id,
		Name:     name,
		Category: domain.PermissionCategory(name),
	}
}

func (m *permRepoMock) ordered(perms []domain.Permission) []domain.Permission {
	sort.Slice(perms, func(i, j int) bool {
		if perms[i].Category != perms[j].Category {
			return perms[i].Category < perms[j].Category
		}
		return perms[i].Name < perms[j].Name
	})
	return perms
}

func (m *permRepoMock) List(_ context.Context) ([]domain.Permission, error) {
	perms := make([]domain.Permission, 0, len(m.permissions))
	for _, permission := range m.permissions {
		perms = append(perms, permission)
	}
	return m.ordered(perms), nil
}

func (m *permRepoMock) GetByID(_ context.Context, id int64) (*domain.Permission, error) {
	if permission, ok := m.permissions[id]; ok {
		return &permission, nil
	}
	return nil, repository.ErrNotFound
}

func (m *permRepoMock) GetByName(_ context.Context, name string) (*domain.Permission, error) {
	for _, permission := range m.permissions {
		if permission.Name == name {
			found := permission
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *permRepoMock) GetByIDs(_ context.Context, ids []int64) ([]domain.Permission, error) {
	perms := make([]domain.Permission, 0, len(ids))
	for _, id := range ids {
		if permission, ok := m.permissions[id]; ok {
			perms = append(perms, permission)
		}
	}
	return m.ordered(perms), nil
}

func (m *permRepoMock) ListCategories(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, permission := range m.permissions {
		if permission.Category == "" {
			continue
		}
		if _, ok := seen[permission.Category]; ok {
			continue
		}
		seen[permission.Category] = struct{}{}
		categories = append(categories, permission.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *permRepoMock) ListByRole(_ context.Context, roleID int64) ([]domain.Permission, error) {
	if m.roleRepo == nil {
		return []domain.Permission{}, nil
	}
	perms := make([]domain.Permission, 0)
	for _, id := range m.roleRepo.rolePermissions[roleID] {
		if permission, ok := m.permissions[id]; ok {
			perms = append(perms, permission)
		}
	}
	return m.ordered(perms), nil
}

func (m *permRepoMock) ListByRoles(ctx context.Context, roleIDs []int64) (map[int64][]domain.Permission, error) {
	grouped := make(map[int64][]domain.Permission, len(roleIDs))
	for _, roleID := range roleIDs {
		perms, err := m.ListByRole(ctx, roleID)
		if err != nil {
			return nil, err
		}
		grouped[roleID] = perms
	}
	return grouped, nil
}

func (m *permRepoMock) ListByUser(_ context.Context, userID int64) ([]domain.Permission, error) {
	m.listByUserCalls++
	if m.userErr != nil {
		return nil, m.userErr
	}
	perms := append([]domain.Permission(nil), m.userPermissions[userID]...)
	return m.ordered(perms), nil
}

func (m *permRepoMock) UserHasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	perms, err := m.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, permission := range perms {
		if permission.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type auditPublisherMock struct {
	events     []domain.AuditEvent
	publishErr error
}

func (m *auditPublisherMock) PublishAuditEvent(_ context.Context, event domain.AuditEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *auditPublisherMock) lastEvent() *domain.AuditEvent {
	if len(m.events) == 0 {
		return nil
	}
	return &m.events[len(m.events)-1]
}

type permissionCacheMock struct {
	sets        map[int64]domain.PermissionSet
	invalidated []int64
	getErr      error
	setErr      error

	getCalls int
}

func newPermissionCacheMock() *permissionCacheMock {
	return &permissionCacheMock{sets: make(map[int64]domain.PermissionSet)}
}

func (m *permissionCacheMock) GetPermissionSet(_ context.Context, userID int64) (domain.PermissionSet, bool, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	set, ok := m.sets[userID]
	return set, ok, nil
}

func (m *permissionCacheMock) SetPermissionSet(_ context.Context, userID int64, set domain.PermissionSet, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets[userID] = set
	return nil
}

func (m *permissionCacheMock) InvalidateUsers(_ context.Context, userIDs []int64) error {
	for _, userID := range userIDs {
		delete(m.sets, userID)
	}
	m.invalidated = append(m.invalidated, userIDs...)
	return nil
}

var (
	_ port.RoleRepository       = (*roleRepoMock)(nil)
	_ port.PermissionRepository = (*permRepoMock)(nil)
	_ port.AuditPublisher       = (*auditPublisherMock)(nil)
	_ port.PermissionCache      = (*permissionCacheMock)(nil)
)
