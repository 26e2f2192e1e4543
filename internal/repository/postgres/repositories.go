package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Roles       *RoleRepository
	Permissions *PermissionRepository
}

// NewRepositories wires all repositories backed by the provided database.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Roles:       NewRoleRepository(db),
		Permissions: NewPermissionRepository(db),
	}
}
