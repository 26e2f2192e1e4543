package domain

import (
	"strings"
	"time"
)

// PermissionWildcardAll is the super-admin permission granting everything.
const PermissionWildcardAll = "*"

// PermissionCategoryOther buckets permissions whose name carries no category.
const PermissionCategoryOther = "other"

// Permission defines a named capability in `category.action` form.
type Permission struct {
	ID          int64
	Name        string
	Category    string
	Description *string
}

// PermissionCategory derives the category segment of a permission name.
// Returns PermissionCategoryOther when the name has no dot-separated category.
func PermissionCategory(name string) string {
	if idx := strings.Index(name, "."); idx > 0 {
		return name[:idx]
	}
	return PermissionCategoryOther
}

// CategoryWildcard returns the `category.*` form covering the named permission.
func CategoryWildcard(name string) string {
	if idx := strings.Index(name, "."); idx > 0 {
		return name[:idx] + ".*"
	}
	return ""
}

// Role defines a named set of permissions.
type Role struct {
	ID          int64
	Name        string
	Description *string
	IsSystem    bool
	CreatedAt   time.Time

	// Derived fields, populated by the role store.
	UserCount   int
	Permissions []Permission
}

// PermissionNames returns the names of the role's attached permissions.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, permission := range r.Permissions {
		names = append(names, permission.Name)
	}
	return names
}

// RolePermission links a role with a permission.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID     int64
	RoleID     int64
	AssignedAt time.Time
}

// PermissionSet is the flat set of permission names resolved for one user.
// It is the unit the authorization evaluator consumes.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the exact permission name is in the set.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set members as a slice. Order is unspecified.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}
