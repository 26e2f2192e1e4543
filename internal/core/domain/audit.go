package domain

import "time"

// AuditAction enumerates the role-store events emitted to the audit sink.
type AuditAction string

const (
	AuditRoleCreate       AuditAction = "ROLE_CREATE"
	AuditRoleUpdate       AuditAction = "ROLE_UPDATE"
	AuditRoleDelete       AuditAction = "ROLE_DELETE"
	AuditPermissionChange AuditAction = "PERMISSION_CHANGE"
)

// RoleSnapshot captures the externally visible state of a role for audit trails.
type RoleSnapshot struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	IsSystem    bool     `json:"is_system"`
	Permissions []string `json:"permissions,omitempty"`
}

// SnapshotRole builds an audit snapshot from a role's current state.
func SnapshotRole(role Role) *RoleSnapshot {
	return &RoleSnapshot{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		Permissions: role.PermissionNames(),
	}
}

// PermissionDelta records which permission names an operation added or removed.
type PermissionDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// AuditEvent is the structured record shipped to the audit collaborator.
// Publishing is best-effort: a failed audit write never undoes the
// already-committed operation that triggered it.
type AuditEvent struct {
	EventID     string
	Action      AuditAction
	ActorUserID int64
	RoleID      int64
	Before      *RoleSnapshot
	After       *RoleSnapshot
	Delta       *PermissionDelta
	OccurredAt  time.Time
}
