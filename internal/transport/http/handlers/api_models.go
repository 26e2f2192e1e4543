package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Details []int64 `json:"details,omitempty"`
	TraceID string  `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PermissionPayload describes a permission catalog entry.
type PermissionPayload struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
}

// RolePayload describes a role with its assignment metadata.
type RolePayload struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description,omitempty"`
	IsSystem    bool                `json:"is_system"`
	CreatedAt   time.Time           `json:"created_at"`
	UserCount   int                 `json:"user_count"`
	Permissions []PermissionPayload `json:"permissions"`
}

// RoleListResponse wraps the role collection.
type RoleListResponse struct {
	Roles []RolePayload `json:"roles"`
	Total int           `json:"total"`
}

// RoleCreateRequest defines the payload for creating a role.
type RoleCreateRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// RoleUpdateRequest defines a partial role update. Omitted fields keep their
// current values.
type RoleUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// RolePermissionsRequest lists permission IDs to attach or detach.
type RolePermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" binding:"required"`
}

// PermissionListResponse wraps the flat permission catalog.
type PermissionListResponse struct {
	Permissions []PermissionPayload `json:"permissions"`
	Total       int                 `json:"total"`
}

// PermissionGroupsResponse groups the catalog by category.
type PermissionGroupsResponse struct {
	Groups map[string][]PermissionPayload `json:"groups"`
	Total  int                            `json:"total"`
}

// CategoryListResponse lists the distinct permission categories.
type CategoryListResponse struct {
	Categories []string `json:"categories"`
}

// MyPermissionsResponse returns the caller's effective permission names.
type MyPermissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse reports dependency readiness.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func toPermissionPayload(p domain.Permission) PermissionPayload {
	return PermissionPayload{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
	}
}

func toPermissionPayloads(perms []domain.Permission) []PermissionPayload {
	payloads := make([]PermissionPayload, 0, len(perms))
	for _, p := range perms {
		payloads = append(payloads, toPermissionPayload(p))
	}
	return payloads
}

func toRolePayload(role *domain.Role) RolePayload {
	return RolePayload{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		CreatedAt:   role.CreatedAt,
		UserCount:   role.UserCount,
		Permissions: toPermissionPayloads(role.Permissions),
	}
}
