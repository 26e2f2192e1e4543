package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/transport/http/middleware"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// RoleHandler serves role management endpoints.
type RoleHandler struct {
	roles *usecase.RoleService
}

// NewRoleHandler builds a role handler backed by the role service.
func NewRoleHandler(roles *usecase.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

func roleErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "role not found"},
		{Err: usecase.ErrRoleExists, Status: http.StatusConflict, Message: "role name already in use"},
		{Err: usecase.ErrSystemRole, Status: http.StatusForbidden, Message: "system roles cannot be deleted"},
		{Err: usecase.ErrRoleNameRequired, Status: http.StatusBadRequest, Message: "role name is required"},
	}
}

func parseRoleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role id"))
		return 0, false
	}
	return id, true
}

func respondRoleError(c *gin.Context, err error, fallback string) {
	var unknown *usecase.UnknownPermissionsError
	if errors.As(err, &unknown) {
		resp := NewErrorResponse(c, "unknown permission ids")
		resp.Details = unknown.IDs
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	RespondWithMappedError(c, err, roleErrorCases(), http.StatusInternalServerError, fallback)
}

// ListRoles godoc
// @Summary List roles
// @Description Returns every role with its permissions and assigned user count.
// @Tags Roles
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} RoleListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roles.ListRoles(c.Request.Context())
	if err != nil {
		respondRoleError(c, err, "failed to list roles")
		return
	}

	payloads := make([]RolePayload, 0, len(roles))
	for i := range roles {
		payloads = append(payloads, toRolePayload(&roles[i]))
	}

	c.JSON(http.StatusOK, RoleListResponse{Roles: payloads, Total: len(payloads)})
}

// GetRole godoc
// @Summary Get a role
// @Description Returns a single role with its permissions and user count.
// @Tags Roles
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Role ID"
// @Success 200 {object} RolePayload
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseRoleID(c)
	if !ok {
		return
	}

	role, err := h.roles.GetRole(c.Request.Context(), id)
	if err != nil {
		respondRoleError(c, err, "failed to get role")
		return
	}

	c.JSON(http.StatusOK, toRolePayload(role))
}

// CreateRole godoc
// @Summary Create a role
// @Description Creates a role, optionally seeding its permission set.
// @Tags Roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body RoleCreateRequest true "Role create request"
// @Success 201 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	input := usecase.CreateRoleInput{
		Name:          strings.TrimSpace(req.Name),
		PermissionIDs: req.PermissionIDs,
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			input.Description = &trimmed
		}
	}

	role, err := h.roles.CreateRole(c.Request.Context(), actorID, input)
	if err != nil {
		respondRoleError(c, err, "failed to create role")
		return
	}

	c.JSON(http.StatusCreated, toRolePayload(role))
}

// UpdateRole godoc
// @Summary Update a role
// @Description Applies a partial update to a role's name and description.
// @Tags Roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Role ID"
// @Param request body RoleUpdateRequest true "Role update request"
// @Success 200 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	id, ok := parseRoleID(c)
	if !ok {
		return
	}

	var req RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	role, err := h.roles.UpdateRole(c.Request.Context(), actorID, id, usecase.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondRoleError(c, err, "failed to update role")
		return
	}

	c.JSON(http.StatusOK, toRolePayload(role))
}

// DeleteRole godoc
// @Summary Delete a role
// @Description Deletes a role. System roles are protected. Deleting a role
// @Description that still has assigned users removes those assignments.
// @Tags Roles
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Role ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	id, ok := parseRoleID(c)
	if !ok {
		return
	}

	if err := h.roles.DeleteRole(c.Request.Context(), actorID, id); err != nil {
		respondRoleError(c, err, "failed to delete role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role deleted"})
}

// AssignPermissions godoc
// @Summary Attach permissions to a role
// @Description Adds the listed permissions to the role. Already-attached
// @Description permissions are ignored; unknown IDs reject the whole request.
// @Tags Roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Role ID"
// @Param request body RolePermissionsRequest true "Permission IDs"
// @Success 200 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{id}/permissions [post]
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	id, ok := parseRoleID(c)
	if !ok {
		return
	}

	var req RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	role, err := h.roles.AssignPermissions(c.Request.Context(), actorID, id, req.PermissionIDs)
	if err != nil {
		respondRoleError(c, err, "failed to assign permissions")
		return
	}

	c.JSON(http.StatusOK, toRolePayload(role))
}

// RemovePermissions godoc
// @Summary Detach permissions from a role
// @Description Removes the listed permissions from the role. Absent pairs are
// @Description ignored.
// @Tags Roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Role ID"
// @Param request body RolePermissionsRequest true "Permission IDs"
// @Success 200 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/roles/{id}/permissions [delete]
func (h *RoleHandler) RemovePermissions(c *gin.Context) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	id, ok := parseRoleID(c)
	if !ok {
		return
	}

	var req RolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	role, err := h.roles.RemovePermissions(c.Request.Context(), actorID, id, req.PermissionIDs)
	if err != nil {
		respondRoleError(c, err, "failed to remove permissions")
		return
	}

	c.JSON(http.StatusOK, toRolePayload(role))
}
