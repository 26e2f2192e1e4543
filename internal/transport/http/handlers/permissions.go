package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// PermissionHandler serves the read-only permission catalog.
type PermissionHandler struct {
	permissions *usecase.PermissionService
}

// NewPermissionHandler builds a permission handler.
func NewPermissionHandler(permissions *usecase.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

// ListPermissions godoc
// @Summary List permissions
// @Description Returns the full permission catalog ordered by category and name.
// @Tags Permissions
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} PermissionListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.permissions.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list permissions"))
		return
	}

	payloads := toPermissionPayloads(permissions)
	c.JSON(http.StatusOK, PermissionListResponse{Permissions: payloads, Total: len(payloads)})
}

// GetPermission godoc
// @Summary Get a permission
// @Description Returns a single permission catalog entry.
// @Tags Permissions
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path int true "Permission ID"
// @Success 200 {object} PermissionPayload
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permission id"))
		return
	}

	permission, err := h.permissions.GetPermission(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "permission not found"},
		}, http.StatusInternalServerError, "failed to get permission")
		return
	}

	c.JSON(http.StatusOK, toPermissionPayload(*permission))
}

// GroupedPermissions godoc
// @Summary List permissions grouped by category
// @Description Returns the catalog grouped by category; entries without a
// @Description category land in the "other" group.
// @Tags Permissions
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} PermissionGroupsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/permissions/grouped [get]
func (h *PermissionHandler) GroupedPermissions(c *gin.Context) {
	grouped, err := h.permissions.GroupedByCategory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to group permissions"))
		return
	}

	groups := make(map[string][]PermissionPayload, len(grouped.Groups))
	for category, perms := range grouped.Groups {
		groups[category] = toPermissionPayloads(perms)
	}

	c.JSON(http.StatusOK, PermissionGroupsResponse{Groups: groups, Total: grouped.Total})
}

// ListCategories godoc
// @Summary List permission categories
// @Description Returns the sorted list of distinct permission categories.
// @Tags Permissions
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} CategoryListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/permissions/categories [get]
func (h *PermissionHandler) ListCategories(c *gin.Context) {
	categories, err := h.permissions.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list categories"))
		return
	}

	c.JSON(http.StatusOK, CategoryListResponse{Categories: categories})
}
