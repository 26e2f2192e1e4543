package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/transport/http/middleware"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// MeHandler serves endpoints scoped to the authenticated caller.
type MeHandler struct {
	access *usecase.AccessService
}

// NewMeHandler builds a handler for caller-scoped endpoints.
func NewMeHandler(access *usecase.AccessService) *MeHandler {
	return &MeHandler{access: access}
}

// MyPermissions godoc
// @Summary Get the caller's effective permissions
// @Description Returns the sorted, deduplicated permission names granted to
// @Description the authenticated user across all their roles. Clients use
// @Description this to adjust their UI; the server re-checks on every call.
// @Tags Me
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} MyPermissionsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/me/permissions [get]
func (h *MeHandler) MyPermissions(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	set, err := h.access.ResolvePermissionSet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to resolve permissions"))
		return
	}

	names := set.Names()
	sort.Strings(names)

	c.JSON(http.StatusOK, MyPermissionsResponse{UserID: userID, Permissions: names})
}
