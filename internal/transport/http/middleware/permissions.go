package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// PermissionGuard enforces permission requirements on routes. Grants are
// resolved server-side per request; nothing in the token or any client state
// is trusted for authorization decisions.
type PermissionGuard struct {
	access *usecase.AccessService
	logger *zap.Logger
}

// NewPermissionGuard constructs a guard backed by the access service.
func NewPermissionGuard(access *usecase.AccessService, logger *zap.Logger) *PermissionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGuard{access: access, logger: logger}
}

// RequireAll aborts with 403 unless the caller holds every listed permission.
// An unauthenticated request is also a 403: the route exists, the caller may
// not use it.
func (g *PermissionGuard) RequireAll(required ...string) gin.HandlerFunc {
	return g.require(required, g.access.CheckAll)
}

// RequireAny aborts with 403 unless the caller holds at least one of the
// listed permissions.
func (g *PermissionGuard) RequireAny(required ...string) gin.HandlerFunc {
	return g.require(required, g.access.CheckAny)
}

type checkFunc func(ctx context.Context, userID int64, required ...string) (bool, error)

func (g *PermissionGuard) require(required []string, check checkFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetAuthenticatedUserID(c)
		if !ok {
			g.logger.Warn("permission check without authenticated user",
				zap.String("path", c.Request.URL.Path),
				zap.Strings("required", required),
			)
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}

		allowed, err := check(c.Request.Context(), userID, required...)
		if err != nil {
			g.logger.Error("permission check failed",
				zap.Int64("user_id", userID),
				zap.Strings("required", required),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authorization check failed"))
			return
		}

		if !allowed {
			g.logger.Info("permission denied",
				zap.Int64("user_id", userID),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("required", required),
			)
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}

		c.Next()
	}
}
