package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/infra/config"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/infra/security"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/transport/http/handlers"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/transport/http/middleware"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Roles       *usecase.RoleService
	Permissions *usecase.PermissionService
	Access      *usecase.AccessService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Verifier    *security.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if len(deps.Config.App.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Verifier)
	guard := middleware.NewPermissionGuard(deps.Services.Access, deps.Logger)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mutationLimit := buildMutationLimiter(deps)

	api := r.Group("/api/v1")
	{
		roleHandler := handlers.NewRoleHandler(deps.Services.Roles)
		rolesGroup := api.Group("/roles")
		rolesGroup.Use(authMiddleware)
		rolesGroup.GET("", guard.RequireAny("roles.view", "roles.edit"), roleHandler.ListRoles)
		rolesGroup.GET("/:id", guard.RequireAny("roles.view", "roles.edit"), roleHandler.GetRole)

		mutations := rolesGroup.Group("")
		if mutationLimit != nil {
			mutations.Use(mutationLimit)
		}
		mutations.POST("", guard.RequireAll("roles.edit"), roleHandler.CreateRole)
		mutations.PATCH("/:id", guard.RequireAll("roles.edit"), roleHandler.UpdateRole)
		mutations.DELETE("/:id", guard.RequireAll("roles.delete"), roleHandler.DeleteRole)
		mutations.POST("/:id/permissions", guard.RequireAll("roles.edit"), roleHandler.AssignPermissions)
		mutations.DELETE("/:id/permissions", guard.RequireAll("roles.edit"), roleHandler.RemovePermissions)

		permissionHandler := handlers.NewPermissionHandler(deps.Services.Permissions)
		permissionsGroup := api.Group("/permissions")
		permissionsGroup.Use(authMiddleware, guard.RequireAny("roles.view", "roles.edit"))
		permissionsGroup.GET("", permissionHandler.ListPermissions)
		permissionsGroup.GET("/grouped", permissionHandler.GroupedPermissions)
		permissionsGroup.GET("/categories", permissionHandler.ListCategories)
		permissionsGroup.GET("/:id", permissionHandler.GetPermission)

		meHandler := handlers.NewMeHandler(deps.Services.Access)
		meGroup := api.Group("/me")
		meGroup.Use(authMiddleware)
		meGroup.GET("/permissions", meHandler.MyPermissions)
	}

	handlers.RegisterSwagger(r)

	return r
}

func buildMutationLimiter(deps Dependencies) gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.MutationMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "role_mutation_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return deps.RateLimiter.RateLimit(rule)
}
