package handlers

import (
	"context"

	"github.com/SscSPs/ledger_sync/cmd/docs"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// A non-nil dbCheck is run by /health.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	syncLimiter *limiter.Limiter,
	dbCheck func(context.Context) error,
) {
	r.GET("/health", healthCheck(dbCheck))

	// Cron-facing endpoints, guarded by the shared secret rather than a user JWT
	registerSyncRoutes(r,
		newSyncHandler(services.Scheduler, cfg.DefaultTenantID),
		middleware.SyncSecretAuth(cfg.SyncSecret),
		middleware.RateLimit(syncLimiter),
	)

	setupAPIV1Routes(r, cfg, services)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	registerPaymentRoutes(v1, service.Payments)
	registerInvoiceRoutes(v1, service.Billing)
	registerConnectionRoutes(v1, service.Connections, cfg.IsProduction)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
