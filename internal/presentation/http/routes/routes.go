// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/container"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/handlers"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	syncHandlers := handlers.NewSyncHandlers(container.Metrics, container.Logger)
	sseHandlers := handlers.NewSSEHandlers(container.Broadcaster, container.Logger)
	metricsHandlers := handlers.NewMetricsHandlers(container.Metrics, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.Registry, container.Logger)
	reportHandlers := handlers.NewReportHandlers(container.Archive, container.Metrics, container.Logger)
	tenantHandlers := handlers.NewTenantHandlers(container.Registry, container.TenantManager, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container)

	// Public routes: liveness and login need no tenant context.
	r.GET("/api/v1/health", systemHandlers.GetHealth)
	r.POST("/api/v1/auth/login", authHandlers.PostLogin)
	r.GET("/api/v1/auth/status", authHandlers.GetStatus)

	// Operator routes gated by the default tenant's admin token.
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AdminMiddleware(container.Registry))
	{
		admin.GET("/status", systemHandlers.GetStatus)
		admin.GET("/tenants", tenantHandlers.GetTenants)
		admin.POST("/tenants", tenantHandlers.PostRegisterTenant)
		admin.POST("/tenants/:id/activate", tenantHandlers.PostActivateTenant)
		admin.POST("/tenants/:id/deactivate", tenantHandlers.PostDeactivateTenant)
		admin.GET("/metrics/reads", metricsHandlers.GetReadMetrics)
		admin.POST("/metrics/reads/reset", metricsHandlers.PostResetMetrics)
	}

	// Tenant-scoped API
	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(container.Detector, container.TenantManager))
	{
		syncGroup := api.Group("/sync")
		{
			syncGroup.GET("", syncHandlers.GetReadModel)
			syncGroup.GET("/stream", sseHandlers.GetStream)
			syncGroup.GET("/:dataset", syncHandlers.GetDataset)
			syncGroup.POST("/:dataset/invalidate", syncHandlers.PostInvalidate)
			syncGroup.POST("/:dataset/refresh", syncHandlers.PostRefresh)
			syncGroup.PATCH("/:dataset/records/:id", syncHandlers.PatchRecord)
		}

		api.GET("/reports/archive", reportHandlers.GetArchivedReports)
	}

	return r
}
