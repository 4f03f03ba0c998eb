package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Database is the connection reported on by /health and /metrics
type Database interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, db Database, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = cfg.Import.MaxUploadSize

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	userHandler := NewUserHandler(services, log)
	roleHandler := NewRoleHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	dashboardHandler := NewDashboardHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(db, log))
	router.GET("/metrics", metricsHandler(services, db, log))

	// API v1
	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.POST("/bulk", importHandler.ImportUsers)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
			users.PATCH("/:id/toggle-status", userHandler.ToggleStatus)
		}

		imports := v1.Group("/imports")
		{
			imports.GET("/:id", importHandler.GetImport)
			imports.GET("/:id/errors", importHandler.GetImportErrors)
		}

		v1.GET("/roles", roleHandler.List)
		v1.GET("/periods", dashboardHandler.Periods)

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/users", dashboardHandler.Users)
			dashboard.GET("/reports", dashboardHandler.Reports)
		}

		v1.GET("/exports", exportHandler.StreamExport)
	}

	return router
}

// healthCheck reports healthy only while the database answers a ping
func healthCheck(db Database, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if err := db.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("Database health check failed")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "activity-reports-api",
		})
	}
}

// metricsHandler returns record counts and connection pool usage
func metricsHandler(services *service.Services, db Database, log zerolog.Logger) gin.HandlerFunc {
	count := func(ctx context.Context, resource string) int {
		n, err := services.Export.GetCount(ctx, resource)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Msg("Failed to count records")
		}
		return n
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCount := count(ctx, "users")
		reportsCount := count(ctx, "reports")
		pool := db.Stats()

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"users":   usersCount,
				"reports": reportsCount,
			},
			"pool": gin.H{
				"open":   pool.OpenConnections,
				"in_use": pool.InUse,
				"idle":   pool.Idle,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
