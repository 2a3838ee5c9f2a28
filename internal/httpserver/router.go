package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"habitd/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	habitHandler *handler.HabitHandler,
	scheduleHandler *handler.ScheduleHandler,
	recordHandler *handler.RecordHandler,
	analyticsHandler *handler.AnalyticsHandler,
	adminHandler *handler.AdminHandler,
	jwtSecret string,
	db *pgxpool.Pool,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(500, gin.H{"status": "db_not_ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/token", authHandler.Token)
	r.POST("/auth/token/refresh", authHandler.Refresh)
	r.GET("/auth/verify/:userID/:token", authHandler.Verify)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/habits", habitHandler.List)
		auth.POST("/habits", habitHandler.Create)
		auth.GET("/habits/:habitID", habitHandler.Get)
		auth.PATCH("/habits/:habitID", habitHandler.Update)
		auth.DELETE("/habits/:habitID", habitHandler.Delete)

		auth.GET("/habits/:habitID/schedules", scheduleHandler.List)
		auth.POST("/habits/:habitID/schedules", scheduleHandler.Create)
		auth.GET("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Get)
		auth.PATCH("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Update)
		auth.DELETE("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Delete)

		auth.GET("/habits/:habitID/records", recordHandler.List)
		auth.POST("/habits/:habitID/records", recordHandler.Create)
		auth.GET("/habits/:habitID/records/:recordID", recordHandler.Get)
		auth.PATCH("/habits/:habitID/records/:recordID", recordHandler.Update)
		auth.DELETE("/habits/:habitID/records/:recordID", recordHandler.Delete)

		auth.GET("/habits/:habitID/analytics", analyticsHandler.HabitCompletions)
		auth.GET("/analytics/completions", analyticsHandler.Completions)

		auth.POST("/admin/outbox/replay", adminHandler.ReplayOutboxEvent)
		auth.POST("/admin/outbox/replay-failed", adminHandler.ReplayFailedOutboxEvents)
	}

	return &Router{Engine: r}
}
