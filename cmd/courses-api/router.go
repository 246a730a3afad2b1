package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/courses-api/api/swagger"
	"github.com/noah-isme/courses-api/internal/handler"
	"github.com/noah-isme/courses-api/internal/middleware"
	"github.com/noah-isme/courses-api/internal/models"
	"github.com/noah-isme/courses-api/internal/service"
	"github.com/noah-isme/courses-api/pkg/config"
	"github.com/noah-isme/courses-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/courses-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/courses-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	auth        *handler.AuthHandler
	summary     *handler.SummaryHandler
	enrollments *handler.EnrollmentHandler
	solutions   *handler.SolutionHandler
	weather     *handler.WeatherHandler
	realtime    *handler.RealtimeHandler
	metrics     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, origins *corsmiddleware.Policy, authSvc *service.AuthService, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(origins.Middleware())
	r.Use(middleware.Metrics(metrics, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/ws/notifications", middleware.SocketAuth(authSvc, cfg.WebSocket.AuthTimeout, logr), h.realtime.Notifications)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.auth.Login)
	api.POST("/auth/refresh", h.auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.GET("/auth/me", h.auth.Me)

	summary := secured.Group("/summary")
	summary.GET("/teachers/:id", h.summary.Teacher)
	summary.GET("/teachers/:id/export", h.summary.ExportTeacher)
	summary.GET("/students/:id", h.summary.Student)
	summary.GET("/students/:id/export", h.summary.ExportStudent)

	secured.POST("/enrollments", h.enrollments.Create)
	secured.POST("/enrollments/:id/approve", middleware.RequireRoles(models.RoleTeacher), h.enrollments.Approve)
	secured.POST("/enrollments/:id/reject", middleware.RequireRoles(models.RoleTeacher), h.enrollments.Reject)

	secured.POST("/solutions", middleware.RequireRoles(models.RoleStudent), h.solutions.Submit)
	secured.GET("/solutions/:id", h.solutions.Get)
	secured.PATCH("/solutions/:id/mark", middleware.RequireRoles(models.RoleTeacher), h.solutions.Grade)
	secured.POST("/solutions/:id/comments", h.solutions.CreateComment)
	secured.GET("/solutions/:id/comments", h.solutions.ListComments)

	secured.GET("/weather/fetch", h.weather.Fetch)
	secured.GET("/weather/cached", h.weather.Cached)

	secured.GET("/metrics/snapshot", middleware.RequireRoles(), h.metrics.Snapshot)

	return r
}
