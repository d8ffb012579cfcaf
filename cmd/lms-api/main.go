package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edulane/lms-api/api/swagger"
	"github.com/edulane/lms-api/internal/handler"
	"github.com/edulane/lms-api/internal/middleware"
	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/internal/repository"
	"github.com/edulane/lms-api/internal/service"
	"github.com/edulane/lms-api/pkg/cache"
	"github.com/edulane/lms-api/pkg/config"
	"github.com/edulane/lms-api/pkg/database"
	"github.com/edulane/lms-api/pkg/logger"
	corsmiddleware "github.com/edulane/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulane/lms-api/pkg/middleware/requestid"
	"github.com/edulane/lms-api/pkg/storage"
)

// @title EduLane LMS API
// @version 1.0.0
// @description Assessment scoring, progress aggregation and course analytics
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	forumRepo := repository.NewForumRepository(db)
	liveSessionRepo := repository.NewLiveSessionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "edulane-lms",
	})
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, nil, logr)
	progressSvc := service.NewProgressService(courseRepo, assessmentRepo, progressRepo, submissionRepo, enrollmentRepo, notificationRepo, service.ProgressServiceConfig{
		MilestonesEnabled: cfg.Progress.MilestonesEnabled,
		WorkerConcurrency: cfg.Progress.WorkerConcurrency,
		AtRiskThreshold:   cfg.Progress.AtRiskThreshold,
	}, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, assessmentRepo, courseRepo, enrollmentRepo, progressSvc, notificationSvc, nil, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, submissionRepo, enrollmentRepo, notificationSvc, nil, logr)
	dashboardSvc := service.NewDashboardService(analyticsRepo, courseRepo, assessmentRepo, cacheRepo, service.DashboardServiceConfig{
		CacheEnabled: cfg.Analytics.CacheEnabled,
		CacheTTL:     cfg.Analytics.CacheTTL,
		TrendDays:    cfg.Analytics.TrendDays,
	}, logr)
	forumSvc := service.NewForumService(forumRepo, courseRepo, enrollmentRepo, nil, logr)
	liveSessionSvc := service.NewLiveSessionService(liveSessionRepo, courseRepo, enrollmentRepo, nil, logr)
	calendarSvc := service.NewCalendarService(assessmentRepo, liveSessionRepo, logr)
	exportSvc := service.NewExportService(courseRepo, assessmentRepo, submissionRepo, enrollmentRepo, exportStore, exportSigner, logr)

	ctx := context.Background()
	progressSvc.Start(ctx)
	defer progressSvc.Stop()

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, metricsSvc)
	progressHandler := handler.NewProgressHandler(progressSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	forumHandler := handler.NewForumHandler(forumSvc)
	liveSessionHandler := handler.NewLiveSessionHandler(liveSessionSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleFacilitator)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	facilitatorOnly := middleware.RequireRoles(models.RoleFacilitator)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	courses := authed.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.POST("", staff, courseHandler.Create)
		courses.GET("/:id", courseHandler.Get)
		courses.PUT("/:id", staff, courseHandler.Update)
		courses.GET("/:id/modules", courseHandler.ListModules)
		courses.POST("/:id/modules", staff, courseHandler.AddModule)
		courses.PUT("/:id/modules/reorder", staff, courseHandler.ReorderModules)
		courses.POST("/:id/enroll", studentOnly, courseHandler.Enroll)
		courses.GET("/:id/roster", staff, courseHandler.Roster)
		courses.GET("/:id/progress", progressHandler.CourseProgress)
		courses.GET("/:id/forum", forumHandler.ListPosts)
		courses.POST("/:id/forum", forumHandler.CreatePost)
		courses.POST("/:id/gradebook/export", staff, exportHandler.Gradebook)
		courses.GET("/:id/sessions", liveSessionHandler.List)
		courses.POST("/:id/sessions", staff, liveSessionHandler.Schedule)
	}

	modules := authed.Group("/modules")
	{
		modules.PUT("/:moduleId", staff, courseHandler.UpdateModule)
		modules.GET("/:moduleId/resources", courseHandler.ListResources)
		modules.POST("/:moduleId/resources", staff, courseHandler.AddResource)
		modules.GET("/:moduleId/assessments", assessmentHandler.ListByModule)
	}

	assessments := authed.Group("/assessments")
	{
		assessments.POST("", staff, assessmentHandler.Create)
		assessments.GET("/:id", assessmentHandler.Get)
		assessments.PUT("/:id", staff, assessmentHandler.Update)
		assessments.POST("/extend-deadlines", staff, assessmentHandler.ExtendDeadlines)
		assessments.GET("/:id/submissions", staff, submissionHandler.ListByAssessment)
	}

	submissions := authed.Group("/submissions")
	{
		submissions.POST("", studentOnly, submissionHandler.Submit)
		submissions.GET("/:id", submissionHandler.Get)
		submissions.PUT("/:id/grade", staff, submissionHandler.Grade)
		submissions.POST("/bulk-adjust", staff, submissionHandler.BulkAdjust)
	}

	progress := authed.Group("/progress")
	{
		progress.POST("/views", studentOnly, progressHandler.RecordView)
		progress.GET("/at-risk", facilitatorOnly, progressHandler.AtRisk)
	}

	analytics := authed.Group("/analytics", facilitatorOnly)
	{
		analytics.GET("/dashboard", dashboardHandler.Dashboard)
		analytics.GET("/summary", dashboardHandler.Summary)
		analytics.DELETE("/cache", dashboardHandler.Invalidate)
	}

	forum := authed.Group("/forum")
	{
		forum.GET("/:postId", forumHandler.Thread)
		forum.POST("/:postId/replies", forumHandler.Reply)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
	}

	authed.GET("/calendar/upcoming", calendarHandler.Upcoming)
	authed.GET("/exports/download", exportHandler.Download)
	authed.GET("/admin/metrics", adminOnly, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
