package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/kkn-placement-api/api/swagger"
	"github.com/noah-isme/kkn-placement-api/internal/handler"
	"github.com/noah-isme/kkn-placement-api/internal/middleware"
	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/internal/repository"
	"github.com/noah-isme/kkn-placement-api/internal/service"
	"github.com/noah-isme/kkn-placement-api/pkg/cache"
	"github.com/noah-isme/kkn-placement-api/pkg/config"
	"github.com/noah-isme/kkn-placement-api/pkg/database"
	"github.com/noah-isme/kkn-placement-api/pkg/export"
	"github.com/noah-isme/kkn-placement-api/pkg/jobs"
	"github.com/noah-isme/kkn-placement-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/kkn-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/kkn-placement-api/pkg/middleware/requestid"
	"github.com/noah-isme/kkn-placement-api/pkg/storage"
)

// @title KKN Placement API
// @version 1.0.0
// @description Placement lifecycle and review workflow engine for community service field placements
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TemplateTTL, logr, true)
		}
	}

	events := service.NewEventService(nil, metrics, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
	}, logr, cfg.Events.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	events.Start(ctx)
	defer events.Stop()

	certStorage, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("certificate storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	registrationRepo := repository.NewRegistrationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	reportRepo := repository.NewReportRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	documentSvc := service.NewDocumentService(templateRepo, cacheSvc, cfg.Cache.TemplateTTL, logr)
	registrationSvc := service.NewRegistrationService(
		registrationRepo, documentRepo, auditRepo, templateRepo,
		documentSvc, events, metrics, cfg.Documents.MaxPerRegistration, logr)
	teamSvc := service.NewTeamService(teamRepo, registrationRepo, reportRepo, cacheSvc, cfg.Cache.RosterTTL, logr)
	reportSvc := service.NewReportService(reportRepo, teamRepo, events, metrics, logr)
	gradeSvc := service.NewGradeService(
		gradeRepo, registrationRepo, teamRepo, templateRepo,
		export.NewCertificateRenderer(), certStorage, signer,
		cfg.Certificates.IssuerName, logr)

	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	teamHandler := handler.NewTeamHandler(teamSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	templateHandler := handler.NewTemplateHandler(documentSvc)
	certificateHandler := handler.NewCertificateHandler(signer, certStorage)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/certificates/download", certificateHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Actor(cfg.JWT.Secret))
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.AuditTrail(logr))

	registrations := api.Group("/registrations")
	{
		registrations.POST("", registrationHandler.Create)
		registrations.GET("", registrationHandler.List)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.POST("/:id/review", middleware.RequireCapability(models.CapabilityReviewRegistration), registrationHandler.Review)
		registrations.POST("/:id/resubmit", registrationHandler.Resubmit)
		registrations.POST("/:id/comments", registrationHandler.Comment)
		registrations.POST("/:id/documents", registrationHandler.UploadDocument)
		registrations.GET("/:id/documents", registrationHandler.Documents)
		registrations.GET("/:id/completeness", registrationHandler.Completeness)
		registrations.GET("/:id/audit", registrationHandler.AuditTrail)
		registrations.GET("/:id/audit/export", registrationHandler.ExportAudit)

		registrations.PUT("/:id/grade", middleware.RequireCapability(models.CapabilityAssignGrades), gradeHandler.Assign)
		registrations.GET("/:id/grade", gradeHandler.Get)
		registrations.GET("/:id/grade/certificate", gradeHandler.CertificateLink)
	}

	teams := api.Group("/teams")
	{
		teams.POST("", middleware.RequireCapability(models.CapabilityManageTeams), teamHandler.Create)
		teams.GET("", teamHandler.List)
		teams.GET("/:id", teamHandler.Get)
		teams.GET("/:id/officer-status", teamHandler.OfficerStatus)
		teams.POST("/:id/members", middleware.RequireCapability(models.CapabilityManageTeams), teamHandler.AddMember)
		teams.DELETE("/:id/members/:memberId", middleware.RequireCapability(models.CapabilityManageTeams), teamHandler.RemoveMember)
		teams.POST("/:id/activate", middleware.RequireCapability(models.CapabilityManageTeams), teamHandler.Activate)
		teams.POST("/:id/complete", middleware.RequireCapability(models.CapabilityManageTeams), teamHandler.Complete)

		teams.POST("/:id/reports", reportHandler.Submit)
		teams.GET("/:id/reports", reportHandler.List)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/:id", reportHandler.Get)
		reports.POST("/:id/evaluate", reportHandler.Evaluate)
		reports.POST("/:id/resubmit", reportHandler.Resubmit)
		reports.GET("/:id/history", reportHandler.History)
	}

	api.GET("/periods/:id", templateHandler.GetPeriod)
	api.GET("/periods/:id/templates", templateHandler.ListForPeriod)
	api.PUT("/templates", middleware.RequireCapability(models.CapabilityManageTemplates), templateHandler.Upsert)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
