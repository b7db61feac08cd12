package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/horario-api/api/swagger"
	"github.com/noah-isme/horario-api/internal/handler"
	internalmiddleware "github.com/noah-isme/horario-api/internal/middleware"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/internal/service"
	"github.com/noah-isme/horario-api/internal/timetable"
	"github.com/noah-isme/horario-api/pkg/cache"
	"github.com/noah-isme/horario-api/pkg/config"
	"github.com/noah-isme/horario-api/pkg/database"
	"github.com/noah-isme/horario-api/pkg/export"
	"github.com/noah-isme/horario-api/pkg/jobs"
	"github.com/noah-isme/horario-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/horario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/horario-api/pkg/middleware/requestid"
)

// @title Horario API
// @version 1.0.0
// @description Weekly school timetable generation, optimization and conflict detection
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

	grid := timetable.NewGrid(cfg.Timetable.Days, cfg.Timetable.Periods)
	if err := grid.Validate(); err != nil {
		logr.Fatal("invalid timetable grid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	cacheService := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.DefaultTTL, logr, redisClient != nil)

	levelRepo := repository.NewLevelDataRepository(db)
	restrictionRepo := repository.NewTeacherRestrictionRepository(db)
	ruleRepo := repository.NewScheduleRuleRepository(db)
	scheduleRepo := repository.NewGroupScheduleRepository(db)
	auditRepo := repository.NewConflictAuditRepository(db)

	auditor := service.NewConflictAuditor(scheduleRepo, auditRepo, cacheService, metrics, grid, logr, cfg.Timetable.ConflictCacheTTL)
	auditQueue := jobs.NewQueue("conflict-audit", auditor.Handle, jobs.QueueConfig{
		Workers:    cfg.Timetable.AuditWorkers,
		BufferSize: cfg.Timetable.AuditBuffer,
		MaxRetries: cfg.Timetable.AuditRetries,
		Logger:     logr,
	})
	auditor.UseQueue(auditQueue)
	auditQueue.Start(ctx)
	defer auditQueue.Stop()

	timetableService := service.NewTimetableService(
		levelRepo,
		restrictionRepo,
		ruleRepo,
		scheduleRepo,
		db,
		cacheService,
		metrics,
		auditor,
		nil,
		logr,
		service.TimetableConfig{
			Grid:             grid,
			ShuffleSeed:      cfg.Timetable.ShuffleSeed,
			ConflictCacheTTL: cfg.Timetable.ConflictCacheTTL,
		},
	)
	exportService := service.NewExportService(timetableService, export.NewCSVExporter(), export.NewPDFExporter(), nil, logr)
	restrictionService := service.NewTeacherRestrictionService(restrictionRepo, grid, nil, logr)
	ruleService := service.NewScheduleRuleService(ruleRepo, nil, logr)
	fixedBlockService := service.NewFixedBlockService(levelRepo, grid, nil, logr)
	authService := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Leeway:            cfg.JWT.Leeway,
	})

	timetableHandler := handler.NewTimetableHandler(timetableService, exportService, logr)
	restrictionHandler := handler.NewRestrictionHandler(restrictionService, auditor)
	ruleHandler := handler.NewRuleHandler(ruleService)
	fixedBlockHandler := handler.NewFixedBlockHandler(fixedBlockService)
	metricsHandler := handler.NewMetricsHandler(metrics, auditQueue, readinessChecks(db, redisClient))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	read, write, admin := roleGuards(cfg.JWT.Enabled, authService)
	api.GET("/metrics/summary", append(admin, metricsHandler.Summary)...)

	tt := api.Group("/timetable")
	tt.GET("/levels/:levelId/groups/:group", append(read, timetableHandler.GroupSchedule)...)
	tt.GET("/levels/:levelId/groups/:group/export", append(read, timetableHandler.Export)...)
	tt.POST("/levels/:levelId/groups/:group/generate", append(write, timetableHandler.Generate)...)
	tt.POST("/levels/:levelId/groups/:group/optimize", append(write, timetableHandler.Optimize)...)
	tt.PATCH("/levels/:levelId/groups/:group/blocks/:blockId", append(write, timetableHandler.MoveBlock)...)
	tt.DELETE("/levels/:levelId/groups/:group", append(write, timetableHandler.ClearGroup)...)
	tt.GET("/levels/:levelId/groups/:group/fixed-blocks", append(read, fixedBlockHandler.List)...)
	tt.POST("/levels/:levelId/groups/:group/fixed-blocks", append(write, fixedBlockHandler.Create)...)
	tt.PUT("/levels/:levelId/groups/:group/fixed-blocks/:blockId", append(write, fixedBlockHandler.Update)...)
	tt.DELETE("/levels/:levelId/groups/:group/fixed-blocks/:blockId", append(write, fixedBlockHandler.Delete)...)
	tt.POST("/levels/:levelId/subject-hours/clean", append(write, timetableHandler.CleanSubjectHours)...)
	tt.GET("/teachers/:teacherId", append(read, timetableHandler.TeacherSchedule)...)
	tt.GET("/teachers/:teacherId/restrictions", append(read, restrictionHandler.Get)...)
	tt.PUT("/teachers/:teacherId/restrictions", append(write, restrictionHandler.Upsert)...)
	tt.GET("/rules", append(read, ruleHandler.List)...)
	tt.PUT("/rules/:ruleId", append(write, ruleHandler.Update)...)
	tt.GET("/conflicts", append(read, timetableHandler.Conflicts)...)
	tt.GET("/conflicts/audits", append(read, restrictionHandler.Audits)...)
	tt.DELETE("/schedules", append(admin, timetableHandler.ClearAll)...)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "auth", cfg.JWT.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// roleGuards returns the middleware chains for read, write and admin routes.
// With auth disabled every chain is empty.
func roleGuards(enabled bool, validator internalmiddleware.TokenValidator) (read, write, admin []gin.HandlerFunc) {
	if !enabled {
		return nil, nil, nil
	}
	jwt := internalmiddleware.JWT(validator)
	read = []gin.HandlerFunc{jwt, internalmiddleware.RequireRoles(internalmiddleware.ReadRoles...)}
	write = []gin.HandlerFunc{jwt, internalmiddleware.RequireRoles(internalmiddleware.WriteRoles...)}
	admin = []gin.HandlerFunc{jwt, internalmiddleware.RequireRoles(internalmiddleware.AdminRoles...)}
	return read, write, admin
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}
