package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jadwalin/timetable-api/api/swagger"
	"github.com/jadwalin/timetable-api/internal/handler"
	"github.com/jadwalin/timetable-api/internal/middleware"
	"github.com/jadwalin/timetable-api/internal/repository"
	"github.com/jadwalin/timetable-api/internal/service"
	"github.com/jadwalin/timetable-api/pkg/cache"
	"github.com/jadwalin/timetable-api/pkg/config"
	"github.com/jadwalin/timetable-api/pkg/database"
	"github.com/jadwalin/timetable-api/pkg/logger"
	corsmiddleware "github.com/jadwalin/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jadwalin/timetable-api/pkg/middleware/requestid"
	"github.com/jadwalin/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 0.1.0
// @description Weekly class timetable generation and manual placement service
// @BasePath /api/v1
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
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	activityRepo := repository.NewActivityRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	roomRepo := repository.NewRoomRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	timetableSvc := service.NewTimetableService(activityRepo, timetableRepo, cacheRepo, db, metricsSvc, validate, logr, cfg.Timetable)
	placementSvc := service.NewPlacementService(validate, logr, cfg.Timetable)
	activitySvc := service.NewActivityService(activityRepo, instructorRepo, roomRepo, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			sugar.Fatalw("failed to init export storage", "error", err)
		}
		exportSvc = service.NewExportService(timetableSvc, activityRepo, store, metricsSvc, validate, logr, service.ExportConfig{
			ArtifactTTL:       cfg.Exports.ArtifactTTL,
			CleanupInterval:   cfg.Exports.CleanupInterval,
			WorkerConcurrency: cfg.Exports.WorkerConcurrency,
			WorkerRetries:     cfg.Exports.WorkerRetries,
		})
		exportSvc.Start(context.Background())
		defer exportSvc.Stop()
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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	placementHandler := handler.NewPlacementHandler(placementSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)

	api := r.Group(cfg.APIPrefix)
	{
		timetables := api.Group("/timetables")
		{
			timetables.POST("/generate", timetableHandler.Generate)
			timetables.POST("", timetableHandler.Save)
			timetables.GET("", timetableHandler.List)
			timetables.GET("/:id", timetableHandler.Get)
			timetables.POST("/:id/publish", timetableHandler.Publish)
			timetables.DELETE("/:id", timetableHandler.Delete)
		}

		sessions := api.Group("/placement/sessions")
		{
			sessions.POST("", placementHandler.Start)
			sessions.POST("/:id/next-window", placementHandler.NextWindow)
			sessions.POST("/:id/slots", placementHandler.PlaceSlot)
			sessions.GET("/:id/slots", placementHandler.Slots)
			sessions.DELETE("/:id/slots", placementHandler.ClearSlot)
			sessions.DELETE("/:id", placementHandler.Close)
		}

		activities := api.Group("/activities")
		{
			activities.GET("", activityHandler.List)
			activities.POST("", activityHandler.Create)
			activities.GET("/:id", activityHandler.Get)
			activities.PUT("/:id", activityHandler.Update)
			activities.DELETE("/:id", activityHandler.Delete)
		}

		api.GET("/instructors", activityHandler.ListInstructors)
		api.POST("/instructors", activityHandler.CreateInstructor)
		api.GET("/rooms", activityHandler.ListRooms)
		api.POST("/rooms", activityHandler.CreateRoom)

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			exports := api.Group("/exports")
			{
				exports.POST("", exportHandler.Enqueue)
				exports.GET("/:id", exportHandler.Status)
				exports.GET("/:id/download", exportHandler.Download)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	sugar.Infow("server starting", "addr", addr, "env", cfg.Env, "exports", cfg.Exports.Enabled)
	if err := r.Run(addr); err != nil {
		sugar.Fatalw("server failed", "error", err)
	}
}
