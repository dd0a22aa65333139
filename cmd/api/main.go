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

	_ "github.com/edcenter/tutorcenter-api/api/swagger"
	"github.com/edcenter/tutorcenter-api/internal/handler"
	"github.com/edcenter/tutorcenter-api/internal/middleware"
	"github.com/edcenter/tutorcenter-api/internal/repository"
	"github.com/edcenter/tutorcenter-api/internal/service"
	"github.com/edcenter/tutorcenter-api/pkg/cache"
	"github.com/edcenter/tutorcenter-api/pkg/config"
	"github.com/edcenter/tutorcenter-api/pkg/database"
	"github.com/edcenter/tutorcenter-api/pkg/logger"
	corsmiddleware "github.com/edcenter/tutorcenter-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edcenter/tutorcenter-api/pkg/middleware/requestid"
	"github.com/edcenter/tutorcenter-api/pkg/storage"
)

// @title Tutor Center API
// @version 1.0.0
// @description Administration backend for a tutoring center: students, courses, attendance, payments and debt tracking.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.RedisCacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewRedisCacheRepository(redisClient)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cfg.Students.DeleteMode, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, courseRepo, cacheRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, studentRepo, cacheRepo, validate, logr)
	debtSvc := service.NewDebtService(studentRepo, enrollmentRepo, courseRepo, paymentRepo, cacheRepo, cfg.Cache.TTL, logr)
	statsSvc := service.NewStatsService(studentRepo, paymentRepo, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(debtSvc, store, signer, cfg.Reports.WorkerConcurrency, logr)
		reportSvc.Start(context.Background())
		defer reportSvc.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc, metricsSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Payments:    handler.NewPaymentHandler(paymentSvc, metricsSvc),
		Debts:       handler.NewDebtHandler(debtSvc),
		Stats:       handler.NewStatsHandler(statsSvc),
		Metrics:     metricsHandler,
	}
	if reportSvc != nil {
		handlers.Reports = handler.NewReportHandler(reportSvc, metricsSvc)
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
