package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/club-api/api/swagger"
	"github.com/noah-isme/club-api/internal/handler"
	internalmiddleware "github.com/noah-isme/club-api/internal/middleware"
	"github.com/noah-isme/club-api/internal/repository"
	"github.com/noah-isme/club-api/internal/service"
	"github.com/noah-isme/club-api/pkg/cache"
	"github.com/noah-isme/club-api/pkg/config"
	"github.com/noah-isme/club-api/pkg/database"
	"github.com/noah-isme/club-api/pkg/jobs"
	"github.com/noah-isme/club-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/club-api/pkg/middleware/requestid"
	"github.com/noah-isme/club-api/pkg/notify"
)

// @title Club API
// @version 1.0.0
// @description Course scheduling, resource reservations and enrollments for a sports club.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr),
		metrics,
		cfg.Scheduling.ScheduleCacheTTL,
		logr,
		cfg.Scheduling.CacheEnabled && redisClient != nil,
	)
	// resource rows may have changed while the process was down
	cacheSvc.InvalidatePattern(ctx, "resources:*")

	dispatcher, closeDispatcher := buildDispatcher(cfg.Notifications, logr)
	defer closeDispatcher()

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		queue := jobs.NewQueue("notifications", service.NotificationHandler(dispatcher), jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
			OnSuccess:  func(jobs.Job) { metrics.RecordNotification("sent") },
			OnGiveUp:   func(jobs.Job, error) { metrics.RecordNotification("failed") },
		})
		queue.Start(ctx)
		defer queue.Stop()
		notifier = service.NewNotificationService(queue, metrics, logr)
	}

	handlers := buildHandlers(db, cfg, cacheSvc, metrics, notifier, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	handler.Register(r.Group(cfg.APIPrefix), handlers)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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

func buildHandlers(db *sqlx.DB, cfg *config.Config, cacheSvc *service.CacheService, metrics *service.MetricsService, notifier *service.NotificationService, logr *zap.Logger) handler.Handlers {
	tx := database.NewTransactor(db, cfg.Scheduling.TxTimeout)

	resourceRepo := repository.NewResourceRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	slotRepo := repository.NewCourseSlotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	capacityRepo := repository.NewCapacityRepository(db)

	resources := service.NewResourceService(resourceRepo, cacheSvc, cfg.Scheduling.ResourceCacheTTL, logr)
	detector := service.NewConflictDetector(repository.NewBookingLedgerRepository(db), metrics, logr)

	opts := service.CourseScheduleOptions{
		Cache:    cacheSvc,
		CacheTTL: cfg.Scheduling.ScheduleCacheTTL,
		Metrics:  metrics,
		Logger:   logr,
	}
	// a typed nil would defeat the notifier nil check
	if notifier != nil {
		opts.Notifier = notifier
	}
	courses := service.NewCourseScheduleService(tx, service.ScheduleStores{
		Courses:      courseRepo,
		Tiers:        repository.NewPricingTierRepository(db),
		Reservations: reservationRepo,
		Slots:        slotRepo,
		Enrollments:  enrollmentRepo,
		Capacity:     capacityRepo,
	}, resources, detector, opts)

	enrollments := service.NewEnrollmentService(tx, enrollmentRepo, capacityRepo, courseRepo, slotRepo, metrics, nil, logr)
	reservations := service.NewReservationService(tx, reservationRepo, resources, detector, metrics, nil, logr)

	return handler.Handlers{
		Courses:      handler.NewCourseHandler(courses),
		Enrollments:  handler.NewEnrollmentHandler(enrollments),
		Reservations: handler.NewReservationHandler(reservations),
	}
}

func buildDispatcher(cfg config.NotificationConfig, logr *zap.Logger) (notify.Dispatcher, func()) {
	if cfg.Driver == config.NotifyDriverAMQP {
		d, err := notify.NewAMQPDispatcher(notify.AMQPConfig{
			URL:            cfg.AMQPURL,
			Exchange:       cfg.Exchange,
			RoutingKey:     cfg.RoutingKey,
			PublishTimeout: cfg.PublishTimeout,
		})
		if err == nil {
			return d, func() { _ = d.Close() }
		}
		logr.Warn("rabbitmq unavailable, logging notifications instead", zap.Error(err))
	}
	return notify.NewLogDispatcher(logr), func() {}
}
