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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/courses-api/internal/handler"
	"github.com/noah-isme/courses-api/internal/models"
	"github.com/noah-isme/courses-api/internal/notify"
	"github.com/noah-isme/courses-api/internal/repository"
	"github.com/noah-isme/courses-api/internal/service"
	"github.com/noah-isme/courses-api/pkg/cache"
	"github.com/noah-isme/courses-api/pkg/config"
	"github.com/noah-isme/courses-api/pkg/database"
	"github.com/noah-isme/courses-api/pkg/jobs"
	"github.com/noah-isme/courses-api/pkg/kafka"
	"github.com/noah-isme/courses-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/courses-api/pkg/middleware/cors"
)

// @title Online Courses API
// @version 1.0.0
// @description Course summaries, grading pipeline and real-time notifications
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.shutdown()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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

type application struct {
	router   *gin.Engine
	shutdown func()
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	origins := corsmiddleware.NewPolicy(cfg.CORS.AllowedOrigins)
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	solutionRepo := repository.NewSolutionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Weather.CacheTTL, logr.Named("cache"))

	broker, err := newBroker(cfg.Notifications, cfg.WebSocket.SendBuffer, redisClient, logr)
	if err != nil {
		return nil, err
	}
	dispatchOpts := []notify.Option{notify.WithMetrics(metrics)}
	var producer *kafka.Producer
	if cfg.Notifications.KafkaEnabled {
		producer, err = kafka.NewProducer(kafka.Config{
			Brokers:      cfg.Notifications.KafkaBrokers,
			Topic:        cfg.Notifications.KafkaTopic,
			BatchTimeout: cfg.Notifications.KafkaBatch,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		dispatchOpts = append(dispatchOpts, notify.WithSink(notify.NewKafkaSink(producer)))
	}
	dispatcher := notify.NewDispatcher(broker, notify.DispatcherConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
	}, logr.Named("notify"), dispatchOpts...)
	dispatcher.Start(ctx)

	queue := jobs.NewQueue("background", jobs.QueueConfig{Workers: 2, Logger: logr.Named("jobs")})

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	summarySvc := service.NewSummaryService(summaryRepo, userRepo, enrollmentRepo, metrics, service.SummaryConfig{
		DefaultPageSize: cfg.Summary.DefaultPageSize,
		MaxPageSize:     cfg.Summary.MaxPageSize,
	}, logr)
	exportSvc := service.NewExportService(logr.Named("export"))
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, validate, logr)
	solutionSvc := service.NewSolutionService(solutionRepo, courseRepo, enrollmentRepo, userRepo, dispatcher, validate, logr)
	commentSvc := service.NewCommentService(commentRepo, solutionRepo, enrollmentRepo, validate, logr)
	weatherSvc := service.NewWeatherService(service.WeatherConfig{
		APIURL:       cfg.Weather.APIURL,
		Latitude:     cfg.Weather.Latitude,
		Longitude:    cfg.Weather.Longitude,
		HasLocation:  cfg.Weather.HasLocation,
		CacheKey:     cfg.Weather.CacheKey,
		CacheTTL:     cfg.Weather.CacheTTL,
		Retry:        jobs.RetryPolicy{MaxRetries: cfg.Weather.MaxRetries, Delay: cfg.Weather.RetryDelay},
		FetchTimeout: cfg.Weather.FetchTimeout,
	}, nil, cacheSvc, queue, metrics, logr.Named("weather"))

	queue.Register(service.JobFetchWeather, weatherSvc.HandleFetchJob)
	queue.Start(ctx)
	if cfg.Weather.FetchOnStart && cfg.Weather.HasLocation {
		if _, err := weatherSvc.RequestFetch(ctx, models.WeatherRequest{}); err != nil {
			logr.Warn("initial weather fetch not scheduled", zap.Error(err))
		}
	}

	handlers := routeHandlers{
		auth:        handler.NewAuthHandler(authSvc),
		summary:     handler.NewSummaryHandler(summarySvc, exportSvc),
		enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		solutions:   handler.NewSolutionHandler(solutionSvc, commentSvc),
		weather:     handler.NewWeatherHandler(weatherSvc, validate),
		realtime: handler.NewRealtimeHandler(broker, handler.RealtimeConfig{
			PingInterval: cfg.WebSocket.PingInterval,
			WriteTimeout: cfg.WebSocket.WriteTimeout,
			CheckOrigin:  origins.CheckOrigin,
		}, metrics, logr.Named("realtime")),
		metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	}
	router := newRouter(cfg, logr, origins, authSvc, metrics, handlers)

	return &application{
		router: router,
		shutdown: func() {
			queue.Stop()
			dispatcher.Stop()
			if err := broker.Close(); err != nil {
				logr.Warn("close broker", zap.Error(err))
			}
			if producer != nil {
				if err := producer.Close(); err != nil {
					logr.Warn("close kafka producer", zap.Error(err))
				}
			}
		},
	}, nil
}

// newBroker picks the fan-out backend. sendBuffer bounds each subscriber's queue.
func newBroker(cfg config.NotificationConfig, sendBuffer int, redisClient *redis.Client, logr *zap.Logger) (notify.Broker, error) {
	switch cfg.Broker {
	case config.BrokerRedis:
		return notify.NewRedisBroker(redisClient, sendBuffer, logr.Named("notify")), nil
	case config.BrokerMemory, "":
		return notify.NewHub(sendBuffer, logr.Named("notify")), nil
	default:
		return nil, fmt.Errorf("unknown notification broker %q", cfg.Broker)
	}
}
