package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/api"
	"github.com/hackgods/telehealth-social/internal/appointment"
	"github.com/hackgods/telehealth-social/internal/auth"
	"github.com/hackgods/telehealth-social/internal/availability"
	"github.com/hackgods/telehealth-social/internal/config"
	"github.com/hackgods/telehealth-social/internal/connection"
	"github.com/hackgods/telehealth-social/internal/db"
	"github.com/hackgods/telehealth-social/internal/feed"
	"github.com/hackgods/telehealth-social/internal/logger"
	"github.com/hackgods/telehealth-social/internal/media"
	"github.com/hackgods/telehealth-social/internal/notify"
	"github.com/hackgods/telehealth-social/internal/profile"
	redisclient "github.com/hackgods/telehealth-social/internal/redis"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, zlog)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()

	if err := db.Migrate(rootCtx, pgPool); err != nil {
		zlog.Fatal("schema migration error", zap.Error(err))
	}

	rdb, err := redisclient.NewClient(rootCtx, cfg, zlog)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()

	publisher := newPublisher(cfg, zlog)
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Warn("error closing publisher", zap.Error(err))
		}
	}()

	store, err := newMediaStore(rootCtx, cfg, zlog)
	if err != nil {
		zlog.Fatal("media store error", zap.Error(err))
	}

	profiles := profile.NewService(profile.NewPgRepository(pgPool), zlog.Named("profile"))
	connections := connection.NewService(connection.NewPgRepository(pgPool), profiles, zlog.Named("connection"))
	posts := feed.NewService(feed.NewPgRepository(pgPool), connections, profiles, zlog.Named("feed"))
	schedule := availability.NewService(availability.NewPgRepository(pgPool), profiles, availability.Settings{
		Duration: cfg.SlotDuration,
		Gap:      cfg.SlotGap,
		Location: cfg.Location(),
	}, zlog.Named("availability"))
	appointments := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		schedule,
		profiles,
		redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL),
		publisher,
		cfg,
		zlog.Named("appointment"),
	)

	router := api.NewRouter(api.RouterConfig{
		Connections:  connections,
		Feed:         posts,
		Availability: schedule,
		Appointments: appointments,
		Profiles:     profiles,
		Media:        store,
		Auth:         auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, api.AuthErrorHandler(zlog)),
		Postgres:     pgPool,
		Redis:        api.RedisPinger{Client: rdb},
		Log:          zlog.Named("http"),
		Env:          cfg.Env,
		Version:      version,
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitRPS: cfg.RateLimitRPS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newPublisher connects to RabbitMQ. Booking keeps working without a broker,
// so a failed dial falls back to logging the messages.
func newPublisher(cfg config.Config, zlog *zap.Logger) notify.Publisher {
	if cfg.AMQPURL == "" {
		return notify.NewNoop(zlog.Named("notify"))
	}
	publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.ReminderQueue)
	if err != nil {
		zlog.Warn("amqp unavailable, notifications will only be logged", zap.Error(err))
		return notify.NewNoop(zlog.Named("notify"))
	}
	zlog.Info("connected to amqp", zap.String("queue", cfg.ReminderQueue))
	return publisher
}

// newMediaStore returns nil when no MinIO endpoint is configured. Uploads then
// fail with ErrDisabled.
func newMediaStore(ctx context.Context, cfg config.Config, zlog *zap.Logger) (*media.Store, error) {
	if cfg.MinioEndpoint == "" {
		zlog.Info("media uploads disabled, MINIO_ENDPOINT not set")
		return nil, nil
	}
	client, err := media.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		return nil, err
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := media.EnsureBucket(bucketCtx, client, cfg.MinioBucket); err != nil {
		return nil, err
	}
	zlog.Info("media store ready", zap.String("bucket", cfg.MinioBucket))
	return media.NewStore(client, cfg.MinioBucket), nil
}
