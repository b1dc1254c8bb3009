package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/appointment"
	"github.com/hackgods/telehealth-social/internal/availability"
	"github.com/hackgods/telehealth-social/internal/config"
	"github.com/hackgods/telehealth-social/internal/db"
	"github.com/hackgods/telehealth-social/internal/logger"
	"github.com/hackgods/telehealth-social/internal/notify"
	"github.com/hackgods/telehealth-social/internal/profile"
	redisclient "github.com/hackgods/telehealth-social/internal/redis"
)

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

	zlog.Info("reminder-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("lead", cfg.ReminderLead))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, zlog)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewClient(rootCtx, cfg, zlog)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()

	// Reminders are the whole point of this process, so a broker is required.
	publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.ReminderQueue)
	if err != nil {
		zlog.Fatal("amqp connection error", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zlog.Warn("error closing publisher", zap.Error(err))
		}
	}()

	profiles := profile.NewService(profile.NewPgRepository(pgPool), zlog.Named("profile"))
	schedule := availability.NewService(availability.NewPgRepository(pgPool), profiles, availability.Settings{
		Duration: cfg.SlotDuration,
		Gap:      cfg.SlotGap,
		Location: cfg.Location(),
	}, zlog.Named("availability"))
	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		schedule,
		profiles,
		redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL),
		publisher,
		cfg,
		zlog.Named("appointment"),
	)

	// Run once at startup
	runOnce(rootCtx, svc, zlog)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, zlog)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := svc.TriggerReminders(runCtx)
	if err != nil {
		zlog.Error("reminder run error", zap.Error(err))
		return
	}
	zlog.Info("reminder run complete",
		zap.Int("sent", sent),
		zap.Duration("took", time.Since(start)))
}
