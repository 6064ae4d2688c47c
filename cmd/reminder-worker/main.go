package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agendaja-app/agendaja-backend/internal/cron"
	"github.com/agendaja-app/agendaja-backend/internal/reminders"
	"github.com/agendaja-app/agendaja-backend/pkg/config"
	"github.com/agendaja-app/agendaja-backend/pkg/db"
	"github.com/agendaja-app/agendaja-backend/pkg/logger"
	"github.com/agendaja-app/agendaja-backend/pkg/metrics"
	"github.com/agendaja-app/agendaja-backend/pkg/migrate"
	"github.com/agendaja-app/agendaja-backend/pkg/redis"
	"github.com/agendaja-app/agendaja-backend/pkg/whatsapp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reminder-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reminder-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reminder-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	whatsappClient, err := whatsapp.NewClient(context.Background(), cfg.WhatsApp, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create whatsapp client", err)
		os.Exit(1)
	}

	dispatcher, err := reminders.NewDispatcher(reminders.DispatcherParams{
		Repo:         reminders.NewRepository(dbClient.DB()),
		Sender:       whatsappClient,
		Logger:       logg,
		Metrics:      metrics.NewReminderMetrics(prometheus.DefaultRegisterer),
		PollInterval: cfg.Reminder.PollInterval,
		BatchSize:    cfg.Reminder.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder dispatcher", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("reminder-worker", cfg.App.Env), cfg.Reminder.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder lock", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reminder worker")

	if err := run(ctx, logg, dispatcher, lock, cfg.Reminder.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reminder worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reminder worker shutting down gracefully")
}

// run scans once per poll interval. The lock keeps concurrent instances from
// double-sending within the same window; a held lock just skips the tick.
func run(ctx context.Context, logg *logger.Logger, dispatcher *reminders.Dispatcher, lock cron.Lock, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		scan(ctx, logg, dispatcher, lock)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func scan(ctx context.Context, logg *logger.Logger, dispatcher *reminders.Dispatcher, lock cron.Lock) {
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		logg.Error(ctx, "failed to acquire reminder lock", err)
		return
	}
	if !acquired {
		logg.Info(ctx, "reminder lock held elsewhere, skipping scan")
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logg.Error(ctx, "failed to release reminder lock", err)
		}
	}()

	stats, err := dispatcher.Scan(ctx)
	if err != nil {
		logg.Error(ctx, "reminder scan failed", err)
		return
	}
	if stats.Sent > 0 || stats.Failed > 0 {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"sent":    stats.Sent,
			"failed":  stats.Failed,
			"skipped": stats.Skipped,
		}), "reminder scan complete")
	}
}
