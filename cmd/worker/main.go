package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-facture/internal/app"
	"github.com/noah-isme/backend-facture/internal/config"
	"github.com/noah-isme/backend-facture/internal/lock"
	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/queue"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "facture")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	queue.MustRegisterMetrics(metricsNamespace, nil)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.Bootstrap(bootCtx, cfg, logger, app.Options{ApplicationName: "facture-worker"})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for asynq")
	}

	expire := queue.ExpireQuotesHandler{
		Expirer: deps.Documents,
		Locker:  lock.Locker{R: deps.Redis, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL: cfg.LockTTL,
		Logger:  logger,
	}
	mux := queue.NewServeMux(logger, expire)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		ShutdownTimeout: 20 * time.Second,
		Logger:          asynqLogger{logger: logger},
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC, Logger: asynqLogger{logger: logger}})
	entries, err := queue.RegisterPeriodic(scheduler, cfg.QuoteExpiryInterval)
	if err != nil {
		logger.Fatal().Err(err).Msg("register periodic tasks")
	}
	logger.Info().Strs("entries", entries).Dur("interval", cfg.QuoteExpiryInterval).Msg("periodic tasks registered")

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	if err := server.Start(mux); err != nil {
		scheduler.Shutdown()
		logger.Fatal().Err(err).Msg("start worker")
	}

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	<-ctx.Done()
	scheduler.Shutdown()
	server.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
