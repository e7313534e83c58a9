package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-life/aegis-api/internal/app"
	jobmetrics "github.com/aegis-life/aegis-api/internal/jobs"
	"github.com/aegis-life/aegis-api/internal/platform/db"
	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := jobmetrics.NewMetrics(nil)

	policiesRepo := policies.NewRepository(pool)
	policiesCache := policies.NewCache(redisClient, cfg.PopularCacheTTL)
	policiesService := policies.NewService(policiesRepo, policiesCache, logger)

	welcomeJob := jobs.NewWelcomeMailJob(jobs.LogMailer{Logger: logger}, logger, metrics)
	popularityJob := jobs.NewPopularityRefreshJob(policiesService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeWelcomeMail, Handler: welcomeJob.Handle},
			{Type: jobs.TaskTypePopularityRefresh, Handler: popularityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.PopularCronSpec, Task: jobs.NewPopularityRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
