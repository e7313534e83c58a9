package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-life/aegis-api/internal/app"
	"github.com/aegis-life/aegis-api/internal/applications"
	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/blogs"
	"github.com/aegis-life/aegis-api/internal/observability"
	"github.com/aegis-life/aegis-api/internal/payments"
	"github.com/aegis-life/aegis-api/internal/platform/db"
	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/internal/reviews"
	"github.com/aegis-life/aegis-api/internal/shared"
	"github.com/aegis-life/aegis-api/internal/subscribers"
	"github.com/aegis-life/aegis-api/internal/users"
	"github.com/aegis-life/aegis-api/jobs"
	"github.com/aegis-life/aegis-api/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	codec := auth.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, codec)
	gate := auth.NewGate(codec, authService, logger)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, gate)

	policiesRepo := policies.NewRepository(pool)
	policiesCache := policies.NewCache(redisClient, cfg.PopularCacheTTL)
	policiesService := policies.NewService(policiesRepo, policiesCache, logger)
	policiesHandler := policies.NewHandler(logger, policiesService, gate)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}

	applicationsRepo := applications.NewRepository(pool)
	applicationsService := applications.NewService(applicationsRepo, policiesService, usersService, authService, pdfClient, auditLogger, logger)
	applicationsHandler := applications.NewHandler(logger, applicationsService, gate)

	blogsRepo := blogs.NewRepository(pool)
	blogsService := blogs.NewService(blogsRepo, usersService, auditLogger, logger)
	blogsHandler := blogs.NewHandler(logger, blogsService, gate)

	reviewsRepo := reviews.NewRepository(pool)
	reviewsService := reviews.NewService(reviewsRepo, policiesService, usersService)
	reviewsHandler := reviews.NewHandler(logger, reviewsService, gate)

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey)
	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, stripeClient, applicationsRepo, idempotencyStore, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService, gate)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	subscribersRepo := subscribers.NewRepository(pool)
	subscribersService := subscribers.NewService(subscribersRepo, jobsClient, logger)
	subscribersHandler := subscribers.NewHandler(logger, subscribersService, gate)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Pool:                pool,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		PoliciesHandler:     policiesHandler,
		ApplicationsHandler: applicationsHandler,
		BlogsHandler:        blogsHandler,
		ReviewsHandler:      reviewsHandler,
		PaymentsHandler:     paymentsHandler,
		SubscribersHandler:  subscribersHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
