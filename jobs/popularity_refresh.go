package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-life/aegis-api/internal/jobs"
)

// PopularityRefresher rebuilds the cached popular-policies list from the
// purchase counters in the database.
type PopularityRefresher interface {
	RefreshPopular(ctx context.Context) error
}

// PopularityRefreshJob keeps the landing-page policy list warm so the read
// path never recomputes it on demand.
type PopularityRefreshJob struct {
	Refresher PopularityRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewPopularityRefreshJob initialises the refresh handler.
func NewPopularityRefreshJob(refresher PopularityRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *PopularityRefreshJob {
	return &PopularityRefreshJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle executes the cache rebuild.
func (j *PopularityRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("popularity refresh: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypePopularityRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	if err := j.Refresher.RefreshPopular(ctx); err != nil {
		resultErr = err
		j.Logger.Error("refresh popular policies", slog.Any("error", err))
		return resultErr
	}
	j.Logger.Info("refreshed popular policies", slog.Duration("duration", time.Since(start)))
	return nil
}
