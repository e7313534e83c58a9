package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-life/aegis-api/internal/jobs"
)

// Mailer delivers transactional mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WelcomeMailJob greets new newsletter subscribers.
type WelcomeMailJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewWelcomeMailJob initialises the welcome mail handler.
func NewWelcomeMailJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *WelcomeMailJob {
	return &WelcomeMailJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle executes the welcome mail delivery.
func (j *WelcomeMailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("welcome mail: handler not configured")
	}
	var payload WelcomeMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeWelcomeMail)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	body := "Welcome to the Aegis Life newsletter. You will hear from us once a month."
	if err := j.Mailer.Send(ctx, payload.To, "Welcome to Aegis Life", body); err != nil {
		resultErr = err
		j.Logger.Error("send welcome mail", slog.String("to", payload.To), slog.Any("error", err))
		return resultErr
	}
	j.Logger.Info("welcome mail sent", slog.String("to", payload.To))
	return nil
}

// LogMailer writes mail to the log instead of delivering it, for
// environments without an SMTP relay.
type LogMailer struct {
	Logger *slog.Logger
}

// Send records the message in the log.
func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Logger.Info("mail delivery skipped, no relay configured",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
