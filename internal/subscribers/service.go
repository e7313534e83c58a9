package subscribers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/aegis-life/aegis-api/internal/shared"
	"github.com/aegis-life/aegis-api/jobs"
)

// RepositoryPort defines data access methods for subscribers.
type RepositoryPort interface {
	Create(ctx context.Context, email, name string) (*Subscriber, error)
	List(ctx context.Context) ([]Subscriber, error)
}

// Greeter enqueues the welcome mail for a fresh signup.
type Greeter interface {
	EnqueueWelcomeMail(ctx context.Context, payload jobs.WelcomeMailPayload) (*asynq.TaskInfo, error)
}

// Service handles newsletter business logic.
type Service struct {
	repo    RepositoryPort
	greeter Greeter
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, greeter Greeter, logger *slog.Logger) *Service {
	return &Service{repo: repo, greeter: greeter, logger: logger}
}

// Subscribe records a signup and queues the welcome mail. A failure to
// enqueue is logged but does not fail the signup; the subscriber row is the
// source of truth.
func (s *Service) Subscribe(ctx context.Context, email, name string) (*Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	sub, err := s.repo.Create(ctx, email, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return nil, fmt.Errorf("%w: this email is already subscribed", shared.ErrDuplicate)
		}
		return nil, err
	}
	if s.greeter != nil {
		if _, err := s.greeter.EnqueueWelcomeMail(ctx, jobs.WelcomeMailPayload{To: sub.Email, Name: sub.Name}); err != nil {
			s.logger.Warn("enqueue welcome mail", slog.String("email", sub.Email), slog.Any("error", err))
		}
	}
	return sub, nil
}

// List returns every signup for the admin view.
func (s *Service) List(ctx context.Context) ([]Subscriber, error) {
	return s.repo.List(ctx)
}
