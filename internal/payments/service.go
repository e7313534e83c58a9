package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aegis-life/aegis-api/internal/applications"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// DefaultCurrency is used when the caller does not name one.
const DefaultCurrency = "usd"

// RepositoryPort defines data access methods for payments.
type RepositoryPort interface {
	Record(ctx context.Context, p Payment) (*Payment, error)
	List(ctx context.Context) ([]Payment, error)
	ListByEmail(ctx context.Context, email string) ([]Payment, error)
}

// IntentSource opens payment intents with the processor.
type IntentSource interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
}

// ApplicationFinder is the slice of the applications module this service needs.
type ApplicationFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*applications.Application, error)
}

// IdempotencyGuard rejects replayed payment submissions.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service handles payment business logic.
type Service struct {
	repo    RepositoryPort
	intents IntentSource
	apps    ApplicationFinder
	idemp   IdempotencyGuard
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, intents IntentSource, apps ApplicationFinder, idemp IdempotencyGuard, logger *slog.Logger) *Service {
	return &Service{repo: repo, intents: intents, apps: apps, idemp: idemp, logger: logger}
}

// OpenIntent creates a processor intent for the given amount in cents.
func (s *Service) OpenIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return s.intents.CreateIntent(ctx, amount, currency)
}

// RecordRequest carries the fields of a completed payment.
type RecordRequest struct {
	TransactionID  string
	Amount         int64
	Currency       string
	ApplicationID  uuid.UUID
	IdempotencyKey string
}

// Record stores a completed payment and marks the application paid. The
// payer identity comes from the verified token; customers can only pay for
// their own approved applications. An Idempotency-Key header, when present,
// guards against double submission of the same transaction.
func (s *Service) Record(ctx context.Context, payerEmail string, req RecordRequest) (*Payment, error) {
	if req.TransactionID == "" {
		return nil, fmt.Errorf("%w: transactionId is required", shared.ErrValidation)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}

	app, err := s.apps.Get(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown application", shared.ErrValidation)
		}
		return nil, err
	}
	if app.ApplicantEmail != payerEmail {
		return nil, shared.ErrForbidden
	}
	if app.Status != applications.StatusApproved {
		return nil, fmt.Errorf("%w: only approved applications can be paid", shared.ErrValidation)
	}

	if req.IdempotencyKey != "" {
		if err := s.idemp.CheckAndInsert(ctx, req.IdempotencyKey, "payments"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: payment already recorded", shared.ErrDuplicate)
			}
			return nil, err
		}
	}

	payment, err := s.repo.Record(ctx, Payment{
		ID:            uuid.New(),
		TransactionID: req.TransactionID,
		PayerEmail:    payerEmail,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ApplicationID: app.ID,
		PolicyTitle:   app.PolicyTitle,
	})
	if err != nil {
		if req.IdempotencyKey != "" {
			// Free the key so a retry of the failed submission can succeed.
			if delErr := s.idemp.Delete(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return nil, err
	}
	return payment, nil
}

// List returns every payment for the admin transactions view.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}

// ListByEmail returns one customer's payment history.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	return s.repo.ListByEmail(ctx, email)
}
