package policies

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aegis-life/aegis-api/internal/shared"
)

// PopularLimit is how many policies the popular listing carries.
const PopularLimit = 6

// RepositoryPort defines data access methods for policies.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Policy, int, error)
	Get(ctx context.Context, id int64) (*Policy, error)
	Create(ctx context.Context, p Policy) (*Policy, error)
	Update(ctx context.Context, p Policy) (*Policy, error)
	Delete(ctx context.Context, id int64) error
	TopByPurchases(ctx context.Context, limit int) ([]Policy, error)
	IncrementPurchases(ctx context.Context, id int64) error
}

// Service handles catalog business logic.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns a filtered catalog page.
func (s *Service) List(ctx context.Context, category, search string, page, perPage int) ([]Policy, shared.Pagination, error) {
	filter := ListFilter{
		Category: category,
		Search:   search,
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	}
	policies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return policies, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one policy.
func (s *Service) Get(ctx context.Context, id int64) (*Policy, error) {
	return s.repo.Get(ctx, id)
}

func validatePolicy(p Policy) error {
	if p.Title == "" || p.Category == "" || p.Coverage == "" || p.Term == "" {
		return fmt.Errorf("%w: title, category, coverage and term are required", shared.ErrValidation)
	}
	if p.BasePremium < 0 {
		return fmt.Errorf("%w: base premium cannot be negative", shared.ErrValidation)
	}
	return nil
}

// Create adds a policy to the catalog.
func (s *Service) Create(ctx context.Context, p Policy) (*Policy, error) {
	if err := validatePolicy(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Update rewrites a policy's catalog fields.
func (s *Service) Update(ctx context.Context, p Policy) (*Policy, error) {
	if err := validatePolicy(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a policy from the catalog.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Popular returns the most purchased policies, preferring the listing the
// refresh job left in Redis and falling back to the database.
func (s *Service) Popular(ctx context.Context) ([]Policy, error) {
	cached, err := s.cache.GetPopular(ctx)
	if err != nil {
		s.logger.Warn("popular cache read", slog.Any("error", err))
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return s.repo.TopByPurchases(ctx, PopularLimit)
}

// RefreshPopular recomputes the popular listing and stores it in Redis.
// Called by the background worker on a schedule.
func (s *Service) RefreshPopular(ctx context.Context) error {
	top, err := s.repo.TopByPurchases(ctx, PopularLimit)
	if err != nil {
		return err
	}
	return s.cache.SetPopular(ctx, top)
}

// IncrementPurchases bumps a policy's purchase counter by one. Exposed for
// the application-approval side effect.
func (s *Service) IncrementPurchases(ctx context.Context, id int64) error {
	return s.repo.IncrementPurchases(ctx, id)
}
