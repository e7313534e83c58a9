package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// ListLimit caps how many testimonials the landing page pulls.
const ListLimit = 20

// RepositoryPort defines data access methods for reviews.
type RepositoryPort interface {
	Create(ctx context.Context, rev Review) (*Review, error)
	List(ctx context.Context, limit int) ([]Review, error)
}

// PolicyCatalog looks up the reviewed policy for its title snapshot.
type PolicyCatalog interface {
	Get(ctx context.Context, id int64) (*policies.Policy, error)
}

// ReviewerDirectory resolves the reviewer's stored profile.
type ReviewerDirectory interface {
	DisplayProfile(ctx context.Context, email string) (name, photoURL string, err error)
}

// Service handles testimonial business logic.
type Service struct {
	repo      RepositoryPort
	catalog   PolicyCatalog
	reviewers ReviewerDirectory
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, catalog PolicyCatalog, reviewers ReviewerDirectory) *Service {
	return &Service{repo: repo, catalog: catalog, reviewers: reviewers}
}

// SubmitRequest carries the reviewer-supplied fields.
type SubmitRequest struct {
	Rating   int
	Feedback string
	PolicyID int64
}

// Submit records a testimonial attributed to the authenticated customer.
func (s *Service) Submit(ctx context.Context, reviewerEmail string, req SubmitRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", shared.ErrValidation)
	}
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, fmt.Errorf("%w: feedback is required", shared.ErrValidation)
	}
	policy, err := s.catalog.Get(ctx, req.PolicyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown policy", shared.ErrValidation)
		}
		return nil, err
	}
	name, photo, err := s.reviewers.DisplayProfile(ctx, reviewerEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Review{
		ReviewerEmail: reviewerEmail,
		ReviewerName:  name,
		ReviewerPhoto: photo,
		Rating:        req.Rating,
		Feedback:      req.Feedback,
		PolicyID:      policy.ID,
		PolicyTitle:   policy.Title,
	})
}

// List returns recent testimonials for public display.
func (s *Service) List(ctx context.Context) ([]Review, error) {
	return s.repo.List(ctx, ListLimit)
}
