package blogs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// LatestCount is how many articles the landing page shows.
const LatestCount = 4

// RepositoryPort defines data access methods for blogs.
type RepositoryPort interface {
	Create(ctx context.Context, b Blog) (*Blog, error)
	Get(ctx context.Context, id int64) (*Blog, error)
	GetAndVisit(ctx context.Context, id int64) (*Blog, error)
	List(ctx context.Context, limit, offset int) ([]Blog, int, error)
	Latest(ctx context.Context, limit int) ([]Blog, error)
	Update(ctx context.Context, id int64, title, content, imageURL string) (*Blog, error)
	Delete(ctx context.Context, id int64) error
}

// AuthorDirectory resolves an account's display name for attribution.
type AuthorDirectory interface {
	DisplayName(ctx context.Context, email string) (string, error)
}

// Auditor records privileged mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles article business logic.
type Service struct {
	repo    RepositoryPort
	authors AuthorDirectory
	audit   Auditor
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, authors AuthorDirectory, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, authors: authors, audit: audit, logger: logger}
}

// PublishRequest carries the author-supplied fields.
type PublishRequest struct {
	Title    string
	Content  string
	ImageURL string
}

func validateArticle(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: title and content are required", shared.ErrValidation)
	}
	return nil
}

// Publish creates an article attributed to the acting author. The byline
// comes from the author's stored account, not from the request.
func (s *Service) Publish(ctx context.Context, author *auth.Principal, req PublishRequest) (*Blog, error) {
	if err := validateArticle(req.Title, req.Content); err != nil {
		return nil, err
	}
	name, err := s.authors.DisplayName(ctx, author.Email)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Blog{
		Title:       req.Title,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		AuthorEmail: author.Email,
		AuthorName:  name,
	})
}

// List returns a page of articles.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Blog, shared.Pagination, error) {
	offset := (page - 1) * perPage
	blogs, total, err := s.repo.List(ctx, perPage, offset)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return blogs, shared.NewPagination(page, perPage, total), nil
}

// Latest returns the newest articles for the landing page.
func (s *Service) Latest(ctx context.Context) ([]Blog, error) {
	return s.repo.Latest(ctx, LatestCount)
}

// Read fetches one article and counts the visit.
func (s *Service) Read(ctx context.Context, id int64) (*Blog, error) {
	return s.repo.GetAndVisit(ctx, id)
}

// Edit rewrites an article. Authors may only edit their own posts; admins
// may edit any.
func (s *Service) Edit(ctx context.Context, actor *auth.Principal, id int64, req PublishRequest) (*Blog, error) {
	if err := validateArticle(req.Title, req.Content); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req.Title, req.Content, req.ImageURL)
}

// Remove deletes an article under the same ownership rule as Edit.
func (s *Service) Remove(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.Email, "blog.delete", id)
	return nil
}

func (s *Service) authorize(ctx context.Context, actor *auth.Principal, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != auth.RoleAdmin && existing.AuthorEmail != actor.Email {
		return shared.ErrForbidden
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorEmail, action string, id int64) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorEmail: actorEmail,
		Action:     action,
		Entity:     "blog",
		EntityID:   strconv.FormatInt(id, 10),
	}); err != nil {
		s.logger.Warn("audit blog mutation", slog.String("action", action), slog.Any("error", err))
	}
}
