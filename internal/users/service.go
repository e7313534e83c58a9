package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, user User, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	UpdateRole(ctx context.Context, id int64, role auth.Role) (*User, error)
	ListAgents(ctx context.Context, limit int) ([]User, error)
}

// Auditor records privileged mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account business logic.
type Service struct {
	repo   RepositoryPort
	audit  Auditor
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// RegisterRequest carries the fields accepted at sign-up.
type RegisterRequest struct {
	Email    string
	Name     string
	PhotoURL string
	Password string
}

// Register creates an account with the default customer role. Registration
// is idempotent on email: re-registering returns the existing account
// untouched, so a sign-in from a returning federated user never resets
// server-side state such as the role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	passwordHash := ""
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, fmt.Errorf("users: hash password: %w", err)
		}
		passwordHash = string(hashed)
	}

	created, err := s.repo.Create(ctx, User{
		Email:    req.Email,
		Name:     req.Name,
		Role:     auth.RoleCustomer,
		PhotoURL: req.PhotoURL,
	}, passwordHash)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			// Lost a race with a concurrent registration for the same email.
			existing, findErr := s.repo.FindByEmail(ctx, req.Email)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return created, true, nil
}

// Profile returns the account for the authenticated email.
func (s *Service) Profile(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	offset := (page - 1) * perPage
	users, total, err := s.repo.List(ctx, perPage, offset)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// UpdateRole changes an account's role and records the change in the audit
// trail. It takes effect on the affected user's next gated request.
func (s *Service) UpdateRole(ctx context.Context, actorEmail string, id int64, role auth.Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, role)
	}
	updated, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorEmail: actorEmail,
			Action:     "role.update",
			Entity:     "user",
			EntityID:   strconv.FormatInt(id, 10),
			Meta:       map[string]any{"role": string(role)},
		}); err != nil {
			s.logger.Warn("audit role update", slog.Any("error", err))
		}
	}
	return updated, nil
}

// Agents returns the public agent directory.
func (s *Service) Agents(ctx context.Context) ([]User, error) {
	return s.repo.ListAgents(ctx, 50)
}

// DisplayName resolves an account's name for bylines and attribution.
func (s *Service) DisplayName(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// DisplayProfile resolves an account's name and photo for attribution.
func (s *Service) DisplayProfile(ctx context.Context, email string) (string, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}
	return user.Name, user.PhotoURL, nil
}

// AgentName resolves the display name of an agent account. Accounts that
// exist but do not hold the agent role are reported as not found, so callers
// cannot assign work to customers or admins.
func (s *Service) AgentName(ctx context.Context, id int64) (string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user.Role != auth.RoleAgent {
		return "", shared.ErrNotFound
	}
	return user.Name, nil
}
