package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-life/aegis-api/internal/shared"
)

// Service wraps token issuance business rules.
type Service struct {
	repo  Repository
	codec *Codec
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *Codec) *Service {
	return &Service{repo: repo, codec: codec}
}

// IssueToken validates credentials and returns a signed bearer token.
// Accounts registered without a password (federated sign-in) cannot obtain
// first-party tokens.
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", shared.ErrInvalidCredentials
	}
	return s.codec.Issue(user.Email)
}

// Resolve returns the principal currently stored for email. This is the
// single point of truth for "what role does this email have right now";
// the gate calls it fresh on every role-checked request.
func (s *Service) Resolve(ctx context.Context, email string) (*Principal, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Principal{Email: user.Email, Role: user.Role}, nil
}
