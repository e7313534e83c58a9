package applications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/policies"
	"github.com/aegis-life/aegis-api/internal/shared"
)

// RepositoryPort defines data access methods for applications.
type RepositoryPort interface {
	Create(ctx context.Context, a Application) (*Application, error)
	Get(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, limit, offset int) ([]Application, int, error)
	ListByApplicant(ctx context.Context, email string) ([]Application, error)
	ListByAgentEmail(ctx context.Context, email string) ([]Application, error)
	AssignAgent(ctx context.Context, id uuid.UUID, agentID int64, agentName string) (*Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, feedback string) (Status, int64, error)
	UpdateClaim(ctx context.Context, id uuid.UUID, status ClaimStatus, details string) (*Application, error)
}

// PolicyCatalog is the slice of the policies module this service needs.
type PolicyCatalog interface {
	Get(ctx context.Context, id int64) (*policies.Policy, error)
	IncrementPurchases(ctx context.Context, id int64) error
}

// AgentDirectory resolves an agent account for assignment.
type AgentDirectory interface {
	AgentName(ctx context.Context, id int64) (string, error)
}

// Renderer converts HTML into a PDF document.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Auditor records privileged mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles application business logic.
type Service struct {
	repo       RepositoryPort
	catalog    PolicyCatalog
	agents     AgentDirectory
	principals auth.PrincipalSource
	renderer   Renderer
	audit      Auditor
	logger     *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, catalog PolicyCatalog, agents AgentDirectory, principals auth.PrincipalSource, renderer Renderer, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, agents: agents, principals: principals, renderer: renderer, audit: audit, logger: logger}
}

// SubmitRequest carries the applicant-supplied fields.
type SubmitRequest struct {
	ApplicantName       string
	ApplicantAddress    string
	NIDNumber           string
	NomineeName         string
	NomineeRelationship string
	HealthInfo          string
	PolicyID            int64
}

// Submit files a new application for the authenticated customer. The
// applicant identity always comes from the verified token, never from the
// request body.
func (s *Service) Submit(ctx context.Context, applicantEmail string, req SubmitRequest) (*Application, error) {
	policy, err := s.catalog.Get(ctx, req.PolicyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown policy", shared.ErrValidation)
		}
		return nil, err
	}
	return s.repo.Create(ctx, Application{
		ID:                  uuid.New(),
		ApplicantName:       req.ApplicantName,
		ApplicantEmail:      applicantEmail,
		ApplicantAddress:    req.ApplicantAddress,
		NIDNumber:           req.NIDNumber,
		NomineeName:         req.NomineeName,
		NomineeRelationship: req.NomineeRelationship,
		HealthInfo:          req.HealthInfo,
		PolicyID:            policy.ID,
		PolicyTitle:         policy.Title,
		CoverageAmount:      policy.Coverage,
	})
}

// List returns a page of all applications.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Application, shared.Pagination, error) {
	offset := (page - 1) * perPage
	apps, total, err := s.repo.List(ctx, perPage, offset)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return apps, shared.NewPagination(page, perPage, total), nil
}

// ListMine returns the authenticated customer's applications.
func (s *Service) ListMine(ctx context.Context, email string) ([]Application, error) {
	return s.repo.ListByApplicant(ctx, email)
}

// ListAssigned returns the applications assigned to the agent.
func (s *Service) ListAssigned(ctx context.Context, agentEmail string) ([]Application, error) {
	return s.repo.ListByAgentEmail(ctx, agentEmail)
}

// AssignAgent links an application to an agent account.
func (s *Service) AssignAgent(ctx context.Context, actorEmail string, id uuid.UUID, agentID int64) (*Application, error) {
	name, err := s.agents.AgentName(ctx, agentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown agent", shared.ErrValidation)
		}
		return nil, err
	}
	app, err := s.repo.AssignAgent(ctx, id, agentID, name)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorEmail, "application.assign", id, map[string]any{"agentId": agentID})
	return app, nil
}

// UpdateStatus moves an application to Approved or Rejected. A transition
// into Approved increments the referenced policy's purchase counter exactly
// once: re-sending the same Approved update is a no-op for the counter.
// When the counter update fails after the status change committed, the
// returned error wraps shared.ErrPartialSideEffect and the returned
// application still reflects the committed status change; nothing is
// rolled back.
func (s *Service) UpdateStatus(ctx context.Context, actorEmail string, id uuid.UUID, status Status, feedback string) (*Application, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("%w: status must be Approved or Rejected", shared.ErrValidation)
	}
	prev, policyID, err := s.repo.UpdateStatus(ctx, id, status, feedback)
	if err != nil {
		return nil, err
	}

	var sideEffectErr error
	if status == StatusApproved && prev != StatusApproved {
		if err := s.catalog.IncrementPurchases(ctx, policyID); err != nil {
			s.logger.Warn("policy purchase counter not updated after approval",
				slog.String("application", id.String()),
				slog.Int64("policy", policyID),
				slog.Any("error", err))
			sideEffectErr = fmt.Errorf("%w: application approved but policy purchase counter not updated", shared.ErrPartialSideEffect)
		}
	}

	s.recordAudit(ctx, actorEmail, "application.status", id, map[string]any{"status": string(status), "previous": string(prev)})

	app, getErr := s.repo.Get(ctx, id)
	if getErr != nil {
		if sideEffectErr != nil {
			return nil, sideEffectErr
		}
		return nil, getErr
	}
	return app, sideEffectErr
}

// RequestClaim files a claim on the customer's own approved application.
func (s *Service) RequestClaim(ctx context.Context, requesterEmail string, id uuid.UUID, details string) (*Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantEmail != requesterEmail {
		return nil, shared.ErrForbidden
	}
	if app.Status != StatusApproved {
		return nil, fmt.Errorf("%w: claims can only be filed against approved applications", shared.ErrValidation)
	}
	if app.ClaimStatus != ClaimNone {
		return nil, fmt.Errorf("%w: a claim has already been filed", shared.ErrValidation)
	}
	return s.repo.UpdateClaim(ctx, id, ClaimPending, details)
}

// ApproveClaim approves a pending claim.
func (s *Service) ApproveClaim(ctx context.Context, actorEmail string, id uuid.UUID) (*Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ClaimStatus != ClaimPending {
		return nil, fmt.Errorf("%w: no pending claim to approve", shared.ErrValidation)
	}
	updated, err := s.repo.UpdateClaim(ctx, id, ClaimApproved, "")
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorEmail, "claim.approve", id, nil)
	return updated, nil
}

// Document renders the PDF summary of an approved application. Customers
// may only fetch their own; admins may fetch anyone's. The requester role
// is re-read from the store, not taken from token claims.
func (s *Service) Document(ctx context.Context, requesterEmail string, id uuid.UUID) ([]byte, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantEmail != requesterEmail {
		principal, err := s.principals.Resolve(ctx, requesterEmail)
		if err != nil || principal.Role != auth.RoleAdmin {
			return nil, shared.ErrForbidden
		}
	}
	if app.Status != StatusApproved {
		return nil, fmt.Errorf("%w: document is only available for approved applications", shared.ErrValidation)
	}
	html, err := documentHTML(app)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderHTML(ctx, html)
}

func (s *Service) recordAudit(ctx context.Context, actorEmail, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorEmail: actorEmail,
		Action:     action,
		Entity:     "application",
		EntityID:   id.String(),
		Meta:       meta,
	}); err != nil {
		s.logger.Warn("audit application mutation", slog.String("action", action), slog.Any("error", err))
	}
}
