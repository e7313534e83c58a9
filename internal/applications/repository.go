package applications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/shared"
)

const applicationColumns = `id, applicant_name, applicant_email, applicant_address, nid_number, nominee_name, nominee_relationship,
COALESCE(health_info, ''), policy_id, policy_title, coverage_amount, agent_id, COALESCE(agent_name, 'Unassigned'),
status, claim_status, COALESCE(claim_details, ''), COALESCE(rejection_feedback, ''), paid, submitted_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.ApplicantName, &a.ApplicantEmail, &a.ApplicantAddress, &a.NIDNumber, &a.NomineeName, &a.NomineeRelationship,
		&a.HealthInfo, &a.PolicyID, &a.PolicyTitle, &a.CoverageAmount, &a.AgentID, &a.AgentName,
		&a.Status, &a.ClaimStatus, &a.ClaimDetails, &a.RejectionFeedback, &a.Paid, &a.SubmittedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectApplications(rows pgx.Rows) ([]Application, error) {
	defer rows.Close()
	var out []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.ApplicantName, &a.ApplicantEmail, &a.ApplicantAddress, &a.NIDNumber, &a.NomineeName, &a.NomineeRelationship,
			&a.HealthInfo, &a.PolicyID, &a.PolicyTitle, &a.CoverageAmount, &a.AgentID, &a.AgentName,
			&a.Status, &a.ClaimStatus, &a.ClaimDetails, &a.RejectionFeedback, &a.Paid, &a.SubmittedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a freshly submitted application.
func (r *Repository) Create(ctx context.Context, a Application) (*Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `INSERT INTO applications
(id, applicant_name, applicant_email, applicant_address, nid_number, nominee_name, nominee_relationship, health_info, policy_id, policy_title, coverage_amount, status, claim_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13)
RETURNING `+applicationColumns,
		a.ID, a.ApplicantName, a.ApplicantEmail, a.ApplicantAddress, a.NIDNumber, a.NomineeName, a.NomineeRelationship, a.HealthInfo,
		a.PolicyID, a.PolicyTitle, a.CoverageAmount, StatusPending, ClaimNone))
}

// Get fetches one application.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id=$1`, id))
}

// List returns a page of all applications plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Application, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ListByApplicant returns the applications one customer submitted.
func (r *Repository) ListByApplicant(ctx context.Context, email string) ([]Application, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications WHERE applicant_email=$1 ORDER BY submitted_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// ListByAgentEmail returns the applications assigned to an agent.
func (r *Repository) ListByAgentEmail(ctx context.Context, email string) ([]Application, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications
WHERE agent_id = (SELECT id FROM users WHERE email=$1) ORDER BY submitted_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

// AssignAgent links an application to an agent.
func (r *Repository) AssignAgent(ctx context.Context, id uuid.UUID, agentID int64, agentName string) (*Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `UPDATE applications SET agent_id=$2, agent_name=$3, updated_at=NOW()
WHERE id=$1 RETURNING `+applicationColumns, id, agentID, agentName))
}

// UpdateStatus writes the new review status and reports the status the row
// held before the write, so the caller can detect a real transition. The
// row is locked for the duration of the statement, which makes the
// transition check race-free under concurrent updates.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, feedback string) (Status, int64, error) {
	row := r.pool.QueryRow(ctx, `WITH prev AS (
	SELECT id, status, policy_id FROM applications WHERE id=$1 FOR UPDATE
)
UPDATE applications a
SET status=$2, rejection_feedback=NULLIF($3, ''), updated_at=NOW()
FROM prev
WHERE a.id = prev.id
RETURNING prev.status, prev.policy_id`, id, status, feedback)
	var prev Status
	var policyID int64
	if err := row.Scan(&prev, &policyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, shared.ErrNotFound
		}
		return "", 0, err
	}
	return prev, policyID, nil
}

// UpdateClaim writes a claim's status and details.
func (r *Repository) UpdateClaim(ctx context.Context, id uuid.UUID, status ClaimStatus, details string) (*Application, error) {
	return scanApplication(r.pool.QueryRow(ctx, `UPDATE applications SET claim_status=$2, claim_details=COALESCE(NULLIF($3, ''), claim_details), updated_at=NOW()
WHERE id=$1 RETURNING `+applicationColumns, id, status, details))
}
