package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/shared"
)

const reviewColumns = `id, reviewer_email, reviewer_name, COALESCE(reviewer_photo, ''), rating, feedback, policy_id, policy_title, submitted_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a testimonial.
func (r *Repository) Create(ctx context.Context, rev Review) (*Review, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO reviews
(reviewer_email, reviewer_name, reviewer_photo, rating, feedback, policy_id, policy_title)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7) RETURNING `+reviewColumns,
		rev.ReviewerEmail, rev.ReviewerName, rev.ReviewerPhoto, rev.Rating, rev.Feedback, rev.PolicyID, rev.PolicyTitle)
	var out Review
	if err := row.Scan(&out.ID, &out.ReviewerEmail, &out.ReviewerName, &out.ReviewerPhoto, &out.Rating, &out.Feedback, &out.PolicyID, &out.PolicyTitle, &out.SubmittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// List returns the most recent testimonials.
func (r *Repository) List(ctx context.Context, limit int) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY submitted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ReviewerEmail, &rev.ReviewerName, &rev.ReviewerPhoto, &rev.Rating, &rev.Feedback, &rev.PolicyID, &rev.PolicyTitle, &rev.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
