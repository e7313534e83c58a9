package policies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/shared"
)

const policyColumns = `id, title, category, details, COALESCE(image_url, ''), coverage, term, base_premium, purchase_count, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPolicy(row pgx.Row) (*Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.Title, &p.Category, &p.Details, &p.ImageURL, &p.Coverage, &p.Term, &p.BasePremium, &p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectPolicies(rows pgx.Rows) ([]Policy, error) {
	defer rows.Close()
	var out []Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Details, &p.ImageURL, &p.Coverage, &p.Term, &p.BasePremium, &p.PurchaseCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns a filtered page of the catalog plus the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Policy, int, error) {
	where := ` WHERE ($1 = '' OR category = $1) AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR details ILIKE '%' || $2 || '%')`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM policies`+where, filter.Category, filter.Search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies`+where+` ORDER BY id LIMIT $3 OFFSET $4`,
		filter.Category, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	policies, err := collectPolicies(rows)
	if err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

// Get fetches one policy.
func (r *Repository) Get(ctx context.Context, id int64) (*Policy, error) {
	return scanPolicy(r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies WHERE id=$1`, id))
}

// Create inserts a policy.
func (r *Repository) Create(ctx context.Context, p Policy) (*Policy, error) {
	return scanPolicy(r.pool.QueryRow(ctx, `INSERT INTO policies (title, category, details, image_url, coverage, term, base_premium)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7) RETURNING `+policyColumns,
		p.Title, p.Category, p.Details, p.ImageURL, p.Coverage, p.Term, p.BasePremium))
}

// Update rewrites a policy's catalog fields. The purchase counter is only
// ever touched through IncrementPurchases.
func (r *Repository) Update(ctx context.Context, p Policy) (*Policy, error) {
	return scanPolicy(r.pool.QueryRow(ctx, `UPDATE policies SET title=$2, category=$3, details=$4, image_url=NULLIF($5, ''), coverage=$6, term=$7, base_premium=$8, updated_at=NOW()
WHERE id=$1 RETURNING `+policyColumns,
		p.ID, p.Title, p.Category, p.Details, p.ImageURL, p.Coverage, p.Term, p.BasePremium))
}

// Delete removes a policy.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM policies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TopByPurchases returns the most purchased policies.
func (r *Repository) TopByPurchases(ctx context.Context, limit int) ([]Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY purchase_count DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectPolicies(rows)
}

// IncrementPurchases bumps a policy's purchase counter by one.
func (r *Repository) IncrementPurchases(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE policies SET purchase_count = purchase_count + 1, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
