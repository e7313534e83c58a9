package subscribers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a signup. A repeated email maps to shared.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, email, name string) (*Subscriber, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO subscribers (email, name) VALUES ($1, $2)
RETURNING id, email, name, subscribed_at`, email, name)
	var s Subscriber
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.SubscribedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return &s, nil
}

// List returns every signup, newest first.
func (r *Repository) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, subscribed_at FROM subscribers ORDER BY subscribed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &s.SubscribedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
