package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/platform/db"
	"github.com/aegis-life/aegis-api/internal/shared"
)

const paymentColumns = `id, transaction_id, payer_email, amount, currency, application_id, policy_title, paid_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.PayerEmail, &p.Amount, &p.Currency, &p.ApplicationID, &p.PolicyTitle, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Record inserts the payment and marks the application paid in one
// transaction, so a payment row never exists for an unpaid application or
// vice versa.
func (r *Repository) Record(ctx context.Context, p Payment) (*Payment, error) {
	var out Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO payments
(id, transaction_id, payer_email, amount, currency, application_id, policy_title)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+paymentColumns,
			p.ID, p.TransactionID, p.PayerEmail, p.Amount, p.Currency, p.ApplicationID, p.PolicyTitle)
		if err := row.Scan(&out.ID, &out.TransactionID, &out.PayerEmail, &out.Amount, &out.Currency, &out.ApplicationID, &out.PolicyTitle, &out.PaidAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.ErrDuplicate
			}
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE applications SET paid=true, updated_at=NOW() WHERE id=$1`, p.ApplicationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every payment, newest first.
func (r *Repository) List(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// ListByEmail returns one customer's payments, newest first.
func (r *Repository) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payer_email=$1 ORDER BY paid_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}
