package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
)

const userColumns = `id, email, name, role, COALESCE(photo_url, ''), COALESCE(experience, ''), COALESCE(specialties, '{}'), created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PhotoURL, &user.Experience, &user.Specialties, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new account with the default customer role.
func (r *Repository) Create(ctx context.Context, user User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (email, name, role, photo_url, experience, specialties, password_hash)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''))
RETURNING `+userColumns,
		user.Email, user.Name, user.Role, user.PhotoURL, user.Experience, user.Specialties, passwordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// FindByEmail fetches an account by its unique email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

// FindByID fetches an account by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// List returns a page of accounts plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PhotoURL, &user.Experience, &user.Specialties, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateRole changes an account's stored role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role auth.Role) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1 RETURNING `+userColumns, id, role))
}

// ListAgents returns accounts holding the agent role.
func (r *Repository) ListAgents(ctx context.Context, limit int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY name LIMIT $2`, auth.RoleAgent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var agents []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PhotoURL, &user.Experience, &user.Specialties, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agents, nil
}
