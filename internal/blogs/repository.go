package blogs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-life/aegis-api/internal/shared"
)

const blogColumns = `id, title, content, COALESCE(image_url, ''), author_email, author_name, visit_count, published_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanBlog(row pgx.Row) (*Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.ImageURL, &b.AuthorEmail, &b.AuthorName, &b.VisitCount, &b.PublishedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func collectBlogs(rows pgx.Rows) ([]Blog, error) {
	defer rows.Close()
	var out []Blog
	for rows.Next() {
		var b Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.ImageURL, &b.AuthorEmail, &b.AuthorName, &b.VisitCount, &b.PublishedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a new article.
func (r *Repository) Create(ctx context.Context, b Blog) (*Blog, error) {
	return scanBlog(r.pool.QueryRow(ctx, `INSERT INTO blogs (title, content, image_url, author_email, author_name)
VALUES ($1, $2, NULLIF($3, ''), $4, $5) RETURNING `+blogColumns,
		b.Title, b.Content, b.ImageURL, b.AuthorEmail, b.AuthorName))
}

// Get fetches one article without touching its counter.
func (r *Repository) Get(ctx context.Context, id int64) (*Blog, error) {
	return scanBlog(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id=$1`, id))
}

// GetAndVisit fetches one article and increments its visit counter in the
// same statement, so concurrent reads never lose counts.
func (r *Repository) GetAndVisit(ctx context.Context, id int64) (*Blog, error) {
	return scanBlog(r.pool.QueryRow(ctx, `UPDATE blogs SET visit_count = visit_count + 1 WHERE id=$1 RETURNING `+blogColumns, id))
}

// List returns a page of articles, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Blog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+blogColumns+` FROM blogs ORDER BY published_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectBlogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Latest returns the most recently published articles.
func (r *Repository) Latest(ctx context.Context, limit int) ([]Blog, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+blogColumns+` FROM blogs ORDER BY published_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// Update rewrites an article's content fields.
func (r *Repository) Update(ctx context.Context, id int64, title, content, imageURL string) (*Blog, error) {
	return scanBlog(r.pool.QueryRow(ctx, `UPDATE blogs SET title=$2, content=$3, image_url=NULLIF($4, ''), updated_at=NOW()
WHERE id=$1 RETURNING `+blogColumns, id, title, content, imageURL))
}

// Delete removes an article.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
