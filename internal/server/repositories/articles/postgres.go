// Package articles provides the PostgreSQL-backed repository for article
// rows. Reports and images live in their own packages; graph assembly is the
// service layer's job.
package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/models"
)

// PostgresRepository implements article storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const articleColumns = `id, user_id, title, anime_name, thumbnail_object_key, article_status, published_at, created_at, updated_at`

func scanArticle(row interface{ Scan(dest ...any) error }) (*models.Article, error) {
	var a models.Article
	err := row.Scan(
		&a.ID, &a.UserID, &a.Title, &a.AnimeName, &a.ThumbnailObjectKey,
		&a.Status, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Article) error {
	query := `
		INSERT INTO articles (id, user_id, title, anime_name, thumbnail_object_key, article_status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Title, a.AnimeName, a.ThumbnailObjectKey, a.Status, a.PublishedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Article) error {
	query := `
		UPDATE articles
		SET title = $2, anime_name = $3, thumbnail_object_key = $4,
			article_status = $5, published_at = $6, updated_at = now()
		WHERE id = $1;
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.AnimeName, a.ThumbnailObjectKey, a.Status, a.PublishedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1;`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetOwned(ctx context.Context, id, userID string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 AND user_id = $2;`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE article_status = 'published'
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2;`
	return r.list(ctx, query, limit, offset)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE user_id = $3
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2;`
	return r.list(ctx, query, limit, offset, userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, limit, offset int, extra ...any) ([]*models.Article, error) {
	args := append([]any{limit, offset}, extra...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	defer rows.Close()

	var result []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
