// Package bookmarks provides the PostgreSQL-backed repository for bookmark
// rows.
package bookmarks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/models"
)

// uniqueViolation is the PostgreSQL error code for a unique-constraint hit.
const uniqueViolation = "23505"

// PostgresRepository implements bookmark storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Bookmark) error {
	query := `
		INSERT INTO bookmarks (id, user_id, article_id, created_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, b.ArticleID, b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: bookmark", common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, articleID string) error {
	query := `
		DELETE FROM bookmarks WHERE user_id = $1 AND article_id = $2;
	`
	res, err := r.db.ExecContext(ctx, query, userID, articleID)
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

func (r *PostgresRepository) Exists(ctx context.Context, userID, articleID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND article_id = $2);
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, articleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.BookmarkedArticle, int, error) {
	// COUNT(*) OVER () carries the pre-LIMIT total on every row, so one
	// round trip serves both the page and the page controls.
	query := `
		SELECT b.id, b.created_at, COUNT(*) OVER () AS total,
			a.id, a.user_id, a.title, a.anime_name, a.thumbnail_object_key,
			a.article_status, a.published_at, a.created_at, a.updated_at
		FROM bookmarks b
		JOIN articles a ON a.id = b.article_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.BookmarkedArticle
	var total int
	for rows.Next() {
		var item models.BookmarkedArticle
		if err := rows.Scan(
			&item.BookmarkID, &item.BookmarkedAt, &total,
			&item.Article.ID, &item.Article.UserID, &item.Title, &item.AnimeName,
			&item.ThumbnailObjectKey, &item.Status, &item.PublishedAt,
			&item.Article.CreatedAt, &item.Article.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
