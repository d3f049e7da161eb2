// Package reportimages provides the PostgreSQL-backed repository for report
// image rows.
package reportimages

import (
	"context"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/models"
)

// PostgresRepository implements image storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, img *models.ReportImage) error {
	query := `
		INSERT INTO report_images (id, report_id, object_key, caption, display_order)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.ExecContext(ctx, query,
		img.ID, img.ReportID, img.ObjectKey, img.Caption, img.DisplayOrder)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, img *models.ReportImage) error {
	query := `
		UPDATE report_images
		SET caption = $2, display_order = $3
		WHERE id = $1;
	`
	res, err := r.db.ExecContext(ctx, query, img.ID, img.Caption, img.DisplayOrder)
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

func (r *PostgresRepository) SelectByReport(ctx context.Context, reportID string) ([]*models.ReportImage, error) {
	query := `
		SELECT id, report_id, object_key, caption, display_order
		FROM report_images WHERE report_id = $1
		ORDER BY display_order;
	`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to select report images: %w", err)
	}
	defer rows.Close()

	var result []*models.ReportImage
	for rows.Next() {
		var item models.ReportImage
		if err := rows.Scan(
			&item.ID, &item.ReportID, &item.ObjectKey, &item.Caption, &item.DisplayOrder,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SelectKeysByArticle(ctx context.Context, articleID string) ([]string, error) {
	query := `
		SELECT ri.object_key
		FROM report_images ri
		JOIN reports rep ON rep.id = ri.report_id
		WHERE rep.article_id = $1;
	`
	rows, err := r.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to select object keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *PostgresRepository) DeleteAbsent(ctx context.Context, reportID string, keepIDs []string) ([]string, error) {
	// The cast keeps uuid ids comparable against the text[] parameter; an
	// empty keepIDs deletes every image of the report. keepIDs must never
	// be nil: pgx encodes a nil slice as SQL NULL and <> ALL(NULL) matches
	// nothing.
	if keepIDs == nil {
		keepIDs = []string{}
	}
	query := `
		DELETE FROM report_images
		WHERE report_id = $1 AND id::text <> ALL($2)
		RETURNING object_key;
	`
	rows, err := r.db.QueryContext(ctx, query, reportID, keepIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
