// Package reports provides the PostgreSQL-backed repository for report rows.
package reports

import (
	"context"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/models"
)

// PostgresRepository implements report storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rep *models.Report) error {
	query := `
		INSERT INTO reports (id, article_id, title, description, location, latitude, longitude, geocoded_address, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.ArticleID, rep.Title, rep.Description, rep.Location,
		rep.Latitude, rep.Longitude, rep.GeocodedAddress, rep.DisplayOrder)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, rep *models.Report) error {
	query := `
		UPDATE reports
		SET title = $2, description = $3, location = $4, latitude = $5,
			longitude = $6, geocoded_address = $7, display_order = $8
		WHERE id = $1;
	`
	res, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.Title, rep.Description, rep.Location,
		rep.Latitude, rep.Longitude, rep.GeocodedAddress, rep.DisplayOrder)
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

func (r *PostgresRepository) SelectByArticle(ctx context.Context, articleID string) ([]*models.Report, error) {
	query := `
		SELECT id, article_id, title, description, location, latitude, longitude, geocoded_address, display_order
		FROM reports WHERE article_id = $1
		ORDER BY display_order;
	`
	rows, err := r.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		var item models.Report
		if err := rows.Scan(
			&item.ID, &item.ArticleID, &item.Title, &item.Description, &item.Location,
			&item.Latitude, &item.Longitude, &item.GeocodedAddress, &item.DisplayOrder,
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

func (r *PostgresRepository) SelectPublished(ctx context.Context) ([]*models.Report, error) {
	query := `
		SELECT r.id, r.article_id, r.title, r.description, r.location, r.latitude, r.longitude, r.geocoded_address, r.display_order
		FROM reports r
		JOIN articles a ON a.id = r.article_id
		WHERE a.article_status = 'published'
		ORDER BY a.published_at DESC, r.display_order;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		var item models.Report
		if err := rows.Scan(
			&item.ID, &item.ArticleID, &item.Title, &item.Description, &item.Location,
			&item.Latitude, &item.Longitude, &item.GeocodedAddress, &item.DisplayOrder,
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

func (r *PostgresRepository) DeleteAbsent(ctx context.Context, articleID string, keepIDs []string) ([]string, error) {
	// id <> ALL(array) with an empty array matches every row, which is
	// exactly the "nothing survives" case. The cast keeps uuid ids
	// comparable against the text[] parameter. keepIDs must never be nil:
	// pgx encodes a nil slice as SQL NULL and <> ALL(NULL) matches nothing.
	if keepIDs == nil {
		keepIDs = []string{}
	}
	query := `
		DELETE FROM reports
		WHERE article_id = $1 AND id::text <> ALL($2)
		RETURNING id;
	`
	rows, err := r.db.QueryContext(ctx, query, articleID, keepIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var deleted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deleted, nil
}
