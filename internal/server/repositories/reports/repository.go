package reports

import (
	"context"

	"github.com/seichilog/seichilog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Report) error
	Update(ctx context.Context, r *models.Report) error
	SelectByArticle(ctx context.Context, articleID string) ([]*models.Report, error)
	// SelectPublished returns the reports of every published article,
	// newest article first, for the public map feed.
	SelectPublished(ctx context.Context) ([]*models.Report, error)
	// DeleteAbsent removes the article's reports whose ids are not in keepIDs
	// and returns the deleted ids. An empty keepIDs deletes every report.
	DeleteAbsent(ctx context.Context, articleID string, keepIDs []string) ([]string, error)
}
