package reportimages

import (
	"context"

	"github.com/seichilog/seichilog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, img *models.ReportImage) error
	// Update rewrites caption and display order only. The object key of a
	// persisted image is immutable.
	Update(ctx context.Context, img *models.ReportImage) error
	SelectByReport(ctx context.Context, reportID string) ([]*models.ReportImage, error)
	// SelectKeysByArticle returns the object keys of every image in the
	// article's graph, for object-storage cleanup before the rows cascade.
	SelectKeysByArticle(ctx context.Context, articleID string) ([]string, error)
	// DeleteAbsent removes the report's images whose ids are not in keepIDs
	// and returns the deleted images' object keys.
	DeleteAbsent(ctx context.Context, reportID string, keepIDs []string) ([]string, error)
}
