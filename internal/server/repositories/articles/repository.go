package articles

import (
	"context"

	"github.com/seichilog/seichilog/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Article) error
	// Update rewrites the article's scalar fields. PublishedAt is written
	// as passed; the service decides when the one-time transition happens.
	Update(ctx context.Context, a *models.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	// GetOwned returns the article only when it belongs to userID,
	// common.ErrNotFound otherwise. Ownership checks fail closed on top of it.
	GetOwned(ctx context.Context, id, userID string) (*models.Article, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Article, error)
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*models.Article, error)
}
