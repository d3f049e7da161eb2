package bookmarks

import (
	"context"

	"github.com/seichilog/seichilog/internal/server/models"
)

type Repository interface {
	// Create inserts the bookmark. A second bookmark on the same article by
	// the same user yields common.ErrConflict.
	Create(ctx context.Context, b *models.Bookmark) error
	// Delete removes the user's bookmark on the article, common.ErrNotFound
	// when there is none.
	Delete(ctx context.Context, userID, articleID string) error
	Exists(ctx context.Context, userID, articleID string) (bool, error)
	// ListByUser returns one page of the user's bookmarks newest-first,
	// joined with the bookmarked articles, plus the total bookmark count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.BookmarkedArticle, int, error)
}
