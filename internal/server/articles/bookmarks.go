package articles

import (
	"context"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
)

// Bookmark saves a published article to the caller's bookmark list.
// Bookmarking twice yields common.ErrConflict; drafts are not bookmarkable
// and read as missing, like Get.
func (s *Service) Bookmark(ctx context.Context, userID, articleID string) error {
	if err := s.bookmark(ctx, userID, articleID); err != nil {
		metrics.BookmarkWritesTotal.WithLabelValues("add", "error").Inc()
		return err
	}
	metrics.BookmarkWritesTotal.WithLabelValues("add", "ok").Inc()
	return nil
}

func (s *Service) bookmark(ctx context.Context, userID, articleID string) error {
	article, err := s.repos.Articles(s.db).GetByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article.Status != models.StatusPublished {
		return fmt.Errorf("%w: article %s", common.ErrNotFound, articleID)
	}

	b := &models.Bookmark{
		ID:        s.newID(),
		UserID:    userID,
		ArticleID: articleID,
		CreatedAt: s.now(),
	}
	if err := s.repos.Bookmarks(s.db).Create(ctx, b); err != nil {
		return err
	}

	s.logger.Info(ctx, "bookmark added", "user_id", userID, "article_id", articleID)
	return nil
}

// Unbookmark removes the caller's bookmark on the article.
// common.ErrNotFound when no such bookmark exists.
func (s *Service) Unbookmark(ctx context.Context, userID, articleID string) error {
	if err := s.repos.Bookmarks(s.db).Delete(ctx, userID, articleID); err != nil {
		metrics.BookmarkWritesTotal.WithLabelValues("remove", "error").Inc()
		return err
	}
	metrics.BookmarkWritesTotal.WithLabelValues("remove", "ok").Inc()
	s.logger.Info(ctx, "bookmark removed", "user_id", userID, "article_id", articleID)
	return nil
}

// IsBookmarked reports whether the caller has bookmarked the article.
func (s *Service) IsBookmarked(ctx context.Context, userID, articleID string) (bool, error) {
	return s.repos.Bookmarks(s.db).Exists(ctx, userID, articleID)
}

// ListBookmarks returns one page of the caller's bookmarked articles,
// newest bookmark first, with thumbnails resolved.
func (s *Service) ListBookmarks(ctx context.Context, userID string, limit, offset int) (*models.BookmarkPage, error) {
	items, total, err := s.repos.Bookmarks(s.db).ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	page := &models.BookmarkPage{
		Items: make([]*models.BookmarkedArticleSummary, 0, len(items)),
		Total: total,
	}
	for _, item := range items {
		page.Items = append(page.Items, &models.BookmarkedArticleSummary{
			BookmarkedArticle: *item,
			ThumbnailURL:      s.cdn.URL(item.ThumbnailObjectKey),
		})
	}
	return page, nil
}

// ListReports returns every report of every published article with images
// and coordinates resolved, for the public map view.
func (s *Service) ListReports(ctx context.Context) ([]*models.ReportGraphWithURLs, error) {
	reports, err := s.repos.Reports(s.db).SelectPublished(ctx)
	if err != nil {
		return nil, err
	}

	imageRepo := s.repos.ReportImages(s.db)
	out := make([]*models.ReportGraphWithURLs, 0, len(reports))
	for _, rep := range reports {
		images, err := imageRepo.SelectByReport(ctx, rep.ID)
		if err != nil {
			return nil, err
		}
		rg := &models.ReportGraphWithURLs{
			Report: *rep,
			Images: make([]*models.ReportImageWithURL, 0, len(images)),
		}
		for _, img := range images {
			key := img.ObjectKey
			rg.Images = append(rg.Images, &models.ReportImageWithURL{
				ReportImage: *img,
				URL:         s.cdn.URL(&key),
			})
		}
		out = append(out, rg)
	}
	return out, nil
}
