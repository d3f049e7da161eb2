package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
)

// buildGraph loads the article's reports and images and resolves every key
// to a URL.
func (s *Service) buildGraph(ctx context.Context, article *models.Article) (*models.ArticleGraph, error) {
	reports, err := s.repos.Reports(s.db).SelectByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}

	graph := &models.ArticleGraph{
		Article:      *article,
		ThumbnailURL: s.cdn.URL(article.ThumbnailObjectKey),
		Reports:      make([]*models.ReportGraphWithURLs, 0, len(reports)),
	}

	imageRepo := s.repos.ReportImages(s.db)
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
		graph.Reports = append(graph.Reports, rg)
	}

	return graph, nil
}

// Get returns a published article's full graph. Drafts are invisible here
// regardless of who asks; use GetMine for the owner's view.
func (s *Service) Get(ctx context.Context, articleID string) (*models.ArticleGraph, error) {
	article, err := s.repos.Articles(s.db).GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.Status != models.StatusPublished {
		return nil, fmt.Errorf("%w: article %s", common.ErrNotFound, articleID)
	}
	return s.buildGraph(ctx, article)
}

// GetMine returns the caller's own article regardless of status. A missing
// or foreign id yields common.ErrOwnership; existence is not disclosed.
func (s *Service) GetMine(ctx context.Context, userID, articleID string) (*models.ArticleGraph, error) {
	article, err := s.repos.Articles(s.db).GetOwned(ctx, articleID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: article %s", common.ErrOwnership, articleID)
	}
	if err != nil {
		return nil, err
	}
	return s.buildGraph(ctx, article)
}

// List returns published articles newest-first as list-view summaries.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.ArticleSummary, error) {
	articles, err := s.repos.Articles(s.db).ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.summaries(articles), nil
}

// ListMine returns the caller's own articles, drafts included, newest-first.
func (s *Service) ListMine(ctx context.Context, userID string, limit, offset int) ([]*models.ArticleSummary, error) {
	articles, err := s.repos.Articles(s.db).ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.summaries(articles), nil
}

func (s *Service) summaries(articles []*models.Article) []*models.ArticleSummary {
	out := make([]*models.ArticleSummary, 0, len(articles))
	for _, a := range articles {
		out = append(out, &models.ArticleSummary{
			Article:      *a,
			ThumbnailURL: s.cdn.URL(a.ThumbnailObjectKey),
		})
	}
	return out
}

// Delete removes the caller's article. Rows go first (the graph cascades off
// the article row), then the backing objects, best-effort. The ownership
// check fails closed like GetMine.
func (s *Service) Delete(ctx context.Context, userID, articleID string) error {
	if err := s.delete(ctx, userID, articleID); err != nil {
		metrics.ArticleWritesTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.ArticleWritesTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (s *Service) delete(ctx context.Context, userID, articleID string) error {
	log := s.logger.With("user_id", userID, "article_id", articleID, "op", "delete")

	article, err := s.repos.Articles(s.db).GetOwned(ctx, articleID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: article %s", common.ErrOwnership, articleID)
	}
	if err != nil {
		return err
	}

	// keys must be collected before the delete cascades the image rows away
	keys, err := s.repos.ReportImages(s.db).SelectKeysByArticle(ctx, articleID)
	if err != nil {
		return err
	}
	if article.ThumbnailObjectKey != nil && *article.ThumbnailObjectKey != "" {
		keys = append(keys, *article.ThumbnailObjectKey)
	}

	if err := s.repos.Articles(s.db).Delete(ctx, articleID); err != nil {
		return err
	}

	if err := s.storage.DeleteObjects(ctx, keys); err != nil {
		log.Warn(ctx, "orphaned object cleanup failed", "keys", len(keys), "error", err.Error())
	}

	log.Info(ctx, "article deleted", "objects", len(keys))
	return nil
}
