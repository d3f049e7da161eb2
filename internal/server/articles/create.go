package articles

import (
	"context"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/logging"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
)

// Create runs the full authoring pipeline for a brand-new article: geocoding
// enrichment, upload of every submitted binary, reverse mapping of the
// results, then insertion of the article graph. If a row insert fails after
// the article row was written, the recorded compensations delete the article
// row and the just-uploaded objects so no orphaned partial graph survives.
//
// A crash between a failed insert and the completion of its compensation can
// still leave an article with zero reports; callers treat that as a
// recoverable inconsistency, not a hard invariant violation.
func (s *Service) Create(ctx context.Context, userID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}
	for ri, rep := range sub.Reports {
		if rep.ID != "" {
			return nil, fmt.Errorf("%w: report %d: id not allowed on create", common.ErrValidation, ri+1)
		}
		for ii, img := range rep.Images {
			if img.ID != "" {
				return nil, fmt.Errorf("%w: report %d image %d: id not allowed on create", common.ErrValidation, ri+1, ii+1)
			}
		}
	}

	graph, err := s.create(ctx, userID, sub)
	if err != nil {
		metrics.ArticleWritesTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	metrics.ArticleWritesTotal.WithLabelValues("create", "ok").Inc()
	return graph, nil
}

func (s *Service) create(ctx context.Context, userID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error) {
	log := s.logger.With("user_id", userID, "op", "create")

	s.enricher.EnrichAll(ctx, sub.Reports)

	assignment, err := s.uploadNewBinaries(ctx, userID, sub)
	if err != nil {
		return nil, err
	}

	sg := &saga{}
	if s.sagaObserver != nil {
		defer func() { s.sagaObserver(sg) }()
	}

	if keys := assignment.uploadedKeys(); len(keys) > 0 {
		sg.record("upload objects", func(ctx context.Context) error {
			return s.storage.DeleteObjects(ctx, keys)
		})
	}

	article := &models.Article{
		ID:                 s.newID(),
		UserID:             userID,
		Title:              sub.Title,
		AnimeName:          sub.AnimeName,
		ThumbnailObjectKey: assignment.thumbnailKey,
		Status:             sub.Status,
	}
	if sub.Status == models.StatusPublished {
		now := s.now()
		article.PublishedAt = &now
	}

	articleRepo := s.repos.Articles(s.db)
	if err := articleRepo.Create(ctx, article); err != nil {
		if rbErr := sg.rollback(ctx); rbErr != nil {
			log.Error(ctx, "compensation failed", "error", rbErr.Error())
		}
		return nil, fmt.Errorf("insert article: %w", err)
	}
	sg.record("insert article", func(ctx context.Context) error {
		return articleRepo.Delete(ctx, article.ID)
	})

	reportRepo := s.repos.Reports(s.db)
	imageRepo := s.repos.ReportImages(s.db)

	for ri, repSub := range sub.Reports {
		report := &models.Report{
			ID:              s.newID(),
			ArticleID:       article.ID,
			Title:           repSub.Title,
			Description:     repSub.Description,
			Location:        repSub.Location,
			Latitude:        repSub.Latitude,
			Longitude:       repSub.Longitude,
			GeocodedAddress: repSub.GeocodedAddress,
			DisplayOrder:    ri + 1,
		}
		if err := reportRepo.Create(ctx, report); err != nil {
			return nil, s.failPartialWrite(ctx, log, sg, fmt.Errorf("insert report %d: %w", ri+1, err))
		}
		sg.record(fmt.Sprintf("insert report %d", ri+1), nil) // removed by the article cascade

		for ii, imgSub := range repSub.Images {
			key, ok := assignment.imageKey(ri, ii)
			if !ok {
				return nil, s.failPartialWrite(ctx, log, sg,
					fmt.Errorf("%w: no uploaded key for report %d image %d", common.ErrInternal, ri+1, ii+1))
			}
			image := &models.ReportImage{
				ID:           s.newID(),
				ReportID:     report.ID,
				ObjectKey:    key,
				Caption:      imgSub.Caption,
				DisplayOrder: ii + 1,
			}
			if err := imageRepo.Create(ctx, image); err != nil {
				return nil, s.failPartialWrite(ctx, log, sg, fmt.Errorf("insert report %d image %d: %w", ri+1, ii+1, err))
			}
			sg.record(fmt.Sprintf("insert report %d image %d", ri+1, ii+1), nil)
		}
	}

	graph, err := s.buildGraph(ctx, article)
	if err != nil {
		// the graph is fully written at this point; a failed re-read is not
		// worth compensating away the whole article
		return nil, fmt.Errorf("read back article: %w", err)
	}

	log.Info(ctx, "article created", "article_id", article.ID, "reports", len(sub.Reports))
	return graph, nil
}

// failPartialWrite runs the saga's compensations and wraps err into the
// partial-write taxonomy. A failed compensation is surfaced, not swallowed.
func (s *Service) failPartialWrite(ctx context.Context, log logging.Logger, sg *saga, err error) error {
	if rbErr := sg.rollback(ctx); rbErr != nil {
		log.Error(ctx, "compensation failed", "error", rbErr.Error())
		return fmt.Errorf("%w: %v (compensation failed: %v)", common.ErrPartialWrite, err, rbErr)
	}
	return fmt.Errorf("%w: %v", common.ErrPartialWrite, err)
}
