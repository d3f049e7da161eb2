package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
)

// Update reconciles an existing article against the caller's full desired
// end-state. Reports and images carrying an id are updated in place, entries
// without one are inserted (new binaries go through the same upload pipeline
// as Create, restricted to the new images), and persisted entries absent from
// the submission are deleted together with their backing objects.
//
// Row mutations run in one transaction; the object-storage deletion batch is
// issued only after the rows are gone. An interrupted run can therefore leak
// unreferenced objects, but a row never outlives its object.
//
// There is no optimistic-concurrency token: two concurrent edits by the same
// owner race and the last write wins.
func (s *Service) Update(ctx context.Context, userID, articleID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error) {
	graph, err := s.update(ctx, userID, articleID, sub)
	if err != nil {
		metrics.ArticleWritesTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	metrics.ArticleWritesTotal.WithLabelValues("update", "ok").Inc()
	return graph, nil
}

// existingGraph is the persisted state the reconciler diffs against.
type existingGraph struct {
	article *models.Article
	reports []*models.Report
	// images[reportID], in display order
	images map[string][]*models.ReportImage
}

func (s *Service) update(ctx context.Context, userID, articleID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	log := s.logger.With("user_id", userID, "article_id", articleID, "op", "update")

	// Ownership check runs before any side effect and fails closed.
	current, err := s.fetchOwnedGraph(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	if err := validateSubmittedIDs(current, sub); err != nil {
		return nil, err
	}

	s.enricher.EnrichAll(ctx, sub.Reports)

	assignment, err := s.uploadNewBinaries(ctx, userID, sub)
	if err != nil {
		return nil, err
	}

	keysToDelete := staleObjectKeys(current, sub, assignment)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.reconcileRows(ctx, tx, current, sub, assignment)
	})
	if err != nil {
		// the transaction rolled back; the only side effects left over are
		// the objects uploaded above, which are now unreferenced
		if delErr := s.storage.DeleteObjects(ctx, assignment.uploadedKeys()); delErr != nil {
			log.Warn(ctx, "could not delete uploaded objects after rollback", "error", delErr.Error())
		}
		return nil, fmt.Errorf("reconcile article: %w", err)
	}

	// Rows are gone; now the objects. Best-effort by design: a failure here
	// leaks unreferenced objects but breaks nothing.
	if err := s.storage.DeleteObjects(ctx, keysToDelete); err != nil {
		log.Warn(ctx, "orphaned object cleanup failed", "keys", len(keysToDelete), "error", err.Error())
	}

	updated, err := s.repos.Articles(s.db).GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("read back article: %w", err)
	}
	result, err := s.buildGraph(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("read back article: %w", err)
	}

	log.Info(ctx, "article updated", "reports", len(sub.Reports), "deleted_objects", len(keysToDelete))
	return result, nil
}

// fetchOwnedGraph loads the article's persisted tree scoped to the owner.
// A missing or foreign article yields common.ErrOwnership with no side
// effects.
func (s *Service) fetchOwnedGraph(ctx context.Context, userID, articleID string) (*existingGraph, error) {
	article, err := s.repos.Articles(s.db).GetOwned(ctx, articleID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: article %s", common.ErrOwnership, articleID)
	}
	if err != nil {
		return nil, err
	}

	reports, err := s.repos.Reports(s.db).SelectByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	images := make(map[string][]*models.ReportImage, len(reports))
	imageRepo := s.repos.ReportImages(s.db)
	for _, rep := range reports {
		imgs, err := imageRepo.SelectByReport(ctx, rep.ID)
		if err != nil {
			return nil, err
		}
		images[rep.ID] = imgs
	}

	return &existingGraph{article: article, reports: reports, images: images}, nil
}

// validateSubmittedIDs checks every submitted report and image id against
// the article's own persisted graph. Row mutations run WHERE id = $1, so an
// id belonging to another article (or another report within this one) would
// otherwise reach a foreign row; such submissions fail closed before any
// side effect, and existence of the foreign row is not disclosed.
func validateSubmittedIDs(current *existingGraph, sub *models.ArticleSubmission) error {
	owned := make(map[string]map[string]struct{}, len(current.reports))
	for _, rep := range current.reports {
		imgs := make(map[string]struct{}, len(current.images[rep.ID]))
		for _, img := range current.images[rep.ID] {
			imgs[img.ID] = struct{}{}
		}
		owned[rep.ID] = imgs
	}

	for ri, rep := range sub.Reports {
		if rep.ID == "" {
			// a brand-new report cannot adopt persisted images
			for ii, img := range rep.Images {
				if img.ID != "" {
					return fmt.Errorf("%w: report %d image %d: unknown image id", common.ErrOwnership, ri+1, ii+1)
				}
			}
			continue
		}

		imgs, ok := owned[rep.ID]
		if !ok {
			return fmt.Errorf("%w: report %d: unknown report id", common.ErrOwnership, ri+1)
		}
		for ii, img := range rep.Images {
			if img.ID == "" {
				continue
			}
			if _, ok := imgs[img.ID]; !ok {
				return fmt.Errorf("%w: report %d image %d: unknown image id", common.ErrOwnership, ri+1, ii+1)
			}
		}
	}

	return nil
}

// staleObjectKeys computes the object-storage deletion set: the replaced
// thumbnail, every image of a dropped report, and dropped images of
// surviving reports.
func staleObjectKeys(current *existingGraph, sub *models.ArticleSubmission, assignment *uploadAssignment) []string {
	var keys []string

	if current.article.ThumbnailObjectKey != nil && assignment.thumbnailKey != nil {
		keys = append(keys, *current.article.ThumbnailObjectKey)
	}

	submittedReports := make(map[string]*models.ReportSubmission)
	for _, rep := range sub.Reports {
		if rep.ID != "" {
			submittedReports[rep.ID] = rep
		}
	}

	for _, existing := range current.reports {
		repSub, kept := submittedReports[existing.ID]
		if !kept {
			for _, img := range current.images[existing.ID] {
				keys = append(keys, img.ObjectKey)
			}
			continue
		}

		submittedImages := make(map[string]struct{})
		for _, img := range repSub.Images {
			if img.ID != "" {
				submittedImages[img.ID] = struct{}{}
			}
		}
		for _, img := range current.images[existing.ID] {
			if _, ok := submittedImages[img.ID]; !ok {
				keys = append(keys, img.ObjectKey)
			}
		}
	}

	return keys
}

// reconcileRows applies the row-level diff inside one transaction: article
// scalars, report deletes/upserts, image deletes/upserts.
func (s *Service) reconcileRows(ctx context.Context, tx dbx.DBTX, current *existingGraph, sub *models.ArticleSubmission, assignment *uploadAssignment) error {
	articleRepo := s.repos.Articles(tx)
	reportRepo := s.repos.Reports(tx)
	imageRepo := s.repos.ReportImages(tx)

	article := current.article

	updated := &models.Article{
		ID:                 article.ID,
		UserID:             article.UserID,
		Title:              sub.Title,
		AnimeName:          sub.AnimeName,
		ThumbnailObjectKey: resolveThumbnailKey(article, sub, assignment),
		Status:             sub.Status,
		PublishedAt:        article.PublishedAt,
	}
	// publishedAt is set exactly once, on the first transition to published
	if sub.Status == models.StatusPublished && article.PublishedAt == nil {
		now := s.now()
		updated.PublishedAt = &now
	}
	if err := articleRepo.Update(ctx, updated); err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	var keepReportIDs []string
	for _, rep := range sub.Reports {
		if rep.ID != "" {
			keepReportIDs = append(keepReportIDs, rep.ID)
		}
	}
	if _, err := reportRepo.DeleteAbsent(ctx, article.ID, keepReportIDs); err != nil {
		return fmt.Errorf("delete absent reports: %w", err)
	}

	for ri, repSub := range sub.Reports {
		reportID := repSub.ID

		report := &models.Report{
			ID:              reportID,
			ArticleID:       article.ID,
			Title:           repSub.Title,
			Description:     repSub.Description,
			Location:        repSub.Location,
			Latitude:        repSub.Latitude,
			Longitude:       repSub.Longitude,
			GeocodedAddress: repSub.GeocodedAddress,
			DisplayOrder:    ri + 1,
		}

		if reportID != "" {
			if err := reportRepo.Update(ctx, report); err != nil {
				return fmt.Errorf("update report %d: %w", ri+1, err)
			}
		} else {
			reportID = s.newID()
			report.ID = reportID
			if err := reportRepo.Create(ctx, report); err != nil {
				return fmt.Errorf("insert report %d: %w", ri+1, err)
			}
		}

		var keepImageIDs []string
		for _, img := range repSub.Images {
			if img.ID != "" {
				keepImageIDs = append(keepImageIDs, img.ID)
			}
		}
		if _, err := imageRepo.DeleteAbsent(ctx, reportID, keepImageIDs); err != nil {
			return fmt.Errorf("delete absent images of report %d: %w", ri+1, err)
		}

		for ii, imgSub := range repSub.Images {
			if imgSub.ID != "" {
				// persisted image: caption and order only, the key is immutable
				img := &models.ReportImage{
					ID:           imgSub.ID,
					ReportID:     reportID,
					Caption:      imgSub.Caption,
					DisplayOrder: ii + 1,
				}
				if err := imageRepo.Update(ctx, img); err != nil {
					return fmt.Errorf("update report %d image %d: %w", ri+1, ii+1, err)
				}
				continue
			}

			key, ok := assignment.imageKey(ri, ii)
			if !ok {
				return fmt.Errorf("%w: no uploaded key for report %d image %d", common.ErrInternal, ri+1, ii+1)
			}
			img := &models.ReportImage{
				ID:           s.newID(),
				ReportID:     reportID,
				ObjectKey:    key,
				Caption:      imgSub.Caption,
				DisplayOrder: ii + 1,
			}
			if err := imageRepo.Create(ctx, img); err != nil {
				return fmt.Errorf("insert report %d image %d: %w", ri+1, ii+1, err)
			}
		}
	}

	return nil
}

// resolveThumbnailKey decides the article's thumbnail key after the update:
// a freshly-uploaded key wins, an explicit keep retains the stored key, and
// anything else clears it.
func resolveThumbnailKey(article *models.Article, sub *models.ArticleSubmission, assignment *uploadAssignment) *string {
	if assignment.thumbnailKey != nil {
		return assignment.thumbnailKey
	}
	if sub.Thumbnail != nil && sub.Thumbnail.Keep {
		return article.ThumbnailObjectKey
	}
	return nil
}
