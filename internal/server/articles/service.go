// Package articles implements the article authoring pipeline: geocoding
// enrichment, upload-slot allocation, parallel uploads, reverse mapping of
// upload results onto the submission tree, and the datastore orchestration
// for creating and reconciling article graphs.
package articles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/logging"
	"github.com/seichilog/seichilog/internal/server/metrics"
	"github.com/seichilog/seichilog/internal/server/models"
	"github.com/seichilog/seichilog/internal/server/repositories/repomanager"
)

const maxTitleLength = 200

// Storage is the object-store surface the pipeline needs.
type Storage interface {
	AllocateSlots(ctx context.Context, ownerID string, candidates []*models.UploadCandidate) ([]*models.UploadSlot, error)
	UploadAll(ctx context.Context, candidates []*models.UploadCandidate, slots []*models.UploadSlot) ([]*models.UploadResult, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// Enricher attaches coordinates to report submissions, best-effort.
type Enricher interface {
	EnrichAll(ctx context.Context, reports []*models.ReportSubmission)
}

// URLResolver maps object keys to fetchable URLs.
type URLResolver interface {
	URL(key *string) string
}

// Service orchestrates the authoring pipeline. All collaborators are passed
// in explicitly; the service holds no lazily-initialized globals.
type Service struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	storage  Storage
	enricher Enricher
	cdn      URLResolver
	logger   logging.Logger

	// seams for tests
	now   func() time.Time
	newID func() string

	// observability hook: receives the create saga after each run
	sagaObserver func(*saga)
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, storage Storage, enricher Enricher, cdn URLResolver, logger logging.Logger) *Service {
	return &Service{
		db:       db,
		repos:    repos,
		storage:  storage,
		enricher: enricher,
		cdn:      cdn,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// validateSubmission applies the request-shape rules shared by create and
// update.
func validateSubmission(sub *models.ArticleSubmission) error {
	if sub.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if len([]rune(sub.Title)) > maxTitleLength {
		return fmt.Errorf("%w: title must be %d characters or less", common.ErrValidation, maxTitleLength)
	}
	if sub.AnimeName == "" {
		return fmt.Errorf("%w: anime name is required", common.ErrValidation)
	}
	if len([]rune(sub.AnimeName)) > maxTitleLength {
		return fmt.Errorf("%w: anime name must be %d characters or less", common.ErrValidation, maxTitleLength)
	}
	if !sub.Status.Valid() {
		return fmt.Errorf("%w: unknown article status %q", common.ErrValidation, sub.Status)
	}
	for ri, rep := range sub.Reports {
		if rep.Title == "" {
			return fmt.Errorf("%w: report %d: title is required", common.ErrValidation, ri+1)
		}
		if rep.Location == "" {
			return fmt.Errorf("%w: report %d: location is required", common.ErrValidation, ri+1)
		}
		for ii, img := range rep.Images {
			if img.ID == "" && img.Payload == nil {
				return fmt.Errorf("%w: report %d image %d: neither id nor payload", common.ErrValidation, ri+1, ii+1)
			}
			if img.ID != "" && img.Payload != nil {
				return fmt.Errorf("%w: report %d image %d: both id and payload", common.ErrValidation, ri+1, ii+1)
			}
		}
	}
	return nil
}

// uploadNewBinaries runs the allocate/upload/assign pipeline over the
// submission's new binaries. With no new binaries it returns an empty
// assignment without touching the network.
func (s *Service) uploadNewBinaries(ctx context.Context, ownerID string, sub *models.ArticleSubmission) (*uploadAssignment, error) {
	candidates := flattenSubmission(sub)
	if len(candidates) == 0 {
		return &uploadAssignment{imageKeys: map[int]map[int]string{}}, nil
	}

	metrics.UploadBatchSize.Observe(float64(len(candidates)))

	slots, err := s.storage.AllocateSlots(ctx, ownerID, candidates)
	if err != nil {
		return nil, err
	}

	results, err := s.storage.UploadAll(ctx, candidates, slots)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Add(float64(len(candidates)))
		return nil, err
	}
	metrics.UploadsTotal.WithLabelValues("ok").Add(float64(len(candidates)))

	return assignResults(sub, results)
}
