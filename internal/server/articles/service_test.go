package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/logging"
	"github.com/seichilog/seichilog/internal/server/cdn"
	"github.com/seichilog/seichilog/internal/server/models"
	articlerepo "github.com/seichilog/seichilog/internal/server/repositories/articles"
	bookmarkrepo "github.com/seichilog/seichilog/internal/server/repositories/bookmarks"
	imagerepo "github.com/seichilog/seichilog/internal/server/repositories/reportimages"
	reportrepo "github.com/seichilog/seichilog/internal/server/repositories/reports"
)

// memStore is an in-memory stand-in for the three repositories, with
// injectable failures for the orchestration-failure tests.
type memStore struct {
	mu       sync.Mutex
	articles  map[string]*models.Article
	reports   map[string]*models.Report
	images    map[string]*models.ReportImage
	bookmarks map[string]*models.Bookmark

	failReportCreate bool
	failImageCreate  bool
}

func newMemStore() *memStore {
	return &memStore{
		articles:  make(map[string]*models.Article),
		reports:   make(map[string]*models.Report),
		images:    make(map[string]*models.ReportImage),
		bookmarks: make(map[string]*models.Bookmark),
	}
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *memStore) Articles(dbx.DBTX) articlerepo.Repository   { return (*memArticles)(m) }
func (m *memStore) Reports(dbx.DBTX) reportrepo.Repository     { return (*memReports)(m) }
func (m *memStore) ReportImages(dbx.DBTX) imagerepo.Repository { return (*memImages)(m) }
func (m *memStore) Bookmarks(dbx.DBTX) bookmarkrepo.Repository { return (*memBookmarks)(m) }

type memArticles memStore

func (m *memArticles) Create(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memArticles) Update(_ context.Context, a *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memArticles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.articles, id)
	for rid, r := range m.reports {
		if r.ArticleID != id {
			continue
		}
		delete(m.reports, rid)
		for iid, img := range m.images {
			if img.ReportID == rid {
				delete(m.images, iid)
			}
		}
	}
	return nil
}

func (m *memArticles) GetByID(_ context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memArticles) GetOwned(_ context.Context, id, userID string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok || a.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memArticles) ListPublished(_ context.Context, limit, offset int) ([]*models.Article, error) {
	return m.list(func(a *models.Article) bool { return a.Status == models.StatusPublished }, limit, offset), nil
}

func (m *memArticles) ListByOwner(_ context.Context, userID string, limit, offset int) ([]*models.Article, error) {
	return m.list(func(a *models.Article) bool { return a.UserID == userID }, limit, offset), nil
}

func (m *memArticles) list(keep func(*models.Article) bool, limit, offset int) []*models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Article
	for _, a := range m.articles {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Article) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

type memReports memStore

func (m *memReports) Create(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReportCreate {
		return errors.New("db error: insert failed")
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memReports) Update(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memReports) SelectByArticle(_ context.Context, articleID string) ([]*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Report
	for _, r := range m.reports {
		if r.ArticleID == articleID {
			cp := *r
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Report) int { return a.DisplayOrder - b.DisplayOrder })
	return out, nil
}

func (m *memReports) SelectPublished(_ context.Context) ([]*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Report
	for _, r := range m.reports {
		a, ok := m.articles[r.ArticleID]
		if !ok || a.Status != models.StatusPublished {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Report) int {
		pa, pb := m.articles[a.ArticleID].PublishedAt, m.articles[b.ArticleID].PublishedAt
		if pa != nil && pb != nil && !pa.Equal(*pb) {
			return pb.Compare(*pa)
		}
		return a.DisplayOrder - b.DisplayOrder
	})
	return out, nil
}

func (m *memReports) DeleteAbsent(_ context.Context, articleID string, keepIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []string
	for id, r := range m.reports {
		if r.ArticleID != articleID || slices.Contains(keepIDs, id) {
			continue
		}
		delete(m.reports, id)
		deleted = append(deleted, id)
		for iid, img := range m.images {
			if img.ReportID == id {
				delete(m.images, iid)
			}
		}
	}
	return deleted, nil
}

type memImages memStore

func (m *memImages) Create(_ context.Context, img *models.ReportImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failImageCreate {
		return errors.New("db error: insert failed")
	}
	cp := *img
	m.images[img.ID] = &cp
	return nil
}

func (m *memImages) Update(_ context.Context, img *models.ReportImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.images[img.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Caption = img.Caption
	stored.DisplayOrder = img.DisplayOrder
	return nil
}

func (m *memImages) SelectByReport(_ context.Context, reportID string) ([]*models.ReportImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReportImage
	for _, img := range m.images {
		if img.ReportID == reportID {
			cp := *img
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.ReportImage) int { return a.DisplayOrder - b.DisplayOrder })
	return out, nil
}

func (m *memImages) DeleteAbsent(_ context.Context, reportID string, keepIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for id, img := range m.images {
		if img.ReportID != reportID || slices.Contains(keepIDs, id) {
			continue
		}
		delete(m.images, id)
		keys = append(keys, img.ObjectKey)
	}
	return keys, nil
}

func (m *memImages) SelectKeysByArticle(_ context.Context, articleID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, img := range m.images {
		if r, ok := m.reports[img.ReportID]; ok && r.ArticleID == articleID {
			keys = append(keys, img.ObjectKey)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

type memBookmarks memStore

func (m *memBookmarks) Create(_ context.Context, b *models.Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookmarks {
		if existing.UserID == b.UserID && existing.ArticleID == b.ArticleID {
			return fmt.Errorf("%w: bookmark", common.ErrConflict)
		}
	}
	cp := *b
	m.bookmarks[b.ID] = &cp
	return nil
}

func (m *memBookmarks) Delete(_ context.Context, userID, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.bookmarks {
		if b.UserID == userID && b.ArticleID == articleID {
			delete(m.bookmarks, id)
			return nil
		}
	}
	return common.ErrNotFound
}

func (m *memBookmarks) Exists(_ context.Context, userID, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookmarks {
		if b.UserID == userID && b.ArticleID == articleID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookmarks) ListByUser(_ context.Context, userID string, limit, offset int) ([]*models.BookmarkedArticle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BookmarkedArticle
	for _, b := range m.bookmarks {
		if b.UserID != userID {
			continue
		}
		a, ok := m.articles[b.ArticleID]
		if !ok {
			continue
		}
		out = append(out, &models.BookmarkedArticle{
			BookmarkID:   b.ID,
			BookmarkedAt: b.CreatedAt,
			Article:      *a,
		})
	}
	slices.SortFunc(out, func(a, b *models.BookmarkedArticle) int {
		return b.BookmarkedAt.Compare(a.BookmarkedAt)
	})
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// fakeStorage hands out deterministic object keys and records every call.
type fakeStorage struct {
	mu        sync.Mutex
	allocated int
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (f *fakeStorage) AllocateSlots(_ context.Context, ownerID string, candidates []*models.UploadCandidate) ([]*models.UploadSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots := make([]*models.UploadSlot, len(candidates))
	for i, c := range candidates {
		key := fmt.Sprintf("uploads/%s/%s/%d-%s", ownerID, c.Role, f.allocated, c.FileName)
		f.allocated++
		slots[i] = &models.UploadSlot{
			URL:       "https://s3.test/" + key,
			ObjectKey: key,
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}
	return slots, nil
}

func (f *fakeStorage) UploadAll(_ context.Context, candidates []*models.UploadCandidate, slots []*models.UploadSlot) ([]*models.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	results := make([]*models.UploadResult, len(candidates))
	for i, c := range candidates {
		f.uploaded = append(f.uploaded, slots[i].ObjectKey)
		results[i] = &models.UploadResult{Candidate: c, ObjectKey: slots[i].ObjectKey}
	}
	return results, nil
}

func (f *fakeStorage) DeleteObjects(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, keys...)
	return nil
}

// fakeEnricher counts calls; coordinates are out of scope here.
type fakeEnricher struct {
	calls int
}

func (f *fakeEnricher) EnrichAll(_ context.Context, reports []*models.ReportSubmission) {
	f.calls++
}

type testEnv struct {
	svc     *Service
	store   *memStore
	storage *fakeStorage
	mock    sqlmock.Sqlmock
	sagas   []*saga
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		store:   newMemStore(),
		storage: &fakeStorage{},
		mock:    mock,
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	env.svc = NewService(db, env.store, env.storage, &fakeEnricher{}, cdn.NewResolver("cdn.test"), logger)

	seq := 0
	env.svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}
	env.svc.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }
	env.svc.sagaObserver = func(sg *saga) { env.sagas = append(env.sagas, sg) }

	return env
}

func strptr(s string) *string { return &s }
