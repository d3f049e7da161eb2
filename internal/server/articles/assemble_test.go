package articles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/models"
)

func sampleSubmission() *models.ArticleSubmission {
	return &models.ArticleSubmission{
		Title:     "Exploring Chichibu",
		AnimeName: "Anohana",
		Status:    models.StatusDraft,
		Thumbnail: &models.ThumbnailSubmission{
			Payload:     []byte("thumb"),
			FileName:    "thumb.jpg",
			ContentType: "image/jpeg",
		},
		Reports: []*models.ReportSubmission{
			{
				Title:    "Old Chichibu Bridge",
				Location: "Chichibu, Saitama",
				Images: []*models.ImageSubmission{
					{Payload: []byte("a"), FileName: "a.jpg", ContentType: "image/jpeg"},
					{Payload: []byte("b"), FileName: "b.png", ContentType: "image/png"},
				},
			},
			{
				Title:    "Jomine Shrine",
				Location: "Kamikawa, Saitama",
				Images: []*models.ImageSubmission{
					{ID: "7", Caption: strptr("existing shot")},
				},
			},
		},
	}
}

func TestFlattenSubmission(t *testing.T) {
	sub := sampleSubmission()

	got := flattenSubmission(sub)
	require.Len(t, got, 3)

	assert.Equal(t, models.RoleThumbnail, got[0].Role)
	assert.Equal(t, -1, got[0].ReportIndex)
	assert.Equal(t, -1, got[0].ImageIndex)
	assert.Equal(t, "thumb.jpg", got[0].FileName)

	assert.Equal(t, models.RoleReportImage, got[1].Role)
	assert.Equal(t, 0, got[1].ReportIndex)
	assert.Equal(t, 0, got[1].ImageIndex)

	assert.Equal(t, models.RoleReportImage, got[2].Role)
	assert.Equal(t, 0, got[2].ReportIndex)
	assert.Equal(t, 1, got[2].ImageIndex)
	assert.Equal(t, int64(1), got[2].Size)
}

func TestFlattenSubmissionSkipsKeptThumbnail(t *testing.T) {
	sub := sampleSubmission()
	sub.Thumbnail = &models.ThumbnailSubmission{Keep: true}

	got := flattenSubmission(sub)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, models.RoleReportImage, c.Role)
	}
}

func TestFlattenSubmissionEmpty(t *testing.T) {
	sub := &models.ArticleSubmission{Title: "t", AnimeName: "a", Status: models.StatusDraft}
	assert.Empty(t, flattenSubmission(sub))
}

func resultsFor(candidates []*models.UploadCandidate) []*models.UploadResult {
	out := make([]*models.UploadResult, len(candidates))
	for i, c := range candidates {
		out[i] = &models.UploadResult{Candidate: c, ObjectKey: "key-" + c.FileName}
	}
	return out
}

func TestAssignResultsRoundTrip(t *testing.T) {
	sub := sampleSubmission()
	results := resultsFor(flattenSubmission(sub))

	got, err := assignResults(sub, results)
	require.NoError(t, err)

	require.NotNil(t, got.thumbnailKey)
	assert.Equal(t, "key-thumb.jpg", *got.thumbnailKey)

	key, ok := got.imageKey(0, 0)
	require.True(t, ok)
	assert.Equal(t, "key-a.jpg", key)

	key, ok = got.imageKey(0, 1)
	require.True(t, ok)
	assert.Equal(t, "key-b.png", key)

	// the pre-existing image never gets an assignment
	_, ok = got.imageKey(1, 0)
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"key-thumb.jpg", "key-a.jpg", "key-b.png"}, got.uploadedKeys())
}

func TestAssignResultsCountMismatch(t *testing.T) {
	sub := sampleSubmission()
	results := resultsFor(flattenSubmission(sub))

	_, err := assignResults(sub, results[:2])
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestAssignResultsRejectsExistingTarget(t *testing.T) {
	sub := sampleSubmission()
	results := resultsFor(flattenSubmission(sub))
	results[2].Candidate = &models.UploadCandidate{Role: models.RoleReportImage, ReportIndex: 1, ImageIndex: 0}

	_, err := assignResults(sub, results)
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestAssignResultsRejectsDuplicate(t *testing.T) {
	sub := sampleSubmission()
	results := resultsFor(flattenSubmission(sub))
	results[2].Candidate = results[1].Candidate

	_, err := assignResults(sub, results)
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestAssignResultsRejectsOutOfRange(t *testing.T) {
	sub := sampleSubmission()
	results := resultsFor(flattenSubmission(sub))
	results[1].Candidate = &models.UploadCandidate{Role: models.RoleReportImage, ReportIndex: 5, ImageIndex: 0}

	_, err := assignResults(sub, results)
	assert.ErrorIs(t, err, common.ErrInternal)
}
