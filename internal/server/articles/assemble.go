package articles

import (
	"fmt"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/models"
)

// flattenSubmission builds the flat upload-candidate list for a submission:
// the thumbnail first when it carries a new binary, then each report's new
// images in submission order. Pre-existing images (those with an id) are
// excluded entirely. Every candidate is tagged with its destination, so the
// reverse mapping is a direct lookup rather than offset arithmetic.
func flattenSubmission(sub *models.ArticleSubmission) []*models.UploadCandidate {
	var candidates []*models.UploadCandidate

	if sub.Thumbnail != nil && sub.Thumbnail.Payload != nil {
		candidates = append(candidates, &models.UploadCandidate{
			Role:        models.RoleThumbnail,
			ReportIndex: -1,
			ImageIndex:  -1,
			Payload:     sub.Thumbnail.Payload,
			FileName:    sub.Thumbnail.FileName,
			ContentType: sub.Thumbnail.ContentType,
			Size:        int64(len(sub.Thumbnail.Payload)),
		})
	}

	for ri, rep := range sub.Reports {
		for ii, img := range rep.Images {
			if !img.IsNew() {
				continue
			}
			candidates = append(candidates, &models.UploadCandidate{
				Role:        models.RoleReportImage,
				ReportIndex: ri,
				ImageIndex:  ii,
				Payload:     img.Payload,
				FileName:    img.FileName,
				ContentType: img.ContentType,
				Size:        int64(len(img.Payload)),
			})
		}
	}

	return candidates
}

// uploadAssignment is the reverse mapping of flat upload results onto the
// submission tree.
type uploadAssignment struct {
	thumbnailKey *string
	// imageKeys[reportIndex][imageIndex] = object key, new images only
	imageKeys map[int]map[int]string
}

// imageKey returns the uploaded key for a new image slot, if any.
func (a *uploadAssignment) imageKey(reportIndex, imageIndex int) (string, bool) {
	keys, ok := a.imageKeys[reportIndex]
	if !ok {
		return "", false
	}
	k, ok := keys[imageIndex]
	return k, ok
}

// assignResults places every flat upload result onto the submission slot its
// candidate was tagged with. Each result must land on exactly one valid,
// previously unassigned slot, and the result count must equal the number of
// new binaries in the submission; any mismatch is an internal-consistency
// failure, never a silent drop or misassignment.
func assignResults(sub *models.ArticleSubmission, results []*models.UploadResult) (*uploadAssignment, error) {
	expected := len(flattenSubmission(sub))
	if len(results) != expected {
		return nil, fmt.Errorf("%w: %d upload results for %d candidates", common.ErrInternal, len(results), expected)
	}

	out := &uploadAssignment{imageKeys: make(map[int]map[int]string)}

	for _, res := range results {
		cand := res.Candidate
		if cand == nil {
			return nil, fmt.Errorf("%w: upload result without candidate", common.ErrInternal)
		}

		switch cand.Role {
		case models.RoleThumbnail:
			if sub.Thumbnail == nil || sub.Thumbnail.Payload == nil {
				return nil, fmt.Errorf("%w: thumbnail result but no thumbnail submitted", common.ErrInternal)
			}
			if out.thumbnailKey != nil {
				return nil, fmt.Errorf("%w: duplicate thumbnail assignment", common.ErrInternal)
			}
			key := res.ObjectKey
			out.thumbnailKey = &key

		case models.RoleReportImage:
			if cand.ReportIndex < 0 || cand.ReportIndex >= len(sub.Reports) {
				return nil, fmt.Errorf("%w: report index %d out of range", common.ErrInternal, cand.ReportIndex)
			}
			rep := sub.Reports[cand.ReportIndex]
			if cand.ImageIndex < 0 || cand.ImageIndex >= len(rep.Images) {
				return nil, fmt.Errorf("%w: image index %d out of range for report %d", common.ErrInternal, cand.ImageIndex, cand.ReportIndex)
			}
			if !rep.Images[cand.ImageIndex].IsNew() {
				return nil, fmt.Errorf("%w: upload result for a pre-existing image (report %d, image %d)", common.ErrInternal, cand.ReportIndex, cand.ImageIndex)
			}
			if _, dup := out.imageKey(cand.ReportIndex, cand.ImageIndex); dup {
				return nil, fmt.Errorf("%w: duplicate assignment for report %d, image %d", common.ErrInternal, cand.ReportIndex, cand.ImageIndex)
			}
			if out.imageKeys[cand.ReportIndex] == nil {
				out.imageKeys[cand.ReportIndex] = make(map[int]string)
			}
			out.imageKeys[cand.ReportIndex][cand.ImageIndex] = res.ObjectKey

		default:
			return nil, fmt.Errorf("%w: unknown candidate role %q", common.ErrInternal, cand.Role)
		}
	}

	return out, nil
}

// uploadedKeys lists every object key in the assignment, for compensation.
func (a *uploadAssignment) uploadedKeys() []string {
	var keys []string
	if a.thumbnailKey != nil {
		keys = append(keys, *a.thumbnailKey)
	}
	for _, imgs := range a.imageKeys {
		for _, k := range imgs {
			keys = append(keys, k)
		}
	}
	return keys
}
