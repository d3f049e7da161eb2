package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/models"
)

// MaxFileSize is the per-file upload ceiling.
const MaxFileSize = 5 * 1024 * 1024

const maxFileNameLength = 255

// allowedContentTypes maps accepted MIME types to the object key extension.
var allowedContentTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// validateCandidate applies the upload policy to a single candidate. The
// returned error names the file and the violated rule.
func validateCandidate(c *models.UploadCandidate) error {
	if c.FileName == "" || len(c.FileName) > maxFileNameLength {
		return fmt.Errorf("%w: file %q: invalid file name", common.ErrValidation, c.FileName)
	}
	if _, ok := allowedContentTypes[c.ContentType]; !ok {
		return fmt.Errorf("%w: file %q: content type %q is not allowed", common.ErrValidation, c.FileName, c.ContentType)
	}
	if c.Size > MaxFileSize {
		return fmt.Errorf("%w: file %q: size exceeds limit of %dMB", common.ErrValidation, c.FileName, MaxFileSize/1024/1024)
	}
	return nil
}

// storageKey derives the deterministic object key for a candidate. The key is
// the only durable identifier once upload succeeds; callers must not assume
// any relationship between it and the declared file name.
func storageKey(ownerID string, role models.CandidateRole, d time.Time, id, ext string) string {
	return fmt.Sprintf("uploads/%s/%s/%s/%s.%s", ownerID, role, d.Format("2006-01-02"), id, ext)
}

// AllocateSlots validates every candidate and returns one presigned PUT
// destination per candidate, in exactly the submitted order. Validation is
// atomic: one bad candidate fails the whole batch before any slot is signed.
func (c *Client) AllocateSlots(ctx context.Context, ownerID string, candidates []*models.UploadCandidate) ([]*models.UploadSlot, error) {
	for _, cand := range candidates {
		if err := validateCandidate(cand); err != nil {
			return nil, err
		}
	}

	slots := make([]*models.UploadSlot, 0, len(candidates))
	for _, cand := range candidates {
		key := storageKey(ownerID, cand.Role, c.now(), c.newID(), allowedContentTypes[cand.ContentType])

		req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(c.bucket),
			Key:           aws.String(key),
			ContentType:   aws.String(cand.ContentType),
			ContentLength: aws.Int64(cand.Size),
			Metadata: map[string]string{
				"uploaded-by":       ownerID,
				"original-filename": cand.FileName,
			},
		}, s3.WithPresignExpires(c.slotTTL))
		if err != nil {
			return nil, fmt.Errorf("presign put for %q: %w", cand.FileName, err)
		}

		slots = append(slots, &models.UploadSlot{
			URL:       req.URL,
			ObjectKey: key,
			ExpiresAt: c.now().Add(c.slotTTL),
		})
	}

	return slots, nil
}
