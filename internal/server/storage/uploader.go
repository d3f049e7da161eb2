package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/models"
)

// UploadAll PUTs every payload to its slot. Candidates and slots correlate by
// index, so the lists must have equal length; transfers run in parallel and
// results land back at the candidate's index regardless of completion order.
//
// There is no partial-success path: the first failed transfer cancels the
// rest and the whole batch is surfaced as failed. Expired slots simply fail
// their single upload; the caller regenerates a fresh batch to retry.
func (c *Client) UploadAll(ctx context.Context, candidates []*models.UploadCandidate, slots []*models.UploadSlot) ([]*models.UploadResult, error) {
	if len(candidates) != len(slots) {
		return nil, fmt.Errorf("%w: %d candidates vs %d slots", common.ErrInternal, len(candidates), len(slots))
	}

	results := make([]*models.UploadResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i
		cand, slot := candidates[i], slots[i]
		g.Go(func() error {
			if err := c.putObject(gctx, cand, slot); err != nil {
				return err
			}
			results[i] = &models.UploadResult{Candidate: cand, ObjectKey: slot.ObjectKey}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (c *Client) putObject(ctx context.Context, cand *models.UploadCandidate, slot *models.UploadSlot) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.URL, bytes.NewReader(cand.Payload))
	if err != nil {
		return fmt.Errorf("%w: file %q: %v", common.ErrUpload, cand.FileName, err)
	}
	req.Header.Set("Content-Type", cand.ContentType)
	req.Header.Set("Content-Length", strconv.FormatInt(cand.Size, 10))
	req.ContentLength = cand.Size

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: file %q: %v", common.ErrUpload, cand.FileName, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: file %q: status %d", common.ErrUpload, cand.FileName, resp.StatusCode)
	}

	return nil
}
