// Package httpapi exposes the article pipeline over a JSON REST surface.
// Reads of published articles are public; everything touching a specific
// user's content sits behind bearer-token auth.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/logging"
	"github.com/seichilog/seichilog/internal/server/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ArticleService is the pipeline surface the handlers call into.
type ArticleService interface {
	Create(ctx context.Context, userID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error)
	Update(ctx context.Context, userID, articleID string, sub *models.ArticleSubmission) (*models.ArticleGraph, error)
	Delete(ctx context.Context, userID, articleID string) error
	Get(ctx context.Context, articleID string) (*models.ArticleGraph, error)
	GetMine(ctx context.Context, userID, articleID string) (*models.ArticleGraph, error)
	List(ctx context.Context, limit, offset int) ([]*models.ArticleSummary, error)
	ListMine(ctx context.Context, userID string, limit, offset int) ([]*models.ArticleSummary, error)
	Bookmark(ctx context.Context, userID, articleID string) error
	Unbookmark(ctx context.Context, userID, articleID string) error
	IsBookmarked(ctx context.Context, userID, articleID string) (bool, error)
	ListBookmarks(ctx context.Context, userID string, limit, offset int) (*models.BookmarkPage, error)
	ListReports(ctx context.Context) ([]*models.ReportGraphWithURLs, error)
}

type Handlers struct {
	svc    ArticleService
	logger logging.Logger
}

func NewHandlers(svc ArticleService, logger logging.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// writeError maps the service error taxonomy to HTTP statuses. Validation
// details go back to the caller; everything else stays generic so internals
// and existence of other users' content are not disclosed.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrOwnership):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, common.ErrUpload):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed, please retry"})
	case errors.Is(err, common.ErrPartialWrite):
		h.logger.Error(c.Request.Context(), "partial write", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "the request could not be completed, please retry"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) createArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	graph, err := h.svc.Create(c.Request.Context(), userID(c), req.toSubmission())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toArticleResponse(graph))
}

func (h *Handlers) updateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	graph, err := h.svc.Update(c.Request.Context(), userID(c), c.Param("id"), req.toSubmission())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(graph))
}

func (h *Handlers) deleteArticle(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) getArticle(c *gin.Context) {
	graph, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(graph))
}

func (h *Handlers) getMyArticle(c *gin.Context) {
	graph, err := h.svc.GetMine(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(graph))
}

func (h *Handlers) listArticles(c *gin.Context) {
	limit, offset := pagination(c)
	summaries, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": toSummaryResponses(summaries)})
}

func (h *Handlers) listMyArticles(c *gin.Context) {
	limit, offset := pagination(c)
	summaries, err := h.svc.ListMine(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": toSummaryResponses(summaries)})
}

func (h *Handlers) bookmarkArticle(c *gin.Context) {
	if err := h.svc.Bookmark(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handlers) unbookmarkArticle(c *gin.Context) {
	if err := h.svc.Unbookmark(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) checkBookmark(c *gin.Context) {
	ok, err := h.svc.IsBookmarked(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isBookmarked": ok})
}

func (h *Handlers) listBookmarks(c *gin.Context) {
	limit, offset := pagination(c)
	page, err := h.svc.ListBookmarks(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookmarkListResponse(page, limit))
}

func (h *Handlers) listReports(c *gin.Context) {
	reports, err := h.svc.ListReports(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": toFeedReportResponses(reports)})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
