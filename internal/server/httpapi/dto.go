package httpapi

import (
	"time"

	"github.com/seichilog/seichilog/internal/server/models"
)

// Binary payloads travel as base64 strings inside the JSON body; encoding/json
// handles the []byte conversion on both sides.

type imageRequest struct {
	ID          string  `json:"id"`
	Data        []byte  `json:"data"`
	FileName    string  `json:"fileName"`
	ContentType string  `json:"contentType"`
	Caption     *string `json:"caption"`
}

type thumbnailRequest struct {
	Data        []byte `json:"data"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Keep        bool   `json:"keep"`
}

type reportRequest struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     *string        `json:"description"`
	Location        string         `json:"location"`
	Latitude        *float64       `json:"latitude"`
	Longitude       *float64       `json:"longitude"`
	GeocodedAddress *string        `json:"geocodedAddress"`
	Images          []imageRequest `json:"images"`
}

type articleRequest struct {
	Title     string            `json:"title"`
	AnimeName string            `json:"animeName"`
	Status    string            `json:"status"`
	Thumbnail *thumbnailRequest `json:"thumbnail"`
	Reports   []reportRequest   `json:"reports"`
}

func (r *articleRequest) toSubmission() *models.ArticleSubmission {
	sub := &models.ArticleSubmission{
		Title:     r.Title,
		AnimeName: r.AnimeName,
		Status:    models.ArticleStatus(r.Status),
	}
	if r.Thumbnail != nil {
		sub.Thumbnail = &models.ThumbnailSubmission{
			Payload:     r.Thumbnail.Data,
			FileName:    r.Thumbnail.FileName,
			ContentType: r.Thumbnail.ContentType,
			Keep:        r.Thumbnail.Keep,
		}
	}
	for _, rep := range r.Reports {
		rs := &models.ReportSubmission{
			ID:              rep.ID,
			Title:           rep.Title,
			Description:     rep.Description,
			Location:        rep.Location,
			Latitude:        rep.Latitude,
			Longitude:       rep.Longitude,
			GeocodedAddress: rep.GeocodedAddress,
		}
		for _, img := range rep.Images {
			rs.Images = append(rs.Images, &models.ImageSubmission{
				ID:          img.ID,
				Payload:     img.Data,
				FileName:    img.FileName,
				ContentType: img.ContentType,
				Caption:     img.Caption,
			})
		}
		sub.Reports = append(sub.Reports, rs)
	}
	return sub
}

type imageResponse struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Caption      *string `json:"caption"`
	DisplayOrder int     `json:"displayOrder"`
}

type reportResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	Location        string          `json:"location"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	GeocodedAddress *string         `json:"geocodedAddress"`
	DisplayOrder    int             `json:"displayOrder"`
	Images          []imageResponse `json:"images"`
}

type articleResponse struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	Title        string           `json:"title"`
	AnimeName    string           `json:"animeName"`
	Status       string           `json:"status"`
	ThumbnailURL string           `json:"thumbnailUrl"`
	PublishedAt  *time.Time       `json:"publishedAt"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Reports      []reportResponse `json:"reports"`
}

func toArticleResponse(g *models.ArticleGraph) articleResponse {
	out := articleResponse{
		ID:           g.ID,
		UserID:       g.UserID,
		Title:        g.Title,
		AnimeName:    g.AnimeName,
		Status:       string(g.Status),
		ThumbnailURL: g.ThumbnailURL,
		PublishedAt:  g.PublishedAt,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
		Reports:      make([]reportResponse, 0, len(g.Reports)),
	}
	for _, rep := range g.Reports {
		out.Reports = append(out.Reports, toReportResponse(rep))
	}
	return out
}

func toReportResponse(rep *models.ReportGraphWithURLs) reportResponse {
	rr := reportResponse{
		ID:              rep.ID,
		Title:           rep.Title,
		Description:     rep.Description,
		Location:        rep.Location,
		Latitude:        rep.Latitude,
		Longitude:       rep.Longitude,
		GeocodedAddress: rep.GeocodedAddress,
		DisplayOrder:    rep.DisplayOrder,
		Images:          make([]imageResponse, 0, len(rep.Images)),
	}
	for _, img := range rep.Images {
		rr.Images = append(rr.Images, imageResponse{
			ID:           img.ID,
			URL:          img.URL,
			Caption:      img.Caption,
			DisplayOrder: img.DisplayOrder,
		})
	}
	return rr
}

// feedReportResponse is a report on the public map feed; unlike the nested
// article view it carries the owning article's id.
type feedReportResponse struct {
	reportResponse
	ArticleID string `json:"articleId"`
}

func toFeedReportResponses(reports []*models.ReportGraphWithURLs) []feedReportResponse {
	out := make([]feedReportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, feedReportResponse{
			reportResponse: toReportResponse(rep),
			ArticleID:      rep.ArticleID,
		})
	}
	return out
}

type bookmarkedArticleResponse struct {
	BookmarkID   string     `json:"bookmarkId"`
	BookmarkedAt time.Time  `json:"bookmarkedAt"`
	ArticleID    string     `json:"articleId"`
	Title        string     `json:"title"`
	AnimeName    string     `json:"animeName"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	PublishedAt  *time.Time `json:"publishedAt"`
}

type paginationResponse struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type bookmarkListResponse struct {
	Bookmarks  []bookmarkedArticleResponse `json:"bookmarks"`
	Pagination paginationResponse          `json:"pagination"`
}

func toBookmarkListResponse(page *models.BookmarkPage, limit int) bookmarkListResponse {
	out := bookmarkListResponse{
		Bookmarks: make([]bookmarkedArticleResponse, 0, len(page.Items)),
		Pagination: paginationResponse{
			Total:      page.Total,
			TotalPages: (page.Total + limit - 1) / limit,
		},
	}
	for _, item := range page.Items {
		out.Bookmarks = append(out.Bookmarks, bookmarkedArticleResponse{
			BookmarkID:   item.BookmarkID,
			BookmarkedAt: item.BookmarkedAt,
			ArticleID:    item.Article.ID,
			Title:        item.Title,
			AnimeName:    item.AnimeName,
			ThumbnailURL: item.ThumbnailURL,
			PublishedAt:  item.PublishedAt,
		})
	}
	return out
}

type summaryResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	AnimeName    string     `json:"animeName"`
	Status       string     `json:"status"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	PublishedAt  *time.Time `json:"publishedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toSummaryResponses(summaries []*models.ArticleSummary) []summaryResponse {
	out := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryResponse{
			ID:           s.ID,
			Title:        s.Title,
			AnimeName:    s.AnimeName,
			Status:       string(s.Status),
			ThumbnailURL: s.ThumbnailURL,
			PublishedAt:  s.PublishedAt,
			CreatedAt:    s.CreatedAt,
		})
	}
	return out
}
