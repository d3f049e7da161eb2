// Package models defines the persisted article graph (articles, reports,
// report images) and the ephemeral types that exist only for the duration of
// one authoring request (submissions, upload candidates, slots, results).
package models

import "time"

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s ArticleStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Article is the top-level entity a user authors. PublishedAt is set exactly
// once, the first time Status transitions to published.
type Article struct {
	ID                 string
	UserID             string
	Title              string
	AnimeName          string
	ThumbnailObjectKey *string
	Status             ArticleStatus
	PublishedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Report is one location-tagged sub-entry within an article. Coordinates are
// nil until geocoding succeeds; DisplayOrder is 1-based and dense within the
// article.
type Report struct {
	ID              string
	ArticleID       string
	Title           string
	Description     *string
	Location        string
	Latitude        *float64
	Longitude       *float64
	GeocodedAddress *string
	DisplayOrder    int
}

// ReportImage belongs to exactly one report. DisplayOrder is 1-based within
// the report.
type ReportImage struct {
	ID           string
	ReportID     string
	ObjectKey    string
	Caption      *string
	DisplayOrder int
}

// ArticleGraph is the fully-populated article tree, plus resolved CDN URLs
// for the thumbnail and every image.
type ArticleGraph struct {
	Article
	ThumbnailURL string
	Reports      []*ReportGraphWithURLs
}

// ReportGraphWithURLs pairs each image with its fetchable URL.
type ReportGraphWithURLs struct {
	Report
	Images []*ReportImageWithURL
}

type ReportImageWithURL struct {
	ReportImage
	URL string
}

// ArticleSummary is a list-view article with its thumbnail resolved.
type ArticleSummary struct {
	Article
	ThumbnailURL string
}

// ImageSubmission is one image slot in an authoring request. Exactly one of
// the two identities applies: a non-empty ID marks a pre-existing persisted
// image (Payload must be nil, the object key is never re-derived), a non-nil
// Payload marks a new binary to upload.
type ImageSubmission struct {
	ID          string
	Payload     []byte
	FileName    string
	ContentType string
	Caption     *string
}

// IsNew reports whether the submission carries a fresh binary.
func (i *ImageSubmission) IsNew() bool {
	return i.ID == "" && i.Payload != nil
}

// ThumbnailSubmission describes the requested thumbnail state. A non-nil
// Payload replaces the thumbnail; otherwise Keep controls whether the
// currently stored key is retained.
type ThumbnailSubmission struct {
	Payload     []byte
	FileName    string
	ContentType string
	Keep        bool
}

// ReportSubmission is the desired state of one report. ID is empty for
// not-yet-persisted reports. Coordinates may be pre-filled by a previous
// edit; the enricher leaves such reports untouched.
type ReportSubmission struct {
	ID              string
	Title           string
	Description     *string
	Location        string
	Latitude        *float64
	Longitude       *float64
	GeocodedAddress *string
	Images          []*ImageSubmission
}

// ArticleSubmission is the caller's full desired end-state for one article.
type ArticleSubmission struct {
	Title     string
	AnimeName string
	Status    ArticleStatus
	Thumbnail *ThumbnailSubmission
	Reports   []*ReportSubmission
}

// CandidateRole tells which slot an upload candidate fills.
type CandidateRole string

const (
	RoleThumbnail   CandidateRole = "thumbnail"
	RoleReportImage CandidateRole = "report"
)

// UploadCandidate is one file queued for upload, tagged with its destination
// in the submission tree so results map back by tag, not by offset
// arithmetic. ReportIndex/ImageIndex are -1 for the thumbnail.
type UploadCandidate struct {
	Role        CandidateRole
	ReportIndex int
	ImageIndex  int
	Payload     []byte
	FileName    string
	ContentType string
	Size        int64
}

// UploadSlot is a short-lived pre-authorized destination for one candidate.
// The allocator returns slots in exactly the order candidates were submitted.
type UploadSlot struct {
	URL       string
	ObjectKey string
	ExpiresAt time.Time
}

// UploadResult pairs a completed upload's object key back to its candidate.
type UploadResult struct {
	Candidate *UploadCandidate
	ObjectKey string
}

// Bookmark marks one article as saved by one user. A user bookmarks an
// article at most once.
type Bookmark struct {
	ID        string
	UserID    string
	ArticleID string
	CreatedAt time.Time
}

// BookmarkedArticle is one entry in a user's bookmark list: the bookmark
// row joined with the article it points at.
type BookmarkedArticle struct {
	BookmarkID   string
	BookmarkedAt time.Time
	Article
}

// BookmarkPage is one page of a user's bookmarks plus the total count,
// so clients can render page controls.
type BookmarkPage struct {
	Items []*BookmarkedArticleSummary
	Total int
}

// BookmarkedArticleSummary is a BookmarkedArticle with its thumbnail resolved.
type BookmarkedArticleSummary struct {
	BookmarkedArticle
	ThumbnailURL string
}
