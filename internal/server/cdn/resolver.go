// Package cdn maps stored object keys to fetchable URLs. It is a pure
// function of configuration; no state, no network.
package cdn

import "fmt"

// Default image paths returned for missing keys; resolved by the frontend
// relative to its own origin.
const (
	DefaultArticleImage = "/defaults/article-thumbnail.png"
)

// Resolver turns object keys into URLs served by the content-delivery layer.
type Resolver struct {
	domain string
}

func NewResolver(domain string) *Resolver {
	return &Resolver{domain: domain}
}

// URL returns the fetchable URL for key, or the article default when key is
// nil or empty.
func (r *Resolver) URL(key *string) string {
	if key == nil || *key == "" {
		return DefaultArticleImage
	}
	return fmt.Sprintf("https://%s/%s", r.domain, *key)
}
