package cdn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	r := NewResolver("cdn.example.com")

	key := "uploads/u1/report/2025-04-01/abc.jpeg"
	assert.Equal(t, "https://cdn.example.com/uploads/u1/report/2025-04-01/abc.jpeg", r.URL(&key))

	empty := ""
	assert.Equal(t, DefaultArticleImage, r.URL(&empty))
	assert.Equal(t, DefaultArticleImage, r.URL(nil))
}
