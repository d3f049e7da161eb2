package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the REST surface. Published-article reads are public;
// authoring routes require a bearer token.
func NewRouter(h *Handlers, secretKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/articles", h.listArticles)
	r.GET("/articles/:id", h.getArticle)
	r.GET("/reports", h.listReports)

	authed := r.Group("/", requireAuth(secretKey))
	{
		authed.POST("/articles", h.createArticle)
		authed.PATCH("/articles/:id", h.updateArticle)
		authed.DELETE("/articles/:id", h.deleteArticle)
		authed.POST("/articles/:id/bookmark", h.bookmarkArticle)
		authed.DELETE("/articles/:id/bookmark", h.unbookmarkArticle)
		authed.GET("/articles/:id/bookmark", h.checkBookmark)
		authed.GET("/my/articles", h.listMyArticles)
		authed.GET("/my/articles/:id", h.getMyArticle)
		authed.GET("/my/bookmarks", h.listBookmarks)
	}

	return r
}
