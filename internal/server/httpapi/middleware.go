package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seichilog/seichilog/internal/server/auth"
	"github.com/seichilog/seichilog/internal/server/metrics"
)

const userIDKey = "user_id"

// userID returns the authenticated user's id. Routes using it must sit
// behind requireAuth.
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requireAuth verifies the bearer token and stores the subject on the
// context. 401 never distinguishes a missing header from a bad token.
func requireAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.UserIDFromAuthHeader(c.GetHeader("Authorization"), secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// requestMetrics records count and latency per route. The route template
// (not the raw path) keeps the label cardinality bounded.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HttpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HttpRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
