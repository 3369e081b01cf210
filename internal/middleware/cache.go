package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets a max-age header on successful GET responses. Used on
// the dashboard endpoints, whose aggregates tolerate short staleness.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("private, max-age=%d", maxAgeSeconds)
	return func(c *gin.Context) {
		if c.Request.Method == "GET" {
			c.Header("Cache-Control", value)
		}
		c.Next()
	}
}
