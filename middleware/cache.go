package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControlMiddleware lets clients keep per-user responses for maxAge.
func CacheControlMiddleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "private, max-age="+strconv.Itoa(int(maxAge.Seconds())))
		c.Next()
	}
}
