package middleware

import (
	"net/http"

	"taskboard/utils"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose body is not JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		if c.ContentType() != gin.MIMEJSON {
			utils.UnsupportedMediaType(c, "Request body must be application/json")
			c.Abort()
			return
		}

		c.Next()
	}
}
