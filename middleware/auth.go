package middleware

import (
	"errors"
	"log"
	"strings"

	"taskboard/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies the bearer access token and stores its subject
// under "user_id" for the handlers.
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the token from the header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "Missing or invalid token")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := utils.ParseAccessToken(tokenString, secret, issuer)
		if err != nil {
			utils.Unauthorized(c, tokenError(err))
			c.Abort()
			return
		}

		// Set user ID in context for use in handlers
		c.Set("user_id", userID)
		c.Next()
	}
}

func tokenError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "Invalid token issuer"
	case errors.Is(err, utils.ErrInvalidTokenType):
		return "Invalid token type"
	case errors.Is(err, utils.ErrMissingUserID):
		return "Invalid user ID in token"
	default:
		log.Printf("Rejected access token: %v", err)
		return "Invalid token"
	}
}
