package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/utils"
)

const userIDKey = "userID"

// Auth resolves the caller's user id from the X-User-ID header set by the
// gateway, falling back to a bearer token when a JWT secret is configured.
// Requests without an identity are rejected.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")

		if userID == "" && jwtSecret != "" {
			token := c.GetHeader("Authorization")
			token = strings.TrimPrefix(token, "Bearer ")
			if token != "" {
				claims, err := utils.ValidateJWT(token, jwtSecret)
				if err != nil {
					utils.UnauthorizedResponse(c, "Invalid token")
					c.Abort()
					return
				}
				userID = claims.UserID
			}
		}

		if userID == "" {
			utils.UnauthorizedResponse(c, "User ID is required")
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id stored by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
