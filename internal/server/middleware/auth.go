// Package middleware holds the gin middleware of the sync server.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key AuthMiddleware stores the account id under.
const UserIDKey = "user_id"

type TokenParser interface {
	Parse(token string) (userID string, err error)
}

// AuthMiddleware rejects requests without a valid bearer token. Every
// rejection is a 401, which clients treat as being signed out.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "missing or invalid token")
			return
		}

		userID, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the account id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}
