package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/logger"
)

// RequestLogger writes one structured line per request. Server errors log
// at error level, client errors at warn and the rest at debug.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if uid := UserID(c); uid != "" {
			keyvals = append(keyvals, "user", uid)
		}
		if len(c.Errors) > 0 {
			keyvals = append(keyvals, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", keyvals...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", keyvals...)
		default:
			logger.Debug("Request", keyvals...)
		}
	}
}

// Recovery turns a panic into a 500 with the standard error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Recovered from panic", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "internal server error",
		})
	})
}
