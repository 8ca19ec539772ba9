package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"diner/internal/session"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const sessionKey = "sessionID"

// requestLogger logs one structured line per request
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"total_ms": float64(time.Since(start)) / float64(time.Millisecond),
			"client":   c.ClientIP(),
		}
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("http.request")
		case status >= http.StatusBadRequest:
			entry.Warn("http.request")
		default:
			entry.Debug("http.request")
		}
	}
}

// sessionAuth verifies the bearer token and stores the session id in the context
func sessionAuth(tokens *session.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		id, err := tokens.Verify(tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, session.ErrInvalidToken) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(sessionKey, id)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
