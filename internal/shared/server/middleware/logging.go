package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"annonce-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if sessionID, ok := c.Get("sessionId"); ok {
			fields["session_id"] = sessionID
		}
		if entryID, ok := c.Get("entryId"); ok {
			fields["entry_id"] = entryID
		}

		telemetry.Info("request.complete", fields)
	}
}
