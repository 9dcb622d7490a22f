package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gilad-Sterman/legamunity-back-test-sub000/internal/shared/telemetry"
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
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		adminID, _ := c.Get(adminIDKey)
		sessionID, _ := c.Get("sessionId")
		draftID, _ := c.Get("draftId")
		stageTransition := ""
		if raw, ok := c.Get("stageTransition"); ok {
			if s, ok := raw.(string); ok {
				stageTransition = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":       reqID,
			"method":           c.Request.Method,
			"path":             c.Request.URL.Path,
			"status":           status,
			"stage_transition": stageTransition,
			"duration_ms":      float64(latency.Microseconds()) / 1000.0,
			"admin_id":         adminID,
			"session_id":       sessionID,
			"draft_id":         draftID,
			"client_ip":        c.ClientIP(),
			"user_agent":       c.Request.UserAgent(),
		})
	}
}
