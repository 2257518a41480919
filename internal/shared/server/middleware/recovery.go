package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"assistant-backend/internal/shared/metrics"
	"assistant-backend/internal/shared/server/respond"
	"assistant-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope. A panic after the
// response was committed only logs, since the status can no longer change.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.IncPanic(route)
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"route":      route,
				"method":     c.Request.Method,
				"error":      rec,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
		}()
		c.Next()
	}
}
