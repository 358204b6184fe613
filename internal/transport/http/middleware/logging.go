package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/h1bee-match/internal/logger"
)

// RequestLogger writes one access log line per request and binds a
// request-scoped logger (with trace ids when present) to the context.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := logger.FromContext(c.Request.Context(), base)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), reqLog))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if id := UserID(c); id != "" {
			attrs = append(attrs, "user_id", id)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLog.Error("http request", attrs...)
		case status >= 400:
			reqLog.Warn("http request", attrs...)
		default:
			reqLog.Info("http request", attrs...)
		}
	}
}
