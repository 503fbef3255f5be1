package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"max-notify/pkg/log"
)

// RequestIDHeader is read from and echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the request context so every log line
// written while handling it carries the id.
func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), log.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one debug line per request; 5xx responses log at warn.
func (m Middleware) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		if status >= 500 {
			m.l.Warnf(ctx, "%s %s -> %d (%s)", c.Request.Method, c.FullPath(), status, time.Since(start))
			return
		}
		m.l.Debugf(ctx, "%s %s -> %d (%s)", c.Request.Method, c.FullPath(), status, time.Since(start))
	}
}
