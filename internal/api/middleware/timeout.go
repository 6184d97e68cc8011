package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestTimeout sets a per-request context deadline.
// It does NOT forcibly kill the handler; downstream code must honor ctx.Done().
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		// Nothing can be changed once the handler has written.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			logger.WithComponent("timeout").Warnf("%s %s exceeded %v", c.Request.Method, c.Request.URL.Path, d)
			switch c.NegotiateFormat(gin.MIMEJSON, gin.MIMEPlain) {
			case gin.MIMEPlain:
				c.Abort()
				c.String(http.StatusGatewayTimeout, "request timeout")
			default:
				c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "request timeout"})
			}
		}
	}
}
