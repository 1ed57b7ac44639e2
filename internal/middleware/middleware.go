package middleware

import (
	"time"

	"github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once it completed.
func RequestLogger() gin.HandlerFunc {
	log := logger.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("operator", c.GetString(auth.OperatorContextKey)).
			Msg("Request handled")
	}
}
