package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyladder/internal/platform/ctxutil"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

// RequestLogger writes one line per request. Probe and scrape routes are not
// logged unless they fail.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := routeOf(c)
		if isQuietRoute(path) && status < 400 {
			return
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		fields = append(fields, ctxutil.GetTraceData(c.Request.Context()).LogFields()...)
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func isQuietRoute(path string) bool {
	switch path {
	case "/healthcheck", "/readyz", "/metrics":
		return true
	}
	return false
}
