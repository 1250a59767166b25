package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/logging"
)

// AccessLog writes one structured line per request once the handler chain
// has finished. 5xx responses log at error level, 4xx at warn.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String(logging.FieldRequestID, GetRequestID(c)),
			slog.String(logging.FieldHTTPMethod, c.Request.Method),
			slog.String(logging.FieldURL, path),
			slog.Int(logging.FieldResponseStatus, status),
			slog.Int64(logging.FieldDurationMs, time.Since(start).Milliseconds()),
			slog.String(logging.FieldIP, c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("errors", errs))
		}
		slog.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
