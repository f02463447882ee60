package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bali-advisory/internal/api/apierr"
)

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if query != "" {
			ev = ev.Str("query", query)
		}
		if id := UserID(c); id != 0 {
			ev = ev.Uint("user_id", id)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("gin_errors", c.Errors.String())
		}
		ev.Msg("request")
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				if !c.Writer.Written() {
					apierr.Abort(c, http.StatusInternalServerError, apierr.CodeInternal, "internal error")
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
	}
}
