package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tagtrack/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID assigns every request an id, reusing the caller's X-Request-ID
// when present. The id doubles as the log correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(logging.WithCorrelationID(c.Request.Context(), requestID))
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// RequestLogger logs each completed request at a level derived from its status.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logging.NewComponentLogger(logger, "http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.Int("status", status),
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int64("latency_ms", time.Since(start).Milliseconds()),
			logging.String("client_ip", c.ClientIP()),
			logging.String(logging.FieldCorrelationID, GetRequestID(c)),
		}
		if query != "" {
			attrs = append(attrs, logging.String("query", query))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, logging.String("error", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", logging.Args(attrs...)...)
		default:
			logger.Info("request completed", logging.Args(attrs...)...)
		}
	}
}

// Recovery turns a panicking handler into a 500 response.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	logger = logging.NewComponentLogger(logger, "http")
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				requestID := GetRequestID(c)
				logging.ErrorWithContext(logger, "panic recovered", "handler_panic",
					logging.String("error", fmt.Sprint(recovered)),
					logging.String(logging.FieldCorrelationID, requestID),
					logging.String("method", c.Request.Method),
					logging.String("path", c.Request.URL.Path),
					logging.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Status:    "error",
					Error:     fmt.Sprint(recovered),
					RequestID: requestID,
					Timestamp: formatTime(time.Now()),
				})
			}
		}()
		c.Next()
	}
}
