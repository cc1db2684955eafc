package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blake-osondu/jobdroid-service/pkg/logger"
)

// requestIDHeader is echoed back to the caller, and honored inbound so a
// client can correlate its own retries against the automation API.
const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an ID and seeds the request context
// with it, so logger.WithContext carries it through handlers, the run
// registry, and anything else logging below them.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(requestIDHeader, id)
		c.Set(string(logger.RequestIDKey), id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey, id),
		)

		c.Next()
	}
}

// GetRequestID returns the request's ID, or "" outside the RequestID
// middleware.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(string(logger.RequestIDKey)); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
