package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaultchat/vaultchat-backend/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

type RequestIDMiddleware struct {
	log *logger.Logger
}

func NewRequestIDMiddleware(log *logger.Logger) *RequestIDMiddleware {
	return &RequestIDMiddleware{log: log.With("Middleware", "RequestIDMiddleware")}
}

// Attach tags every request with an id, honoring one supplied by the caller.
func (rm *RequestIDMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		rm.log.Debug("Request received", "request_id", requestID, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	}
}
