package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/types"
)

// maxRequestIDLen bounds caller supplied request ids before they reach logs
// and sentry tags.
const maxRequestIDLen = 64

// RequestIDMiddleware propagates X-Request-ID, generating one when the caller
// sent none or an oversized one.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" || len(requestID) > maxRequestIDLen {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), types.CtxRequestID, requestID))
	c.Header(types.HeaderRequestID, requestID)
	c.Next()
}
