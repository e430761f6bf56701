package middleware

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/types"
)

// SentryMiddleware attaches a sentry hub to each request and tags its scope
// with the request id. It is a no-op chain when sentry is disabled.
func SentryMiddleware(cfg *config.Configuration) gin.HandlersChain {
	if !cfg.Sentry.Enabled {
		return nil
	}

	return gin.HandlersChain{
		sentrygin.New(sentrygin.Options{
			Repanic: true,
			Timeout: 2 * time.Second,
		}),
		tagRequestID,
	}
}

func tagRequestID(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.Scope().SetTag("request_id", types.GetRequestID(c.Request.Context()))
	}
	c.Next()
}
