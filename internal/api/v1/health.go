package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/service"
)

type HealthHandler struct {
	runs   *service.RunCache
	logger *logger.Logger
}

func NewHealthHandler(runs *service.RunCache, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{runs: runs, logger: logger}
}

// Health reports liveness and, once a scheduled run completed, which run the
// dashboard is serving.
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if latest, ok := h.runs.Latest(c.Request.Context()); ok {
		body["latest_run_id"] = latest.RunID
		body["latest_reference_date"] = latest.ReferenceDate
	}
	c.JSON(http.StatusOK, body)
}
