package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/api/dto"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/service"
)

type PipelineHandler struct {
	service service.PipelineService
	runs    *service.RunCache
	log     *logger.Logger
}

func NewPipelineHandler(service service.PipelineService, runs *service.RunCache, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{service: service, runs: runs, log: log}
}

// RunPipeline runs the pipeline over the snapshot in the request body. Results
// are cached by dataset so resubmitting a snapshot does not recompute it.
func (h *PipelineHandler) RunPipeline(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.RunPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind pipeline snapshot", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid snapshot format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, cached, err := h.runs.RunDataset(ctx, h.service, req.ToDataset())
	if err != nil {
		h.log.Errorw("pipeline run failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPipelineRunResponse(result, cached))
}

// GetLatestRun returns the latest scheduled run
func (h *PipelineHandler) GetLatestRun(c *gin.Context) {
	result, ok := h.runs.Latest(c.Request.Context())
	if !ok {
		c.Error(ierr.NewError("no scheduled run cached").
			WithHint("No scheduled pipeline run has completed yet").
			Mark(ierr.ErrNotFound))
		return
	}

	c.JSON(http.StatusOK, dto.ToPipelineRunResponse(result, true))
}
