package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailpulse/retailpulse/internal/api/dto"
	"github.com/retailpulse/retailpulse/internal/config"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/service"
	"github.com/retailpulse/retailpulse/internal/validator"
)

type PromotionHandler struct {
	service service.PipelineService
	config  *config.Configuration
	log     *logger.Logger
}

func NewPromotionHandler(service service.PipelineService, config *config.Configuration, log *logger.Logger) *PromotionHandler {
	return &PromotionHandler{service: service, config: config, log: log}
}

func (h *PromotionHandler) GetActivePromotions(c *gin.Context) {
	var req dto.ActivePromotionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if err := validator.ValidateRequest(&req); err != nil {
		c.Error(err)
		return
	}

	date, err := req.ParseDate()
	if err != nil {
		c.Error(err)
		return
	}

	active := h.service.ActivePromotions(date)
	c.JSON(http.StatusOK, dto.ToActivePromotionsResponse(date, active, h.config.Analytics.Rules.PromotionStacking))
}
