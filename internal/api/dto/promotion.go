package dto

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/rules"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

type ActivePromotionsRequest struct {
	Date string `form:"date" validate:"required"`
}

// ParseDate returns the requested day at midnight UTC
func (r *ActivePromotionsRequest) ParseDate() (time.Time, error) {
	date, err := types.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHint("Date must be formatted as YYYY-MM-DD").
			WithReportableDetails(map[string]any{
				"date": r.Date,
			}).
			Mark(ierr.ErrValidation)
	}
	return date, nil
}

// ActivePromotionsResponse lists the promotions running on a day together
// with the discount and bonus multiplier a purchase on that day receives
type ActivePromotionsResponse struct {
	Date            string                        `json:"date"`
	Stacking        types.PromotionStackingPolicy `json:"stacking"`
	Discount        decimal.Decimal               `json:"discount"`
	BonusMultiplier decimal.Decimal               `json:"bonus_multiplier"`
	Items           []rules.ActivePromotion       `json:"items"`
}

func ToActivePromotionsResponse(date time.Time, active []rules.ActivePromotion, stacking types.PromotionStackingPolicy) *ActivePromotionsResponse {
	discount, multiplier := rules.Resolve(active, stacking)
	return &ActivePromotionsResponse{
		Date:            types.FormatDate(date),
		Stacking:        stacking,
		Discount:        discount,
		BonusMultiplier: multiplier,
		Items:           active,
	}
}
