package rules

import (
	"fmt"

	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/domain/rfm"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const inactivityAction = "Send re-engagement email with offer"

// Recommendations produces exactly one recommendation per balance. An
// inactive customer gets the win-back offer; everyone else gets the offer of
// their segment's retention class.
func (e *Engine) Recommendations(
	balances []loyalty.CustomerBalance,
	records []rfm.Record,
	inactive []InactiveCustomer,
) []Recommendation {
	segments := lo.SliceToMap(records, func(r rfm.Record) (string, types.Segment) {
		return r.CustomerID, r.Segment
	})
	inactiveByID := lo.KeyBy(inactive, func(ic InactiveCustomer) string { return ic.CustomerID })

	missing := make(map[string]struct{})
	result := make([]Recommendation, 0, len(balances))
	for _, b := range balances {
		segment, ok := segments[b.CustomerID]
		if !ok {
			e.log.Warnw("no segment for customer, treating as potential", "customer_id", b.CustomerID)
		}

		rec := Recommendation{
			CustomerID:     b.CustomerID,
			Segment:        segment,
			Tier:           b.LoyaltyTier,
			CurrentBalance: b.CurrentBalance,
		}

		if ic, ok := inactiveByID[b.CustomerID]; ok {
			rec.Recommendation = fmt.Sprintf("Inactive for %d days - Re-engagement needed", ic.DaysInactive)
			rec.BonusPoints = ic.BonusPointsOffer
			rec.DiscountOffer = decimal.NewFromFloat(e.cfg.InactiveDiscount)
			rec.Action = inactivityAction
			rec.Reason = types.RecommendationReasonInactivity
			result = append(result, rec)
			continue
		}

		class := segment.RetentionClass()
		offer, ok := e.offers[class]
		if !ok {
			e.log.WarnOnce(missing, string(class), "no offer configured for retention class", "retention_class", class)
			offer = SegmentOffer{Discount: decimal.Zero}
		}
		rec.Recommendation = offer.Recommendation
		rec.BonusPoints = offer.BonusPoints
		rec.DiscountOffer = offer.Discount
		rec.Action = offer.Action
		rec.Reason = types.RecommendationReasonSegment
		result = append(result, rec)
	}
	return result
}
