package types

import (
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/samber/lo"
)

// SalesTier classifies a product by its position in the sales distribution
type SalesTier string

const (
	SalesTierNormal  SalesTier = "normal"
	SalesTierLow     SalesTier = "low"
	SalesTierVeryLow SalesTier = "very_low"
)

// SuggestionPriority is the triage level of a dashboard suggestion
type SuggestionPriority string

const (
	SuggestionPriorityHigh   SuggestionPriority = "HIGH"
	SuggestionPriorityMedium SuggestionPriority = "MEDIUM"
	SuggestionPriorityLow    SuggestionPriority = "LOW"
)

// Rank orders priorities, lower ranks first
func (p SuggestionPriority) Rank() int {
	switch p {
	case SuggestionPriorityHigh:
		return 0
	case SuggestionPriorityMedium:
		return 1
	default:
		return 2
	}
}

// SuggestionCategory is the source rule of a suggestion
type SuggestionCategory string

const (
	SuggestionCategoryLowSellingProducts SuggestionCategory = "Low_Selling_Products"
	SuggestionCategoryInactiveCustomers  SuggestionCategory = "Inactive_Customers"
	SuggestionCategorySpecialPromotions  SuggestionCategory = "Special_Promotions"
	SuggestionCategoryRetentionAlert     SuggestionCategory = "Retention_Alert"
)

// RecommendationReason records which rule produced a recommendation
type RecommendationReason string

const (
	RecommendationReasonInactivity RecommendationReason = "inactivity"
	RecommendationReasonSegment    RecommendationReason = "segment"
)

// PromotionStackingPolicy decides how simultaneously active calendar
// promotions combine when a single multiplier is needed
type PromotionStackingPolicy string

const (
	// PromotionStackingLargestDiscount applies only the promotion with the largest discount
	PromotionStackingLargestDiscount PromotionStackingPolicy = "largest_discount"
	// PromotionStackingMultiply multiplies every active bonus multiplier and
	// keeps the largest discount
	PromotionStackingMultiply PromotionStackingPolicy = "multiply"
)

func (p PromotionStackingPolicy) Validate() error {
	allowedValues := []string{
		string(PromotionStackingLargestDiscount),
		string(PromotionStackingMultiply),
	}
	if !lo.Contains(allowedValues, string(p)) {
		return ierr.NewError("invalid promotion stacking policy").
			WithHint("Invalid promotion stacking policy").
			WithReportableDetails(map[string]any{
				"allowed": allowedValues,
				"policy":  p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CalendarWindowKind tells how a promotion window is anchored in the year
type CalendarWindowKind string

const (
	// CalendarWindowFixed is a month/day range, ex Jan 20 to Jan 26
	CalendarWindowFixed CalendarWindowKind = "fixed"
	// CalendarWindowNthWeekday is anchored on the nth weekday of a month, ex 4th Friday of November
	CalendarWindowNthWeekday CalendarWindowKind = "nth_weekday"
)

func (k CalendarWindowKind) Validate() error {
	allowedValues := []string{
		string(CalendarWindowFixed),
		string(CalendarWindowNthWeekday),
	}
	if !lo.Contains(allowedValues, string(k)) {
		return ierr.NewError("invalid calendar window kind").
			WithHint("Invalid calendar window kind").
			WithReportableDetails(map[string]any{
				"allowed": allowedValues,
				"kind":    k,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
