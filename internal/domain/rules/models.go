package rules

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

// DiscountedProduct is a catalog product with its sales tier discount applied
type DiscountedProduct struct {
	SKU        string          `json:"sku"`
	Category   string          `json:"category"`
	BasePrice  decimal.Decimal `json:"base_price"`
	TotalSales decimal.Decimal `json:"total_sales"`
	SalesTier  types.SalesTier `json:"sales_tier"`
	// DiscountPercent is a fraction, 0.15 meaning 15%
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// SalesThresholds are the percentile cut-offs of one run
type SalesThresholds struct {
	Low     decimal.Decimal `json:"low"`
	VeryLow decimal.Decimal `json:"very_low"`
}

// InactiveCustomer is a customer who has not purchased for at least the
// inactivity threshold, with the win-back bonus offered
type InactiveCustomer struct {
	CustomerID       string          `json:"customer_id"`
	LastPurchaseDate time.Time       `json:"last_purchase_date"`
	DaysInactive     int             `json:"days_inactive"`
	BonusPointsOffer int             `json:"bonus_points_offer"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
}

// Window anchors a promotion in the year. A fixed window spans StartDay to
// EndDay of Month. An nth_weekday window spans DaysBefore to DaysAfter around
// the Nth Weekday of Month, N = -1 meaning the last one.
type Window struct {
	Kind       types.CalendarWindowKind `json:"kind"`
	Month      time.Month               `json:"month"`
	StartDay   int                      `json:"start_day,omitempty"`
	EndDay     int                      `json:"end_day,omitempty"`
	Weekday    time.Weekday             `json:"weekday,omitempty"`
	N          int                      `json:"n,omitempty"`
	DaysBefore int                      `json:"days_before,omitempty"`
	DaysAfter  int                      `json:"days_after,omitempty"`
}

// PromotionDefinition is a declarative calendar promotion
type PromotionDefinition struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Discount        decimal.Decimal `json:"discount"`
	BonusMultiplier decimal.Decimal `json:"bonus_multiplier"`
	Window          Window          `json:"window"`
}

// ActivePromotion is a promotion running on a given date with the dates of
// its current window
type ActivePromotion struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Discount        decimal.Decimal `json:"discount"`
	BonusMultiplier decimal.Decimal `json:"bonus_multiplier"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
}

// Recommendation is the single retention action chosen for a customer
type Recommendation struct {
	CustomerID     string                     `json:"customer_id"`
	Segment        types.Segment              `json:"segment"`
	Tier           types.LoyaltyTier          `json:"tier"`
	CurrentBalance decimal.Decimal            `json:"current_balance"`
	Recommendation string                     `json:"recommendation"`
	BonusPoints    int                        `json:"bonus_points"`
	DiscountOffer  decimal.Decimal            `json:"discount_offer"`
	Action         string                     `json:"action"`
	Reason         types.RecommendationReason `json:"reason"`
}

// Suggestion is a prioritized insight for business users
type Suggestion struct {
	Category types.SuggestionCategory `json:"category"`
	Item     string                   `json:"item"`
	Details  string                   `json:"details"`
	Priority types.SuggestionPriority `json:"priority"`
}
