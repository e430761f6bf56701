package loyalty

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

// LinePointsParams holds the inputs of the per line points formula
type LinePointsParams struct {
	Quantity  int
	LineTotal decimal.Decimal
	RuleID    string
	Category  string
	// PromoMultiplier of the calendar promotions active on the transaction
	// date, zero meaning no promotion
	PromoMultiplier decimal.Decimal
}

// LinePoints is the points breakdown of one transaction line
type LinePoints struct {
	TransactionID      string          `json:"transaction_id"`
	CustomerID         string          `json:"customer_id"`
	StoreID            string          `json:"store_id"`
	Date               time.Time       `json:"date"`
	SKU                string          `json:"sku"`
	Category           string          `json:"category"`
	Quantity           int             `json:"quantity"`
	LineTotal          decimal.Decimal `json:"line_total"`
	RuleID             string          `json:"rule_id"`
	RuleName           string          `json:"rule_name"`
	RuleMultiplier     decimal.Decimal `json:"rule_multiplier"`
	CategoryMultiplier decimal.Decimal `json:"category_multiplier"`
	PromoMultiplier    decimal.Decimal `json:"promo_multiplier"`
	QuantityMultiplier decimal.Decimal `json:"quantity_multiplier"`
	Points             decimal.Decimal `json:"points"`
}

// CustomerBalance is the points position of a customer with purchase history.
// EstimatedRedeemedPoints applies a fixed redemption rate to the points
// earned; it is an estimate and not derived from redemption events.
type CustomerBalance struct {
	CustomerID              string            `json:"customer_id"`
	TotalPointsEarned       decimal.Decimal   `json:"total_points_earned"`
	TransactionCount        int               `json:"transaction_count"`
	LastPurchaseDate        time.Time         `json:"last_purchase_date"`
	TotalSpent              decimal.Decimal   `json:"total_spent"`
	EnrollmentDate          time.Time         `json:"enrollment_date"`
	DaysAsMember            int               `json:"days_as_member"`
	EstimatedRedeemedPoints decimal.Decimal   `json:"estimated_redeemed_points"`
	CurrentBalance          decimal.Decimal   `json:"current_balance"`
	LoyaltyTier             types.LoyaltyTier `json:"loyalty_tier"`
}

// HistoryEntry is the points earned on one transaction and the running
// total of the customer after it
type HistoryEntry struct {
	CustomerID       string          `json:"customer_id"`
	TransactionID    string          `json:"transaction_id"`
	Date             time.Time       `json:"date"`
	Points           decimal.Decimal `json:"points"`
	CumulativePoints decimal.Decimal `json:"cumulative_points"`
}

type TierCount struct {
	Tier  types.LoyaltyTier `json:"tier"`
	Count int               `json:"count"`
}

// Report summarizes the program over all balances
type Report struct {
	TotalMembers            int               `json:"total_members"`
	TotalPointsIssued       decimal.Decimal   `json:"total_points_issued"`
	TotalEstimatedRedeemed  decimal.Decimal   `json:"total_estimated_redeemed"`
	TotalOutstandingBalance decimal.Decimal   `json:"total_outstanding_balance"`
	AverageBalance          decimal.Decimal   `json:"average_balance"`
	TierDistribution        []TierCount       `json:"tier_distribution"`
	TopEarners              []CustomerBalance `json:"top_earners"`
}

// QuantityTier grants Multiplier to lines with at least MinQuantity units
type QuantityTier struct {
	MinQuantity int
	Multiplier  decimal.Decimal
}

// TierThresholds are the minimum current balances of each loyalty tier
type TierThresholds struct {
	Platinum decimal.Decimal
	Gold     decimal.Decimal
	Silver   decimal.Decimal
}

// Tier returns the loyalty tier of a balance, evaluated from highest to lowest
func (t TierThresholds) Tier(balance decimal.Decimal) types.LoyaltyTier {
	switch {
	case balance.GreaterThanOrEqual(t.Platinum):
		return types.LoyaltyTierPlatinum
	case balance.GreaterThanOrEqual(t.Gold):
		return types.LoyaltyTierGold
	case balance.GreaterThanOrEqual(t.Silver):
		return types.LoyaltyTierSilver
	default:
		return types.LoyaltyTierBronze
	}
}
