package rules

import (
	"fmt"
	"sort"

	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Suggestions builds the prioritized insight list. Low sellers and low
// engagement are HIGH, inactivity, promotions and low balances are MEDIUM.
// The result is stably ordered by priority.
func (e *Engine) Suggestions(
	products []DiscountedProduct,
	inactive []InactiveCustomer,
	active []ActivePromotion,
	balances []loyalty.CustomerBalance,
) []Suggestion {
	suggestions := make([]Suggestion, 0)

	lowSellers := lo.Filter(products, func(p DiscountedProduct, _ int) bool {
		return p.SalesTier != types.SalesTierNormal
	})
	sort.SliceStable(lowSellers, func(i, j int) bool {
		if !lowSellers[i].TotalSales.Equal(lowSellers[j].TotalSales) {
			return lowSellers[i].TotalSales.LessThan(lowSellers[j].TotalSales)
		}
		return lowSellers[i].SKU < lowSellers[j].SKU
	})
	for _, p := range take(lowSellers, e.cfg.SuggestionLimits.LowSellers) {
		suggestions = append(suggestions, Suggestion{
			Category: types.SuggestionCategoryLowSellingProducts,
			Item:     p.SKU,
			Details:  fmt.Sprintf("Sales: $%s, Action: Apply %s discount", p.TotalSales.StringFixed(2), percent(p.DiscountPercent)),
			Priority: types.SuggestionPriorityHigh,
		})
	}

	longest := make([]InactiveCustomer, len(inactive))
	copy(longest, inactive)
	sort.SliceStable(longest, func(i, j int) bool { return longest[i].DaysInactive > longest[j].DaysInactive })
	for _, ic := range take(longest, e.cfg.SuggestionLimits.InactiveCustomers) {
		suggestions = append(suggestions, Suggestion{
			Category: types.SuggestionCategoryInactiveCustomers,
			Item:     ic.CustomerID,
			Details:  fmt.Sprintf("Inactive: %d days, Offer: %d points", ic.DaysInactive, ic.BonusPointsOffer),
			Priority: types.SuggestionPriorityMedium,
		})
	}

	for _, p := range active {
		suggestions = append(suggestions, Suggestion{
			Category: types.SuggestionCategorySpecialPromotions,
			Item:     p.Name,
			Details:  fmt.Sprintf("Discount: %s, Bonus: %sx", percent(p.Discount), p.BonusMultiplier.StringFixed(1)),
			Priority: types.SuggestionPriorityMedium,
		})
	}

	lowBalanceThreshold := decimal.NewFromFloat(e.cfg.LowBalanceThreshold)
	lowBalance := lo.CountBy(balances, func(b loyalty.CustomerBalance) bool {
		return b.CurrentBalance.LessThan(lowBalanceThreshold)
	})
	if lowBalance > 0 {
		suggestions = append(suggestions, Suggestion{
			Category: types.SuggestionCategoryRetentionAlert,
			Item:     fmt.Sprintf("%d customers with low point balance", lowBalance),
			Details:  "Action: Launch point multiplier campaign",
			Priority: types.SuggestionPriorityMedium,
		})
	}

	lowEngagement := lo.CountBy(balances, func(b loyalty.CustomerBalance) bool {
		return b.TransactionCount < e.cfg.LowEngagementTransactions
	})
	if lowEngagement > 0 {
		suggestions = append(suggestions, Suggestion{
			Category: types.SuggestionCategoryRetentionAlert,
			Item:     fmt.Sprintf("%d customers with low engagement", lowEngagement),
			Details:  "Action: Send personalized offers",
			Priority: types.SuggestionPriorityHigh,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.Rank() < suggestions[j].Priority.Rank()
	})
	return suggestions
}

func take[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func percent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(0) + "%"
}
