package rules

import (
	"testing"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/rfm"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newEngine(t *testing.T, mutate func(cfg *config.RulesConfig)) *Engine {
	cfg := config.DefaultAnalyticsConfig().Rules
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig().Rules
	cfg.VeryLowSalesPercentile = 40
	_, err := NewEngine(cfg, logger.NewNopLogger())
	assert.True(t, ierr.IsValidation(err))

	cfg = config.DefaultAnalyticsConfig().Rules
	cfg.SegmentOffers = map[string]config.SegmentOfferConfig{"whales": {BonusPoints: 1}}
	_, err = NewEngine(cfg, logger.NewNopLogger())
	assert.True(t, ierr.IsValidation(err))
}

func catalog() []*snapshot.Product {
	return []*snapshot.Product{
		{SKU: "SKU-A", Category: "Grocery", BasePrice: dec("100")},
		{SKU: "SKU-B", Category: "Grocery", BasePrice: dec("20")},
		{SKU: "SKU-C", Category: "Toys", BasePrice: dec("35.50")},
		{SKU: "SKU-D", Category: "Toys", BasePrice: dec("12")},
		{SKU: "SKU-E", Category: "Home", BasePrice: dec("80")},
		{SKU: "SKU-F", Category: "Home", BasePrice: dec("9.99")},
	}
}

func sales() []metrics.ProductRollup {
	return []metrics.ProductRollup{
		{SKU: "SKU-A", TotalSales: dec("10")},
		{SKU: "SKU-B", TotalSales: dec("20")},
		{SKU: "SKU-C", TotalSales: dec("30")},
		{SKU: "SKU-D", TotalSales: dec("40")},
		{SKU: "SKU-E", TotalSales: dec("50")},
	}
}

func TestEngine_DiscountProducts(t *testing.T) {
	t.Run("sold_products_only", func(t *testing.T) {
		e := newEngine(t, nil)
		products, thresholds := e.DiscountProducts(catalog(), sales())

		assert.True(t, dec("20").Equal(thresholds.Low), thresholds.Low.String())
		assert.True(t, dec("14").Equal(thresholds.VeryLow), thresholds.VeryLow.String())
		require.Len(t, products, 6)

		tiers := lo.SliceToMap(products, func(p DiscountedProduct) (string, types.SalesTier) { return p.SKU, p.SalesTier })
		assert.Equal(t, map[string]types.SalesTier{
			"SKU-A": types.SalesTierVeryLow,
			"SKU-B": types.SalesTierNormal,
			"SKU-C": types.SalesTierNormal,
			"SKU-D": types.SalesTierNormal,
			"SKU-E": types.SalesTierNormal,
			"SKU-F": types.SalesTierNormal,
		}, tiers)

		a := products[0]
		assert.True(t, dec("0.25").Equal(a.DiscountPercent))
		assert.True(t, dec("75").Equal(a.DiscountedPrice))

		f := products[5]
		assert.True(t, f.TotalSales.IsZero())
		assert.True(t, f.DiscountPercent.IsZero())
		assert.True(t, dec("9.99").Equal(f.DiscountedPrice))
	})

	t.Run("include_unsold_products", func(t *testing.T) {
		e := newEngine(t, func(cfg *config.RulesConfig) { cfg.IncludeUnsoldProducts = true })
		products, thresholds := e.DiscountProducts(catalog(), sales())

		assert.True(t, dec("12.5").Equal(thresholds.Low), thresholds.Low.String())
		assert.True(t, dec("5").Equal(thresholds.VeryLow), thresholds.VeryLow.String())

		assert.Equal(t, types.SalesTierLow, products[0].SalesTier)
		assert.True(t, dec("0.15").Equal(products[0].DiscountPercent))
		assert.True(t, dec("85").Equal(products[0].DiscountedPrice))

		assert.Equal(t, types.SalesTierVeryLow, products[5].SalesTier)
		assert.True(t, dec("7.49").Equal(products[5].DiscountedPrice), products[5].DiscountedPrice.String())
	})

	t.Run("no_sales", func(t *testing.T) {
		e := newEngine(t, nil)
		products, thresholds := e.DiscountProducts(catalog(), nil)

		assert.True(t, thresholds.Low.IsZero())
		for _, p := range products {
			assert.Equal(t, types.SalesTierNormal, p.SalesTier)
			assert.True(t, p.BasePrice.Equal(p.DiscountedPrice))
		}
	})
}

func TestEngine_DiscountProducts_OneTierPerProduct(t *testing.T) {
	e := newEngine(t, nil)
	products, thresholds := e.DiscountProducts(catalog(), sales())

	for _, p := range products {
		switch p.SalesTier {
		case types.SalesTierVeryLow:
			assert.True(t, p.TotalSales.LessThan(thresholds.VeryLow))
			assert.True(t, dec("0.25").Equal(p.DiscountPercent))
		case types.SalesTierLow:
			assert.True(t, p.TotalSales.LessThan(thresholds.Low))
			assert.False(t, p.TotalSales.LessThan(thresholds.VeryLow))
			assert.True(t, dec("0.15").Equal(p.DiscountPercent))
		default:
			assert.True(t, p.DiscountPercent.IsZero())
		}
	}
}

func TestEngine_InactivityBonus(t *testing.T) {
	e := newEngine(t, nil)

	tests := []struct {
		days int
		want int
	}{
		{0, 0},
		{9, 0},
		{30, 300},
		{45, 400},
		{400, 4000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.InactivityBonus(tt.days), "days=%d", tt.days)
	}

	zeroStep := newEngine(t, func(cfg *config.RulesConfig) { cfg.InactiveBonusStepDays = 0 })
	assert.Equal(t, 0, zeroStep.InactivityBonus(400))
}

func balances(ref time.Time) []loyalty.CustomerBalance {
	return []loyalty.CustomerBalance{
		{CustomerID: "C1", LastPurchaseDate: date(2023, time.November, 27), TransactionCount: 1, CurrentBalance: dec("40")},
		{CustomerID: "C2", LastPurchaseDate: ref.AddDate(0, 0, -29), TransactionCount: 8, CurrentBalance: dec("2500"), LoyaltyTier: types.LoyaltyTierGold},
		{CustomerID: "C3", LastPurchaseDate: ref.AddDate(0, 0, -30), TransactionCount: 4, CurrentBalance: dec("150")},
		{CustomerID: "C4", LastPurchaseDate: ref, TransactionCount: 2, CurrentBalance: dec("600")},
	}
}

func TestEngine_InactiveCustomers(t *testing.T) {
	e := newEngine(t, nil)
	ref := date(2024, time.December, 31)

	inactive := e.InactiveCustomers(balances(ref), ref)
	require.Len(t, inactive, 2)

	assert.Equal(t, "C1", inactive[0].CustomerID)
	assert.Equal(t, 400, inactive[0].DaysInactive)
	assert.Equal(t, 4000, inactive[0].BonusPointsOffer)
	assert.True(t, dec("40").Equal(inactive[0].CurrentBalance))

	assert.Equal(t, "C3", inactive[1].CustomerID)
	assert.Equal(t, 30, inactive[1].DaysInactive)
	assert.Equal(t, 300, inactive[1].BonusPointsOffer)
}

func TestEngine_Recommendations(t *testing.T) {
	e := newEngine(t, nil)
	ref := date(2024, time.December, 31)
	b := balances(ref)
	inactive := e.InactiveCustomers(b, ref)

	records := []rfm.Record{
		{CustomerID: "C1", Segment: types.SegmentChampion},
		{CustomerID: "C2", Segment: types.SegmentChampion},
		{CustomerID: "C3", Segment: types.SegmentAtRisk},
	}

	recs := e.Recommendations(b, records, inactive)
	require.Len(t, recs, 4)

	// inactivity wins over the segment offer
	assert.Equal(t, types.RecommendationReasonInactivity, recs[0].Reason)
	assert.Equal(t, types.SegmentChampion, recs[0].Segment)
	assert.Equal(t, "Inactive for 400 days - Re-engagement needed", recs[0].Recommendation)
	assert.Equal(t, 4000, recs[0].BonusPoints)
	assert.True(t, dec("0.15").Equal(recs[0].DiscountOffer))
	assert.Equal(t, "Send re-engagement email with offer", recs[0].Action)

	assert.Equal(t, types.RecommendationReasonSegment, recs[1].Reason)
	assert.Equal(t, "VIP Customer - Offer exclusive early access", recs[1].Recommendation)
	assert.Equal(t, 0, recs[1].BonusPoints)
	assert.True(t, recs[1].DiscountOffer.IsZero())
	assert.Equal(t, types.LoyaltyTierGold, recs[1].Tier)

	assert.Equal(t, types.RecommendationReasonInactivity, recs[2].Reason)
	assert.Equal(t, 300, recs[2].BonusPoints)

	// no RFM record falls back to the potential offer
	assert.Equal(t, types.RecommendationReasonSegment, recs[3].Reason)
	assert.Equal(t, 150, recs[3].BonusPoints)
	assert.True(t, dec("0.08").Equal(recs[3].DiscountOffer))
}

func TestEngine_Suggestions(t *testing.T) {
	e := newEngine(t, nil)
	ref := date(2024, time.November, 22)
	b := balances(ref)

	products, _ := e.DiscountProducts(catalog(), sales())
	inactive := e.InactiveCustomers(b, ref)
	active := e.Calendar().Active(ref)

	suggestions := e.Suggestions(products, inactive, active, b)

	categories := lo.Map(suggestions, func(s Suggestion, _ int) types.SuggestionCategory { return s.Category })
	assert.Equal(t, []types.SuggestionCategory{
		types.SuggestionCategoryLowSellingProducts,
		types.SuggestionCategoryRetentionAlert,
		types.SuggestionCategoryInactiveCustomers,
		types.SuggestionCategoryInactiveCustomers,
		types.SuggestionCategorySpecialPromotions,
		types.SuggestionCategoryRetentionAlert,
	}, categories)

	assert.Equal(t, "SKU-A", suggestions[0].Item)
	assert.Equal(t, "Sales: $10.00, Action: Apply 25% discount", suggestions[0].Details)
	assert.Equal(t, types.SuggestionPriorityHigh, suggestions[0].Priority)

	assert.Equal(t, "2 customers with low engagement", suggestions[1].Item)
	assert.Equal(t, types.SuggestionPriorityHigh, suggestions[1].Priority)

	// longest inactivity first
	assert.Equal(t, "C1", suggestions[2].Item)
	assert.Equal(t, "C3", suggestions[3].Item)

	assert.Equal(t, "Black Friday Mega Sale", suggestions[4].Item)
	assert.Equal(t, "Discount: 40%, Bonus: 4.0x", suggestions[4].Details)

	assert.Equal(t, "1 customers with low point balance", suggestions[5].Item)
	assert.Equal(t, types.SuggestionPriorityMedium, suggestions[5].Priority)
}

func TestEngine_SuggestionsRespectLimits(t *testing.T) {
	e := newEngine(t, func(cfg *config.RulesConfig) {
		cfg.SuggestionLimits.LowSellers = 1
		cfg.SuggestionLimits.InactiveCustomers = 0
		cfg.IncludeUnsoldProducts = true
	})
	ref := date(2024, time.March, 14)
	b := balances(ref)

	products, _ := e.DiscountProducts(catalog(), sales())
	suggestions := e.Suggestions(products, e.InactiveCustomers(b, ref), nil, b)

	lowSellers := lo.Filter(suggestions, func(s Suggestion, _ int) bool {
		return s.Category == types.SuggestionCategoryLowSellingProducts
	})
	require.Len(t, lowSellers, 1)
	// SKU-F sold nothing
	assert.Equal(t, "SKU-F", lowSellers[0].Item)

	assert.False(t, lo.ContainsBy(suggestions, func(s Suggestion) bool {
		return s.Category == types.SuggestionCategoryInactiveCustomers
	}))
}
