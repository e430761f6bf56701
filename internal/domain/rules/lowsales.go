package rules

import (
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/retailpulse/retailpulse/internal/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DiscountProducts classifies every catalog product by its position in the
// sales distribution of this run and prices the matching discount.
//
// The thresholds are percentiles of per product sales over the products that
// sold, unsold catalog products being counted as zero sales only when
// include_unsold_products is set. Unsold products outside the distribution
// are never discounted.
func (e *Engine) DiscountProducts(catalog []*snapshot.Product, sales []metrics.ProductRollup) ([]DiscountedProduct, SalesThresholds) {
	salesBySKU := lo.SliceToMap(sales, func(r metrics.ProductRollup) (string, decimal.Decimal) {
		return r.SKU, r.TotalSales
	})

	distribution := lo.Map(sales, func(r metrics.ProductRollup, _ int) decimal.Decimal { return r.TotalSales })
	if e.cfg.IncludeUnsoldProducts {
		for _, p := range catalog {
			if _, sold := salesBySKU[p.SKU]; !sold {
				distribution = append(distribution, decimal.Zero)
			}
		}
	}

	sorted := utils.SortedDecimals(distribution)
	thresholds := SalesThresholds{
		Low:     utils.Percentile(sorted, e.cfg.LowSalesPercentile),
		VeryLow: utils.Percentile(sorted, e.cfg.VeryLowSalesPercentile),
	}

	lowDiscount := decimal.NewFromFloat(e.cfg.LowSalesDiscount)
	veryLowDiscount := decimal.NewFromFloat(e.cfg.VeryLowSalesDiscount)

	result := make([]DiscountedProduct, 0, len(catalog))
	for _, p := range catalog {
		total, sold := salesBySKU[p.SKU]
		if !sold {
			total = decimal.Zero
		}

		tier := types.SalesTierNormal
		if len(distribution) > 0 && (sold || e.cfg.IncludeUnsoldProducts) {
			tier = classify(total, thresholds)
		}

		discount := decimal.Zero
		switch tier {
		case types.SalesTierVeryLow:
			discount = veryLowDiscount
		case types.SalesTierLow:
			discount = lowDiscount
		}

		result = append(result, DiscountedProduct{
			SKU:             p.SKU,
			Category:        p.Category,
			BasePrice:       p.BasePrice,
			TotalSales:      total,
			SalesTier:       tier,
			DiscountPercent: discount,
			DiscountedPrice: p.BasePrice.Mul(decimal.NewFromInt(1).Sub(discount)).Round(2),
		})
	}

	e.log.Debugw("product discounts computed",
		"products", len(result),
		"low_threshold", thresholds.Low.String(),
		"very_low_threshold", thresholds.VeryLow.String())

	return result, thresholds
}

// classify checks the very low tier first so a product falls in exactly one tier
func classify(sales decimal.Decimal, t SalesThresholds) types.SalesTier {
	switch {
	case sales.LessThan(t.VeryLow):
		return types.SalesTierVeryLow
	case sales.LessThan(t.Low):
		return types.SalesTierLow
	default:
		return types.SalesTierNormal
	}
}
