package promotion

import (
	"sort"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/rules"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// UnknownPromotion names lines without a loyalty rule
const UnknownPromotion = "Unknown"

var hundred = decimal.NewFromInt(100)

// Weights of the composite effectiveness score. They are tunable policy and
// default to 0.5, 0.3 and 0.2.
type Weights struct {
	AvgTransactionValue decimal.Decimal
	PointsPerSale       decimal.Decimal
	UnitsPerTransaction decimal.Decimal
}

type Evaluator struct {
	weights   Weights
	topUplift int
	log       *logger.Logger
}

func NewEvaluator(cfg config.EffectivenessConfig, log *logger.Logger) *Evaluator {
	return &Evaluator{
		weights: Weights{
			AvgTransactionValue: decimal.NewFromFloat(cfg.Weights.AvgTransactionValue),
			PointsPerSale:       decimal.NewFromFloat(cfg.Weights.PointsPerSale),
			UnitsPerTransaction: decimal.NewFromFloat(cfg.Weights.UnitsPerTransaction),
		},
		topUplift: cfg.TopUpliftProducts,
		log:       log,
	}
}

// promotionName is the rule name of a line, its rule id when the rule is not
// in the rule table
func promotionName(lp loyalty.LinePoints) string {
	switch {
	case lp.RuleName != "":
		return lp.RuleName
	case lp.RuleID != "":
		return lp.RuleID
	default:
		return UnknownPromotion
	}
}

type groupKey struct {
	promotion string
	second    string
}

type accumulator struct {
	transactions map[string]struct{}
	lines        int
	sales        decimal.Decimal
	points       decimal.Decimal
	units        int
}

func accumulate(lines []loyalty.LinePoints, second func(loyalty.LinePoints) string) ([]groupKey, map[groupKey]*accumulator) {
	keys := make([]groupKey, 0)
	groups := make(map[groupKey]*accumulator)
	for _, lp := range lines {
		k := groupKey{promotion: promotionName(lp), second: second(lp)}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{transactions: make(map[string]struct{})}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.transactions[lp.TransactionID] = struct{}{}
		acc.lines++
		acc.sales = acc.sales.Add(lp.LineTotal)
		acc.points = acc.points.Add(lp.Points)
		acc.units += lp.Quantity
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].promotion != keys[j].promotion {
			return keys[i].promotion < keys[j].promotion
		}
		return keys[i].second < keys[j].second
	})
	return keys, groups
}

// Effectiveness groups the points lines by promotion and store, ordered by
// promotion then store
func (e *Evaluator) Effectiveness(lines []loyalty.LinePoints) []Effectiveness {
	keys, groups := accumulate(lines, func(lp loyalty.LinePoints) string { return lp.StoreID })

	result := make([]Effectiveness, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		txCount := len(acc.transactions)
		tx := decimal.NewFromInt(int64(txCount))

		avg := acc.sales.Div(tx).Round(2)
		pps := decimal.Zero
		if acc.sales.IsPositive() {
			pps = acc.points.Div(acc.sales).Round(4)
		}
		unitsPerTx := decimal.NewFromInt(int64(acc.units)).Div(tx)

		score := e.weights.AvgTransactionValue.Mul(avg).
			Add(e.weights.PointsPerSale.Mul(hundred).Mul(pps)).
			Add(e.weights.UnitsPerTransaction.Mul(unitsPerTx)).
			Round(2)

		result = append(result, Effectiveness{
			Promotion:           k.promotion,
			StoreID:             k.second,
			TransactionCount:    txCount,
			Sales:               acc.sales,
			PointsActivity:      acc.points,
			UnitsSold:           acc.units,
			AvgTransactionValue: avg,
			PointsPerSale:       pps,
			EffectivenessScore:  score,
		})
	}
	return result
}

// ProductUplift returns the best selling (promotion, SKU) pairs, largest
// sales first, limited to top_uplift_products
func (e *Evaluator) ProductUplift(lines []loyalty.LinePoints) []ProductUplift {
	keys, groups := accumulate(lines, func(lp loyalty.LinePoints) string { return lp.SKU })

	result := make([]ProductUplift, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		avgPrice := decimal.Zero
		if acc.units > 0 {
			avgPrice = acc.sales.Div(decimal.NewFromInt(int64(acc.units))).Round(2)
		}
		result = append(result, ProductUplift{
			Promotion:        k.promotion,
			SKU:              k.second,
			SalesValue:       acc.sales,
			UnitsSold:        acc.units,
			TransactionCount: acc.lines,
			AvgPrice:         avgPrice,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SalesValue.GreaterThan(result[j].SalesValue)
	})
	if e.topUplift > 0 && len(result) > e.topUplift {
		result = result[:e.topUplift]
	}
	return result
}

// CalendarUplift compares, for every calendar promotion, the average daily
// sales of the days inside its windows with the days outside them. Every
// calendar day between the first and the last trading day counts, days
// without sales as zero.
func (e *Evaluator) CalendarUplift(daily []metrics.DailyTrend, definitions []rules.PromotionDefinition) []CalendarUplift {
	result := make([]CalendarUplift, 0, len(definitions))
	if len(daily) == 0 {
		return result
	}

	salesByDay := make(map[time.Time]decimal.Decimal, len(daily))
	for _, d := range daily {
		day := types.TruncateToDay(d.Date)
		salesByDay[day] = salesByDay[day].Add(d.TotalSales)
	}
	days := lo.Keys(salesByDay)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	first, last := days[0], days[len(days)-1]

	for _, def := range definitions {
		var inside, outside decimal.Decimal
		var daysInside, daysOutside int
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if _, _, ok := def.Window.Contains(d); ok {
				inside = inside.Add(salesByDay[d])
				daysInside++
				continue
			}
			outside = outside.Add(salesByDay[d])
			daysOutside++
		}

		avgInside := average(inside, daysInside)
		avgOutside := average(outside, daysOutside)
		uplift := decimal.Zero
		if avgOutside.IsPositive() && daysInside > 0 {
			uplift = avgInside.Sub(avgOutside).Div(avgOutside).Mul(hundred).Round(2)
		}

		result = append(result, CalendarUplift{
			Promotion:          def.Name,
			DaysInside:         daysInside,
			DaysOutside:        daysOutside,
			AvgDailyInside:     avgInside,
			AvgDailyOutside:    avgOutside,
			SalesUpliftPercent: uplift,
		})
	}

	e.log.Debugw("calendar uplift computed", "promotions", len(result), "first_day", first, "last_day", last)
	return result
}

func average(total decimal.Decimal, days int) decimal.Decimal {
	if days == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days))).Round(2)
}
