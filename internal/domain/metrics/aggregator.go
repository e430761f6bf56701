package metrics

import (
	"sort"
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Aggregate computes the per customer, product, store, category and day
// rollups of a snapshot. Customers without transactions are absent from the
// customer metrics.
func Aggregate(idx *snapshot.Index, log *logger.Logger) *Result {
	return &Result{
		Customers:  customerMetrics(idx, log),
		Products:   productRollups(idx, log),
		Stores:     storeRollups(idx),
		Categories: categoryRollups(idx),
		Daily:      dailyTrends(idx),
		Summary:    summarize(idx),
	}
}

func customerMetrics(idx *snapshot.Index, log *logger.Logger) []CustomerMetrics {
	byCustomer := lo.GroupBy(idx.Headers, func(t *snapshot.Transaction) string { return t.CustomerID })

	result := make([]CustomerMetrics, 0, len(byCustomer))
	for _, customerID := range idx.CustomerIDs() {
		txs := byCustomer[customerID]

		m := CustomerMetrics{
			CustomerID:   customerID,
			Frequency:    len(txs),
			Monetary:     decimal.Zero,
			PointsEarned: decimal.Zero,
		}
		for _, t := range txs {
			if t.Date.After(m.LastPurchaseDate) {
				m.LastPurchaseDate = t.Date
			}
			m.Monetary = m.Monetary.Add(t.TotalValue)
			m.PointsEarned = m.PointsEarned.Add(t.PointsEarned)
		}
		m.LastPurchaseDate = types.TruncateToDay(m.LastPurchaseDate)

		if m.Monetary.IsNegative() {
			log.Warnw("negative monetary total clamped to zero",
				"customer_id", customerID,
				"monetary", m.Monetary.String())
			m.Monetary = decimal.Zero
		}

		result = append(result, m)
	}
	return result
}

func productRollups(idx *snapshot.Index, log *logger.Logger) []ProductRollup {
	bySKU := lo.GroupBy(idx.Lines, func(li *snapshot.LineItem) string { return li.SKU })

	unknown := make(map[string]struct{})
	result := make([]ProductRollup, 0, len(bySKU))
	for sku, lines := range bySKU {
		category, ok := idx.Category(sku)
		if !ok {
			log.WarnOnce(unknown, sku, "line item references an unknown product", "sku", sku)
		}

		r := ProductRollup{
			SKU:          sku,
			Category:     category,
			TotalSales:   decimal.Zero,
			Transactions: len(lines),
			AvgPrice:     decimal.Zero,
		}
		for _, li := range lines {
			r.TotalSales = r.TotalSales.Add(li.LineTotal)
			r.UnitsSold += li.Quantity
		}
		if r.UnitsSold > 0 {
			r.AvgPrice = r.TotalSales.Div(decimal.NewFromInt(int64(r.UnitsSold))).Round(2)
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].SKU < result[j].SKU })
	return result
}

func storeRollups(idx *snapshot.Index) []StoreRollup {
	byStore := lo.GroupBy(idx.Headers, func(t *snapshot.Transaction) string { return t.StoreID })

	result := make([]StoreRollup, 0, len(byStore))
	for storeID, txs := range byStore {
		r := StoreRollup{
			StoreID:      storeID,
			TotalSales:   decimal.Zero,
			Transactions: len(txs),
			PointsEarned: decimal.Zero,
		}
		if s, ok := idx.Stores[storeID]; ok {
			r.Location = s.Location
			r.Tier = s.Tier
		}
		for _, t := range txs {
			r.TotalSales = r.TotalSales.Add(t.TotalValue)
			r.PointsEarned = r.PointsEarned.Add(t.PointsEarned)
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].StoreID < result[j].StoreID })
	return result
}

func categoryRollups(idx *snapshot.Index) []CategoryRollup {
	byCategory := lo.GroupBy(idx.Lines, func(li *snapshot.LineItem) string {
		category, _ := idx.Category(li.SKU)
		return category
	})

	result := make([]CategoryRollup, 0, len(byCategory))
	for category, lines := range byCategory {
		r := CategoryRollup{
			Category:     category,
			TotalSales:   decimal.Zero,
			Transactions: len(lines),
		}
		for _, li := range lines {
			r.TotalSales = r.TotalSales.Add(li.LineTotal)
			r.Quantity += li.Quantity
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].TotalSales.Equal(result[j].TotalSales) {
			return result[i].TotalSales.GreaterThan(result[j].TotalSales)
		}
		return result[i].Category < result[j].Category
	})
	return result
}

func dailyTrends(idx *snapshot.Index) []DailyTrend {
	byDay := lo.GroupBy(idx.Headers, func(t *snapshot.Transaction) time.Time { return types.TruncateToDay(t.Date) })

	result := make([]DailyTrend, 0, len(byDay))
	for d, txs := range byDay {
		r := DailyTrend{
			Date:             d,
			TotalSales:       decimal.Zero,
			TransactionCount: len(txs),
		}
		for _, t := range txs {
			r.TotalSales = r.TotalSales.Add(t.TotalValue)
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

func summarize(idx *snapshot.Index) Summary {
	s := Summary{
		TotalSales:          decimal.Zero,
		TotalTransactions:   len(idx.Headers),
		TotalCustomers:      len(idx.CustomerList),
		TotalPointsEarned:   decimal.Zero,
		AvgTransactionValue: decimal.Zero,
	}
	for _, t := range idx.Headers {
		s.TotalSales = s.TotalSales.Add(t.TotalValue)
		s.TotalPointsEarned = s.TotalPointsEarned.Add(t.PointsEarned)
	}
	if s.TotalTransactions > 0 {
		s.AvgTransactionValue = s.TotalSales.Div(decimal.NewFromInt(int64(s.TotalTransactions))).Round(2)
	}
	return s
}

// TopCustomers returns the highest spending customers, ties broken by id
func (r *Result) TopCustomers(limit int) []TopCustomer {
	top := lo.Map(r.Customers, func(m CustomerMetrics, _ int) TopCustomer {
		return TopCustomer{
			CustomerID:       m.CustomerID,
			TotalSpend:       m.Monetary,
			TransactionCount: m.Frequency,
			TotalPoints:      m.PointsEarned,
		}
	})

	sort.SliceStable(top, func(i, j int) bool {
		if !top[i].TotalSpend.Equal(top[j].TotalSpend) {
			return top[i].TotalSpend.GreaterThan(top[j].TotalSpend)
		}
		return top[i].CustomerID < top[j].CustomerID
	})

	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top
}
