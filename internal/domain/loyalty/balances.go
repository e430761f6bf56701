package loyalty

import (
	"sort"
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Balances computes one balance per customer with purchase history, in the
// order of customers. Points are the sum of the customer's line points.
func (c *Calculator) Balances(
	idx *snapshot.Index,
	customers []metrics.CustomerMetrics,
	lines []LinePoints,
	referenceDate time.Time,
) []CustomerBalance {
	pointsByCustomer := make(map[string]decimal.Decimal, len(customers))
	for _, lp := range lines {
		pointsByCustomer[lp.CustomerID] = pointsByCustomer[lp.CustomerID].Add(lp.Points)
	}

	result := make([]CustomerBalance, 0, len(customers))
	for _, m := range customers {
		total, ok := pointsByCustomer[m.CustomerID]
		if !ok {
			total = decimal.Zero
		}
		redeemed := total.Mul(c.redemptionRate)
		current := total.Sub(redeemed)

		b := CustomerBalance{
			CustomerID:              m.CustomerID,
			TotalPointsEarned:       total,
			TransactionCount:        m.Frequency,
			LastPurchaseDate:        m.LastPurchaseDate,
			TotalSpent:              m.Monetary,
			EstimatedRedeemedPoints: redeemed,
			CurrentBalance:          current,
			LoyaltyTier:             c.tiers.Tier(current),
		}
		b.EnrollmentDate, b.DaysAsMember = c.membership(idx, m.CustomerID, referenceDate)

		result = append(result, b)
	}
	return result
}

// membership returns the enrollment date and the days since, clamped to zero
// when the enrollment is unknown or after the reference date
func (c *Calculator) membership(idx *snapshot.Index, customerID string, referenceDate time.Time) (time.Time, int) {
	cust, ok := idx.Customers[customerID]
	if !ok || cust.EnrollmentDate.IsZero() {
		c.log.Warnw("enrollment date unknown, days as member set to zero", "customer_id", customerID)
		return time.Time{}, 0
	}

	enrolled := types.TruncateToDay(cust.EnrollmentDate)
	days := types.DaysBetween(enrolled, referenceDate)
	if days < 0 {
		c.log.Warnw("enrollment date after the reference date, days as member clamped to zero",
			"customer_id", customerID,
			"enrollment_date", types.FormatDate(enrolled),
			"reference_date", types.FormatDate(referenceDate))
		days = 0
	}
	return enrolled, days
}

// History returns the points earned per transaction with the running total of
// each customer. Entries are grouped by customer in the order of customerIDs
// and ordered by date within a customer.
func History(customerIDs []string, lines []LinePoints) []HistoryEntry {
	type txPoints struct {
		entry HistoryEntry
		seq   int
	}

	byTx := make(map[string]*txPoints)
	for i, lp := range lines {
		tp, ok := byTx[lp.TransactionID]
		if !ok {
			tp = &txPoints{
				entry: HistoryEntry{
					CustomerID:    lp.CustomerID,
					TransactionID: lp.TransactionID,
					Date:          lp.Date,
					Points:        decimal.Zero,
				},
				seq: i,
			}
			byTx[lp.TransactionID] = tp
		}
		tp.entry.Points = tp.entry.Points.Add(lp.Points)
	}

	byCustomer := lo.GroupBy(lo.Values(byTx), func(tp *txPoints) string { return tp.entry.CustomerID })

	history := make([]HistoryEntry, 0, len(byTx))
	for _, customerID := range customerIDs {
		txs := byCustomer[customerID]
		sort.Slice(txs, func(i, j int) bool {
			if !txs[i].entry.Date.Equal(txs[j].entry.Date) {
				return txs[i].entry.Date.Before(txs[j].entry.Date)
			}
			return txs[i].seq < txs[j].seq
		})

		running := decimal.Zero
		for _, tp := range txs {
			running = running.Add(tp.entry.Points)
			e := tp.entry
			e.CumulativePoints = running
			history = append(history, e)
		}
	}
	return history
}
