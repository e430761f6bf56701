package utils

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SortedDecimals returns an ascending copy of values
func SortedDecimals(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted
}

// Quantile returns the q-th quantile (0 <= q <= 1) of ascending sorted values
// using linear interpolation between the closest ranks (the R-7 estimator).
// Zero is returned for an empty input.
func Quantile(sorted []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 || !q.IsPositive() {
		return sorted[0]
	}
	if q.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return sorted[n-1]
	}

	pos := q.Mul(decimal.NewFromInt(int64(n - 1)))
	lower := pos.Floor()
	frac := pos.Sub(lower)
	i := int(lower.IntPart())
	if frac.IsZero() || i+1 >= n {
		return sorted[i]
	}
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}

// Percentile is Quantile with p expressed in percent
func Percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	return Quantile(sorted, decimal.NewFromFloat(p).Div(decimal.NewFromInt(100)))
}
