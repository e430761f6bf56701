package rfm

import (
	"sort"

	"github.com/retailpulse/retailpulse/internal/utils"
	"github.com/shopspring/decimal"
)

const (
	numBins = 5
	// neutralScore replaces a score that could not be derived
	neutralScore = 3
)

var (
	ascendingLabels  = []int{1, 2, 3, 4, 5}
	descendingLabels = []int{5, 4, 3, 2, 1}
)

// binning is the outcome of scoring one axis
type binning struct {
	scores []int
	// fellBack is set when quantile edges were degenerate
	fellBack bool
}

// quantileBins assigns each value to one of five equal-population bins using
// quantile edges, the bins being right-closed with the minimum in the first
// bin. When the edges are not strictly increasing it falls back to five
// equal-width bins over fallbackValues.
func quantileBins(values, fallbackValues []decimal.Decimal, labels []int) binning {
	if len(values) == 0 {
		return binning{scores: []int{}}
	}

	sorted := utils.SortedDecimals(values)
	edges := make([]decimal.Decimal, numBins+1)
	for i := 0; i <= numBins; i++ {
		q := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(numBins))
		edges[i] = utils.Quantile(sorted, q)
	}

	if !strictlyIncreasing(edges) {
		return binning{scores: equalWidthBins(fallbackValues, labels), fellBack: true}
	}
	return binning{scores: assign(values, edges, labels)}
}

// equalWidthBins splits the value range into five bins of equal width. The
// first edge is moved down by 0.1% of the range so the minimum falls in the
// first bin; a single repeated value widens the range by 0.1% on each side,
// which places it in the middle bin.
func equalWidthBins(values []decimal.Decimal, labels []int) []int {
	if len(values) == 0 {
		return []int{}
	}

	sorted := utils.SortedDecimals(values)
	mn, mx := sorted[0], sorted[len(sorted)-1]
	thousandth := decimal.New(1, -3)

	if mn.Equal(mx) {
		mn = mn.Sub(widen(mn, thousandth))
		mx = mx.Add(widen(mx, thousandth))
		return assign(values, linspace(mn, mx), labels)
	}

	edges := linspace(mn, mx)
	edges[0] = edges[0].Sub(mx.Sub(mn).Mul(thousandth))
	return assign(values, edges, labels)
}

func widen(v, fraction decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return fraction
	}
	return v.Abs().Mul(fraction)
}

func linspace(mn, mx decimal.Decimal) []decimal.Decimal {
	step := mx.Sub(mn).Div(decimal.NewFromInt(numBins))
	edges := make([]decimal.Decimal, numBins+1)
	for i := 0; i < numBins; i++ {
		edges[i] = mn.Add(step.Mul(decimal.NewFromInt(int64(i))))
	}
	edges[numBins] = mx
	return edges
}

func strictlyIncreasing(edges []decimal.Decimal) bool {
	for i := 1; i < len(edges); i++ {
		if !edges[i].GreaterThan(edges[i-1]) {
			return false
		}
	}
	return true
}

// assign maps each value to the label of the right-closed bin containing it.
// The lowest edge is inclusive. Values outside every bin get the neutral score.
func assign(values, edges []decimal.Decimal, labels []int) []int {
	scores := make([]int, len(values))
	for i, v := range values {
		scores[i] = neutralScore
		if v.LessThan(edges[0]) || v.GreaterThan(edges[numBins]) {
			continue
		}
		bin := sort.Search(numBins, func(b int) bool { return v.LessThanOrEqual(edges[b+1]) })
		if bin < numBins {
			scores[i] = labels[bin]
		}
	}
	return scores
}

// firstRanks ranks values from 1 to n in ascending order, ties broken by
// position in the input
func firstRanks(values []decimal.Decimal) []decimal.Decimal {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]].LessThan(values[order[b]]) })

	ranks := make([]decimal.Decimal, len(values))
	for rank, i := range order {
		ranks[i] = decimal.NewFromInt(int64(rank + 1))
	}
	return ranks
}
