package loyalty

import (
	"sort"

	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const topEarnersLimit = 10

// BuildReport summarizes balances
func BuildReport(balances []CustomerBalance) Report {
	r := Report{
		TotalMembers:            len(balances),
		TotalPointsIssued:       decimal.Zero,
		TotalEstimatedRedeemed:  decimal.Zero,
		TotalOutstandingBalance: decimal.Zero,
		AverageBalance:          decimal.Zero,
	}

	for _, b := range balances {
		r.TotalPointsIssued = r.TotalPointsIssued.Add(b.TotalPointsEarned)
		r.TotalEstimatedRedeemed = r.TotalEstimatedRedeemed.Add(b.EstimatedRedeemedPoints)
		r.TotalOutstandingBalance = r.TotalOutstandingBalance.Add(b.CurrentBalance)
	}
	if len(balances) > 0 {
		r.AverageBalance = r.TotalOutstandingBalance.Div(decimal.NewFromInt(int64(len(balances)))).Round(2)
	}

	counts := lo.CountValuesBy(balances, func(b CustomerBalance) types.LoyaltyTier { return b.LoyaltyTier })
	r.TierDistribution = lo.Map(types.LoyaltyTiers(), func(t types.LoyaltyTier, _ int) TierCount {
		return TierCount{Tier: t, Count: counts[t]}
	})

	top := make([]CustomerBalance, len(balances))
	copy(top, balances)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TotalPointsEarned.GreaterThan(top[j].TotalPointsEarned)
	})
	if len(top) > topEarnersLimit {
		top = top[:topEarnersLimit]
	}
	r.TopEarners = top

	return r
}
