package types

import (
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/samber/lo"
)

// LoyaltyTier is a loyalty level derived from the current point balance
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "Bronze"
	LoyaltyTierSilver   LoyaltyTier = "Silver"
	LoyaltyTierGold     LoyaltyTier = "Gold"
	LoyaltyTierPlatinum LoyaltyTier = "Platinum"
)

// LoyaltyTiers lists tiers from highest to lowest
func LoyaltyTiers() []LoyaltyTier {
	return []LoyaltyTier{
		LoyaltyTierPlatinum,
		LoyaltyTierGold,
		LoyaltyTierSilver,
		LoyaltyTierBronze,
	}
}

// ReferenceDatePolicy decides which date is "now" for recency and inactivity
type ReferenceDatePolicy string

const (
	// ReferenceDateLatestTransaction uses the latest transaction date in the snapshot
	ReferenceDateLatestTransaction ReferenceDatePolicy = "latest_transaction"
	// ReferenceDateWallClock uses the current time
	ReferenceDateWallClock ReferenceDatePolicy = "wall_clock"
)

func (p ReferenceDatePolicy) Validate() error {
	allowedValues := []string{
		string(ReferenceDateLatestTransaction),
		string(ReferenceDateWallClock),
	}
	if !lo.Contains(allowedValues, string(p)) {
		return ierr.NewError("invalid reference date policy").
			WithHint("Invalid reference date policy").
			WithReportableDetails(map[string]any{
				"allowed": allowedValues,
				"policy":  p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
