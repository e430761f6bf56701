package rules

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/types"
)

// InactiveCustomers returns the customers whose last purchase is at least
// inactive_days before referenceDate, in balance order. The bonus grows by
// a fixed number of points per step of inactivity and has no ceiling.
func (e *Engine) InactiveCustomers(balances []loyalty.CustomerBalance, referenceDate time.Time) []InactiveCustomer {
	inactive := make([]InactiveCustomer, 0)
	for _, b := range balances {
		days := types.DaysBetween(b.LastPurchaseDate, referenceDate)
		if days < 0 {
			days = 0
		}
		if days < e.cfg.InactiveDays {
			continue
		}

		inactive = append(inactive, InactiveCustomer{
			CustomerID:       b.CustomerID,
			LastPurchaseDate: b.LastPurchaseDate,
			DaysInactive:     days,
			BonusPointsOffer: e.InactivityBonus(days),
			CurrentBalance:   b.CurrentBalance,
		})
	}
	return inactive
}

// InactivityBonus is floor(days / step) x points per step
func (e *Engine) InactivityBonus(daysInactive int) int {
	if daysInactive <= 0 || e.cfg.InactiveBonusStepDays <= 0 {
		return 0
	}
	return (daysInactive / e.cfg.InactiveBonusStepDays) * e.cfg.InactiveBonusPointsPerStep
}
