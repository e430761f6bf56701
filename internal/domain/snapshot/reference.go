package snapshot

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
)

// Clock returns the current time
type Clock func() time.Time

// ResolveReferenceDate picks the date every stage of a run treats as "now".
// The result is always truncated to a UTC day.
//
// With the latest_transaction policy an empty snapshot has no latest date, in
// which case the clock is used and a warning logged.
func ResolveReferenceDate(idx *Index, policy types.ReferenceDatePolicy, clock Clock, log *logger.Logger) time.Time {
	if clock == nil {
		clock = time.Now
	}

	if policy == types.ReferenceDateWallClock {
		return types.TruncateToDay(clock())
	}

	var latest time.Time
	for _, t := range idx.Headers {
		if t.Date.After(latest) {
			latest = t.Date
		}
	}

	if latest.IsZero() {
		now := types.TruncateToDay(clock())
		log.Warnw("no transactions to derive the reference date from, using the clock",
			"reference_date", types.FormatDate(now))
		return now
	}

	return types.TruncateToDay(latest)
}
