package rules

import (
	"github.com/retailpulse/retailpulse/internal/config"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

// SegmentOffer is the retention offer made to a retention class
type SegmentOffer struct {
	BonusPoints    int
	Discount       decimal.Decimal
	Recommendation string
	Action         string
}

// Engine derives discounts, win-back offers, recommendations and
// suggestions from the scored population. It holds no per run state.
type Engine struct {
	cfg      config.RulesConfig
	calendar *Calendar
	offers   map[types.RetentionClass]SegmentOffer
	log      *logger.Logger
}

// NewEngine builds the rules engine. The promotion calendar is read from
// cfg.CalendarFile when set, the stock calendar is used otherwise.
func NewEngine(cfg config.RulesConfig, log *logger.Logger) (*Engine, error) {
	definitions := DefaultPromotions()
	if cfg.CalendarFile != "" {
		loaded, err := LoadCalendar(cfg.CalendarFile)
		if err != nil {
			return nil, err
		}
		definitions = loaded
		log.Infow("loaded promotion calendar", "path", cfg.CalendarFile, "promotions", len(definitions))
	}

	calendar, err := NewCalendar(definitions, cfg.PromotionStacking)
	if err != nil {
		return nil, err
	}

	offers := make(map[types.RetentionClass]SegmentOffer, len(cfg.SegmentOffers))
	for class, o := range cfg.SegmentOffers {
		rc := types.RetentionClass(class)
		if err := rc.Validate(); err != nil {
			return nil, err
		}
		offers[rc] = SegmentOffer{
			BonusPoints:    o.BonusPoints,
			Discount:       decimal.NewFromFloat(o.Discount),
			Recommendation: o.Recommendation,
			Action:         o.Action,
		}
	}

	if cfg.VeryLowSalesPercentile > cfg.LowSalesPercentile {
		return nil, ierr.NewError("very low sales percentile above low sales percentile").
			WithHint("The very low sales percentile must not exceed the low sales percentile").
			WithReportableDetails(map[string]any{
				"low_sales_percentile":      cfg.LowSalesPercentile,
				"very_low_sales_percentile": cfg.VeryLowSalesPercentile,
			}).
			Mark(ierr.ErrValidation)
	}

	return &Engine{
		cfg:      cfg,
		calendar: calendar,
		offers:   offers,
		log:      log,
	}, nil
}

// Calendar returns the promotion calendar of the engine
func (e *Engine) Calendar() *Calendar {
	return e.calendar
}
