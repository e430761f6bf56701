package rules

import (
	"os"
	"strings"
	"time"

	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPromotions is the stock promotion calendar
func DefaultPromotions() []PromotionDefinition {
	return []PromotionDefinition{
		{
			Name:            "New Year Bonanza",
			Description:     "New Year, New Rewards! 25% off + 3x points on all products",
			Discount:        decimal.RequireFromString("0.25"),
			BonusMultiplier: decimal.RequireFromString("3.0"),
			Window:          Window{Kind: types.CalendarWindowFixed, Month: time.January, StartDay: 1, EndDay: 5},
		},
		{
			Name:            "Republic Day Special",
			Description:     "Celebrate India! 15% off + 2x points on all products",
			Discount:        decimal.RequireFromString("0.15"),
			BonusMultiplier: decimal.RequireFromString("2.0"),
			Window:          Window{Kind: types.CalendarWindowFixed, Month: time.January, StartDay: 20, EndDay: 26},
		},
		{
			Name:            "Independence Day Sale",
			Description:     "Freedom Sale! 20% off + 2.5x points on all products",
			Discount:        decimal.RequireFromString("0.20"),
			BonusMultiplier: decimal.RequireFromString("2.5"),
			Window:          Window{Kind: types.CalendarWindowFixed, Month: time.August, StartDay: 10, EndDay: 15},
		},
		{
			Name:            "Diwali Festival",
			Description:     "Diwali Lights! 30% off + 3.5x points on all products",
			Discount:        decimal.RequireFromString("0.30"),
			BonusMultiplier: decimal.RequireFromString("3.5"),
			Window:          Window{Kind: types.CalendarWindowFixed, Month: time.October, StartDay: 25, EndDay: 31},
		},
		{
			Name:            "Black Friday Mega Sale",
			Description:     "Black Friday! 40% off + 4x points on selected items",
			Discount:        decimal.RequireFromString("0.40"),
			BonusMultiplier: decimal.RequireFromString("4.0"),
			Window: Window{
				Kind:       types.CalendarWindowNthWeekday,
				Month:      time.November,
				Weekday:    time.Friday,
				N:          4,
				DaysBefore: 1,
				DaysAfter:  1,
			},
		},
	}
}

// Validate checks that the window describes a real date range
func (w Window) Validate() error {
	if err := w.Kind.Validate(); err != nil {
		return err
	}
	if w.Month < time.January || w.Month > time.December {
		return ierr.NewErrorf("invalid month %d", w.Month).
			WithHint("Window month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}

	switch w.Kind {
	case types.CalendarWindowFixed:
		last := daysIn(w.Month)
		if w.StartDay < 1 || w.EndDay > last || w.StartDay > w.EndDay {
			return ierr.NewErrorf("invalid day range %d-%d", w.StartDay, w.EndDay).
				WithHintf("Window days must satisfy 1 <= start <= end <= %d", last).
				Mark(ierr.ErrValidation)
		}
	case types.CalendarWindowNthWeekday:
		if w.N != -1 && (w.N < 1 || w.N > 5) {
			return ierr.NewErrorf("invalid occurrence %d", w.N).
				WithHint("Occurrence must be between 1 and 5, or -1 for the last one").
				Mark(ierr.ErrValidation)
		}
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			return ierr.NewErrorf("invalid weekday %d", w.Weekday).
				WithHint("Weekday must be between 0 (Sunday) and 6 (Saturday)").
				Mark(ierr.ErrValidation)
		}
		if w.DaysBefore < 0 || w.DaysAfter < 0 {
			return ierr.NewError("negative window padding").
				WithHint("Days before and after must not be negative").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// daysIn returns the largest day number of the month in a leap year
func daysIn(m time.Month) int {
	return time.Date(2024, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Range returns the first and last day of the window in the given year
func (w Window) Range(year int) (time.Time, time.Time) {
	if w.Kind == types.CalendarWindowNthWeekday {
		anchor := types.NthWeekdayOfMonth(year, w.Month, w.Weekday, w.N)
		return anchor.AddDate(0, 0, -w.DaysBefore), anchor.AddDate(0, 0, w.DaysAfter)
	}

	// Feb 29 falls back to Feb 28 in non leap years, for both ends
	last := time.Date(year, w.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	start := time.Date(year, w.Month, min(w.StartDay, last), 0, 0, 0, 0, time.UTC)
	return start, time.Date(year, w.Month, min(w.EndDay, last), 0, 0, 0, 0, time.UTC)
}

// Contains reports whether date falls inside the window, returning the
// matching range. Windows padded across a year boundary are handled by
// checking the neighbouring years.
func (w Window) Contains(date time.Time) (time.Time, time.Time, bool) {
	d := types.TruncateToDay(date)
	for _, year := range []int{d.Year(), d.Year() - 1, d.Year() + 1} {
		start, end := w.Range(year)
		if !d.Before(start) && !d.After(end) {
			return start, end, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// Calendar evaluates promotion definitions uniformly
type Calendar struct {
	definitions []PromotionDefinition
	stacking    types.PromotionStackingPolicy
}

func NewCalendar(definitions []PromotionDefinition, stacking types.PromotionStackingPolicy) (*Calendar, error) {
	if err := stacking.Validate(); err != nil {
		return nil, err
	}
	for _, d := range definitions {
		if err := d.Window.Validate(); err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Promotion %q has an invalid window", d.Name).
				Mark(ierr.ErrValidation)
		}
		if d.Discount.IsNegative() || d.Discount.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ierr.NewErrorf("invalid discount %s for promotion %q", d.Discount, d.Name).
				WithHint("Promotion discount must be a fraction between 0 and 1").
				Mark(ierr.ErrValidation)
		}
		if !d.BonusMultiplier.IsPositive() {
			return nil, ierr.NewErrorf("invalid bonus multiplier %s for promotion %q", d.BonusMultiplier, d.Name).
				WithHint("Promotion bonus multiplier must be positive").
				Mark(ierr.ErrValidation)
		}
	}
	return &Calendar{definitions: definitions, stacking: stacking}, nil
}

// Definitions returns the promotions in definition order
func (c *Calendar) Definitions() []PromotionDefinition {
	return c.definitions
}

// Active returns every promotion running on date, in definition order. No
// stacking is applied.
func (c *Calendar) Active(date time.Time) []ActivePromotion {
	active := make([]ActivePromotion, 0)
	for _, d := range c.definitions {
		start, end, ok := d.Window.Contains(date)
		if !ok {
			continue
		}
		active = append(active, ActivePromotion{
			Name:            d.Name,
			Description:     d.Description,
			Discount:        d.Discount,
			BonusMultiplier: d.BonusMultiplier,
			StartDate:       start,
			EndDate:         end,
		})
	}
	return active
}

// Resolve combines simultaneously active promotions into one discount and
// one points multiplier. With no active promotion it returns 0 and 1.
//
// largest_discount applies the promotion with the largest discount, the
// first defined one winning ties. multiply keeps the largest discount and
// multiplies every bonus multiplier.
func Resolve(active []ActivePromotion, policy types.PromotionStackingPolicy) (decimal.Decimal, decimal.Decimal) {
	if len(active) == 0 {
		return decimal.Zero, decimal.NewFromInt(1)
	}

	best := active[0]
	for _, p := range active[1:] {
		if p.Discount.GreaterThan(best.Discount) {
			best = p
		}
	}

	if policy == types.PromotionStackingMultiply {
		multiplier := decimal.NewFromInt(1)
		for _, p := range active {
			multiplier = multiplier.Mul(p.BonusMultiplier)
		}
		return best.Discount, multiplier
	}
	return best.Discount, best.BonusMultiplier
}

// Multiplier returns the resolved points multiplier on date
func (c *Calendar) Multiplier(date time.Time) decimal.Decimal {
	_, multiplier := Resolve(c.Active(date), c.stacking)
	return multiplier
}

type calendarFile struct {
	Promotions []promotionEntry `yaml:"promotions"`
}

type promotionEntry struct {
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	Discount        float64 `yaml:"discount"`
	BonusMultiplier float64 `yaml:"bonus_multiplier"`
	Kind            string  `yaml:"kind"`
	Month           int     `yaml:"month"`
	StartDay        int     `yaml:"start_day"`
	EndDay          int     `yaml:"end_day"`
	Weekday         string  `yaml:"weekday"`
	N               int     `yaml:"n"`
	DaysBefore      int     `yaml:"days_before"`
	DaysAfter       int     `yaml:"days_after"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseCalendar decodes promotion definitions from YAML
func ParseCalendar(data []byte) ([]PromotionDefinition, error) {
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Promotion calendar is not valid YAML").
			Mark(ierr.ErrValidation)
	}

	definitions := make([]PromotionDefinition, 0, len(file.Promotions))
	for _, p := range file.Promotions {
		w := Window{
			Kind:       types.CalendarWindowKind(p.Kind),
			Month:      time.Month(p.Month),
			StartDay:   p.StartDay,
			EndDay:     p.EndDay,
			N:          p.N,
			DaysBefore: p.DaysBefore,
			DaysAfter:  p.DaysAfter,
		}
		if w.Kind == types.CalendarWindowNthWeekday {
			wd, ok := weekdays[strings.ToLower(p.Weekday)]
			if !ok {
				return nil, ierr.NewErrorf("unknown weekday %q", p.Weekday).
					WithHintf("Promotion %q must name a weekday like friday", p.Name).
					Mark(ierr.ErrValidation)
			}
			w.Weekday = wd
		}

		definitions = append(definitions, PromotionDefinition{
			Name:            p.Name,
			Description:     p.Description,
			Discount:        decimal.NewFromFloat(p.Discount),
			BonusMultiplier: decimal.NewFromFloat(p.BonusMultiplier),
			Window:          w,
		})
	}
	return definitions, nil
}

// LoadCalendar reads promotion definitions from a YAML file
func LoadCalendar(path string) ([]PromotionDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not read promotion calendar %s", path).
			Mark(ierr.ErrNotFound)
	}
	return ParseCalendar(data)
}
