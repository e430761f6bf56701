package loyalty

import (
	"sort"
	"strings"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"
)

var one = decimal.NewFromInt(1)

// PromotionLookup resolves the points multiplier of the calendar promotions
// active on a date. It returns one when no promotion is active.
type PromotionLookup interface {
	Multiplier(date time.Time) decimal.Decimal
}

// Calculator computes loyalty points. It holds read-only lookup tables and is
// safe for concurrent use.
type Calculator struct {
	rules               map[string]*snapshot.LoyaltyRule
	categoryMultipliers map[string]decimal.Decimal
	applyCategory       bool
	applyPromotions     bool
	quantityTiers       []QuantityTier
	redemptionRate      decimal.Decimal
	tiers               TierThresholds
	workers             int
	log                 *logger.Logger
}

// NewCalculator creates a calculator for one run over the given rule table
func NewCalculator(cfg config.LoyaltyConfig, rules map[string]*snapshot.LoyaltyRule, log *logger.Logger) *Calculator {
	quantityTiers := lo.Map(cfg.QuantityTiers, func(q config.QuantityTierConfig, _ int) QuantityTier {
		return QuantityTier{MinQuantity: q.MinQuantity, Multiplier: decimal.NewFromFloat(q.Multiplier)}
	})
	sort.SliceStable(quantityTiers, func(i, j int) bool {
		return quantityTiers[i].MinQuantity > quantityTiers[j].MinQuantity
	})

	if rules == nil {
		rules = make(map[string]*snapshot.LoyaltyRule)
	}

	return &Calculator{
		rules: rules,
		categoryMultipliers: lo.MapEntries(cfg.CategoryMultipliers, func(category string, m float64) (string, decimal.Decimal) {
			return strings.ToLower(category), decimal.NewFromFloat(m)
		}),
		applyCategory:   cfg.ApplyCategoryMultipliers,
		applyPromotions: cfg.ApplyCalendarPromotions,
		quantityTiers:   quantityTiers,
		redemptionRate:  decimal.NewFromFloat(cfg.RedemptionRate),
		tiers: TierThresholds{
			Platinum: decimal.NewFromFloat(cfg.Tiers.Platinum),
			Gold:     decimal.NewFromFloat(cfg.Tiers.Gold),
			Silver:   decimal.NewFromFloat(cfg.Tiers.Silver),
		},
		workers: cfg.Workers,
		log:     log,
	}
}

// RuleMultiplier returns the multiplier of a loyalty rule. Unknown rules
// earn at the base rate.
func (c *Calculator) RuleMultiplier(ruleID string) (decimal.Decimal, bool) {
	if r, ok := c.rules[ruleID]; ok {
		return r.Multiplier, true
	}
	return one, false
}

// CategoryMultiplier returns one unless category multipliers are enabled
// and the category has an entry. Categories match case-insensitively since
// config map keys are lowercased on load.
func (c *Calculator) CategoryMultiplier(category string) decimal.Decimal {
	if !c.applyCategory {
		return one
	}
	if m, ok := c.categoryMultipliers[strings.ToLower(category)]; ok {
		return m
	}
	return one
}

// QuantityMultiplier returns the multiplier of the highest quantity tier reached
func (c *Calculator) QuantityMultiplier(quantity int) decimal.Decimal {
	for _, t := range c.quantityTiers {
		if quantity >= t.MinQuantity {
			return t.Multiplier
		}
	}
	return one
}

// LinePoints applies the points formula to one line:
// line_total x rule x category x promotion x quantity, rounded to 2 places
func (c *Calculator) LinePoints(p LinePointsParams) decimal.Decimal {
	ruleMult, _ := c.RuleMultiplier(p.RuleID)
	promoMult := p.PromoMultiplier
	if promoMult.IsZero() {
		promoMult = one
	}

	return p.LineTotal.
		Mul(ruleMult).
		Mul(c.CategoryMultiplier(p.Category)).
		Mul(promoMult).
		Mul(c.QuantityMultiplier(p.Quantity)).
		Round(2)
}

// CalculateLines computes the points of every line of the snapshot in input
// order. promotions may be nil.
func (c *Calculator) CalculateLines(idx *snapshot.Index, promotions PromotionLookup) []LinePoints {
	unknown := make(map[string]struct{})
	for _, li := range idx.Lines {
		if _, ok := c.rules[li.RuleID]; !ok && li.RuleID != "" {
			c.log.WarnOnce(unknown, li.RuleID, "line item references an unknown loyalty rule, using multiplier 1.0",
				"rule_id", li.RuleID)
		}
	}

	compute := func(li **snapshot.LineItem) LinePoints {
		return c.linePoints(idx, *li, promotions)
	}

	if c.workers > 1 {
		mapper := iter.Mapper[*snapshot.LineItem, LinePoints]{MaxGoroutines: c.workers}
		return mapper.Map(idx.Lines, compute)
	}

	result := make([]LinePoints, len(idx.Lines))
	for i := range idx.Lines {
		result[i] = compute(&idx.Lines[i])
	}
	return result
}

func (c *Calculator) linePoints(idx *snapshot.Index, li *snapshot.LineItem, promotions PromotionLookup) LinePoints {
	tx := idx.Transactions[li.TransactionID]
	category, _ := idx.Category(li.SKU)

	promoMult := one
	if c.applyPromotions && promotions != nil {
		promoMult = promotions.Multiplier(tx.Date)
	}

	ruleMult, _ := c.RuleMultiplier(li.RuleID)
	ruleName := ""
	if r, ok := c.rules[li.RuleID]; ok {
		ruleName = r.Name
	}

	return LinePoints{
		TransactionID:      li.TransactionID,
		CustomerID:         tx.CustomerID,
		StoreID:            tx.StoreID,
		Date:               tx.Date,
		SKU:                li.SKU,
		Category:           category,
		Quantity:           li.Quantity,
		LineTotal:          li.LineTotal,
		RuleID:             li.RuleID,
		RuleName:           ruleName,
		RuleMultiplier:     ruleMult,
		CategoryMultiplier: c.CategoryMultiplier(category),
		PromoMultiplier:    promoMult,
		QuantityMultiplier: c.QuantityMultiplier(li.Quantity),
		Points: c.LinePoints(LinePointsParams{
			Quantity:        li.Quantity,
			LineTotal:       li.LineTotal,
			RuleID:          li.RuleID,
			Category:        category,
			PromoMultiplier: promoMult,
		}),
	}
}
