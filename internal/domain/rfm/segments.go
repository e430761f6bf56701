package rfm

import (
	"github.com/retailpulse/retailpulse/internal/config"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
)

// Bound is an inclusive score range. Zero leaves a side open.
type Bound struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

func (b Bound) Contains(score int) bool {
	if b.Min > 0 && score < b.Min {
		return false
	}
	if b.Max > 0 && score > b.Max {
		return false
	}
	return true
}

func atLeast(n int) Bound { return Bound{Min: n} }
func atMost(n int) Bound  { return Bound{Max: n} }

var anyScore = Bound{}

// SegmentRule is one row of an ordered first-match decision table
type SegmentRule struct {
	Segment types.Segment `json:"segment"`
	R       Bound         `json:"r"`
	F       Bound         `json:"f"`
	M       Bound         `json:"m"`
}

func (r SegmentRule) Matches(rScore, fScore, mScore int) bool {
	return r.R.Contains(rScore) && r.F.Contains(fScore) && r.M.Contains(mScore)
}

// SegmentTable classifies score tuples. Rules are evaluated in order and the
// first match wins; when none matches the fallback label is used.
type SegmentTable struct {
	Policy   types.SegmentationPolicy
	Rules    []SegmentRule
	Fallback types.Segment
}

func (t SegmentTable) Classify(rScore, fScore, mScore int) types.Segment {
	for _, rule := range t.Rules {
		if rule.Matches(rScore, fScore, mScore) {
			return rule.Segment
		}
	}
	return t.Fallback
}

// DefaultSegmentTable returns the stock decision table of the policy
func DefaultSegmentTable(policy types.SegmentationPolicy) SegmentTable {
	if policy == types.SegmentationPolicySevenBucket {
		return SegmentTable{
			Policy: policy,
			Rules: []SegmentRule{
				{Segment: types.SegmentChampions, R: atLeast(4), F: atLeast(4), M: atLeast(4)},
				{Segment: types.SegmentLoyalCustomers, R: atLeast(3), F: atLeast(4), M: atLeast(3)},
				{Segment: types.SegmentAtRiskCustomers, R: atMost(2), F: atLeast(3), M: atLeast(4)},
				{Segment: types.SegmentAtRiskLost, R: atMost(2), F: atLeast(4), M: atLeast(3)},
				{Segment: types.SegmentPotentialLoyalists, R: atLeast(4), F: atMost(2), M: atLeast(3)},
				{Segment: types.SegmentNewCustomers, R: atLeast(4), F: atMost(2), M: atMost(2)},
			},
			Fallback: types.SegmentRiskCustomers,
		}
	}

	return SegmentTable{
		Policy: types.SegmentationPolicySixBucket,
		Rules: []SegmentRule{
			{Segment: types.SegmentChampion, R: atLeast(4), F: atLeast(4), M: atLeast(4)},
			{Segment: types.SegmentLoyalist, R: atLeast(3), F: atLeast(3), M: atLeast(3)},
			{Segment: types.SegmentAtRisk, R: atMost(2), F: atLeast(3), M: anyScore},
			{Segment: types.SegmentNew, R: atLeast(4), F: atMost(2), M: atMost(2)},
			{Segment: types.SegmentLost, R: atMost(2), F: atMost(2), M: anyScore},
		},
		Fallback: types.SegmentPotential,
	}
}

// NewSegmentTable builds the decision table of a deployment. Configured rules
// replace the stock thresholds but must use labels of the selected policy.
func NewSegmentTable(cfg config.RFMConfig) (SegmentTable, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return SegmentTable{}, err
	}

	table := DefaultSegmentTable(cfg.Policy)
	if len(cfg.Rules) == 0 {
		return table, nil
	}

	allowed := cfg.Policy.Segments()
	rules := make([]SegmentRule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		segment := types.Segment(rc.Segment)
		if !lo.Contains(allowed, segment) {
			return SegmentTable{}, ierr.NewErrorf("segment %q is not part of the %s policy", rc.Segment, cfg.Policy).
				WithHint("Segment rules must use the labels of the selected segmentation policy").
				WithReportableDetails(map[string]any{
					"segment": rc.Segment,
					"policy":  cfg.Policy,
					"allowed": allowed,
				}).
				Mark(ierr.ErrValidation)
		}
		rules = append(rules, SegmentRule{
			Segment: segment,
			R:       Bound{Min: rc.RMin, Max: rc.RMax},
			F:       Bound{Min: rc.FMin, Max: rc.FMax},
			M:       Bound{Min: rc.MMin, Max: rc.MMax},
		})
	}
	table.Rules = rules
	return table, nil
}
