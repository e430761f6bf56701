package types

import (
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/samber/lo"
)

// SegmentationPolicy selects the RFM labeling scheme used for a deployment
type SegmentationPolicy string

const (
	SegmentationPolicySixBucket   SegmentationPolicy = "six_bucket"
	SegmentationPolicySevenBucket SegmentationPolicy = "seven_bucket"
)

func (p SegmentationPolicy) Validate() error {
	allowedValues := []string{
		string(SegmentationPolicySixBucket),
		string(SegmentationPolicySevenBucket),
	}
	if !lo.Contains(allowedValues, string(p)) {
		return ierr.NewError("invalid segmentation policy").
			WithHint("Invalid segmentation policy").
			WithReportableDetails(map[string]any{
				"allowed": allowedValues,
				"policy":  p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Segments returns the closed label set of the policy in decision-table order
func (p SegmentationPolicy) Segments() []Segment {
	switch p {
	case SegmentationPolicySevenBucket:
		return []Segment{
			SegmentChampions,
			SegmentLoyalCustomers,
			SegmentAtRiskCustomers,
			SegmentAtRiskLost,
			SegmentPotentialLoyalists,
			SegmentNewCustomers,
			SegmentRiskCustomers,
		}
	default:
		return []Segment{
			SegmentChampion,
			SegmentLoyalist,
			SegmentAtRisk,
			SegmentNew,
			SegmentLost,
			SegmentPotential,
		}
	}
}

// Fallback is the label assigned when no decision rule matches
func (p SegmentationPolicy) Fallback() Segment {
	if p == SegmentationPolicySevenBucket {
		return SegmentRiskCustomers
	}
	return SegmentPotential
}

// Segment is a named RFM customer category
type Segment string

const (
	// six bucket labels
	SegmentChampion  Segment = "Champion"
	SegmentLoyalist  Segment = "Loyalist"
	SegmentAtRisk    Segment = "At Risk"
	SegmentNew       Segment = "New"
	SegmentLost      Segment = "Lost"
	SegmentPotential Segment = "Potential"

	// seven bucket labels
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentAtRiskCustomers    Segment = "At-Risk Customers"
	SegmentAtRiskLost         Segment = "At-Risk Lost"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentNewCustomers       Segment = "New Customers"
	SegmentRiskCustomers      Segment = "Risk Customers"
)

// RetentionClass groups segments of either policy that share a retention strategy
type RetentionClass string

const (
	RetentionClassVIP       RetentionClass = "vip"
	RetentionClassLoyal     RetentionClass = "loyal"
	RetentionClassAtRisk    RetentionClass = "at_risk"
	RetentionClassNew       RetentionClass = "new"
	RetentionClassLapsed    RetentionClass = "lapsed"
	RetentionClassPotential RetentionClass = "potential"
)

var segmentRetentionClass = map[Segment]RetentionClass{
	SegmentChampion:  RetentionClassVIP,
	SegmentLoyalist:  RetentionClassLoyal,
	SegmentAtRisk:    RetentionClassAtRisk,
	SegmentNew:       RetentionClassNew,
	SegmentLost:      RetentionClassLapsed,
	SegmentPotential: RetentionClassPotential,

	SegmentChampions:          RetentionClassVIP,
	SegmentLoyalCustomers:     RetentionClassLoyal,
	SegmentAtRiskCustomers:    RetentionClassAtRisk,
	SegmentAtRiskLost:         RetentionClassAtRisk,
	SegmentPotentialLoyalists: RetentionClassPotential,
	SegmentNewCustomers:       RetentionClassNew,
	SegmentRiskCustomers:      RetentionClassLapsed,
}

// RetentionClass returns the retention class of the segment. Unknown labels
// are treated as potential customers.
func (s Segment) RetentionClass() RetentionClass {
	if c, ok := segmentRetentionClass[s]; ok {
		return c
	}
	return RetentionClassPotential
}

// RetentionClasses lists every retention class
func RetentionClasses() []RetentionClass {
	return []RetentionClass{
		RetentionClassVIP,
		RetentionClassLoyal,
		RetentionClassAtRisk,
		RetentionClassNew,
		RetentionClassLapsed,
		RetentionClassPotential,
	}
}

func (c RetentionClass) Validate() error {
	allowedValues := lo.Map(RetentionClasses(), func(c RetentionClass, _ int) string { return string(c) })
	if !lo.Contains(allowedValues, string(c)) {
		return ierr.NewError("invalid retention class").
			WithHint("Invalid retention class").
			WithReportableDetails(map[string]any{
				"allowed": allowedValues,
				"class":   c,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
