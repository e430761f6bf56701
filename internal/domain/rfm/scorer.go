package rfm

import (
	"sort"
	"time"

	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Record is the RFM profile of one customer with purchase history
type Record struct {
	CustomerID     string               `json:"customer_id"`
	Recency        int                  `json:"recency"`
	Frequency      int                  `json:"frequency"`
	Monetary       decimal.Decimal      `json:"monetary"`
	RScore         int                  `json:"r_score"`
	FScore         int                  `json:"f_score"`
	MScore         int                  `json:"m_score"`
	Segment        types.Segment        `json:"segment"`
	RetentionClass types.RetentionClass `json:"retention_class"`
}

// SegmentCount is the number of customers in a segment
type SegmentCount struct {
	Segment types.Segment `json:"segment"`
	Count   int           `json:"count"`
}

// Scorer turns customer metrics into scored and segmented records
type Scorer struct {
	table SegmentTable
	log   *logger.Logger
}

func NewScorer(cfg config.RFMConfig, log *logger.Logger) (*Scorer, error) {
	table, err := NewSegmentTable(cfg)
	if err != nil {
		return nil, err
	}
	return &Scorer{table: table, log: log}, nil
}

// Policy returns the segmentation policy in use
func (s *Scorer) Policy() types.SegmentationPolicy {
	return s.table.Policy
}

// Score computes one record per customer, preserving input order. Recency is
// measured in whole days from the last purchase to referenceDate and never
// negative.
func (s *Scorer) Score(customers []metrics.CustomerMetrics, referenceDate time.Time) []Record {
	records := make([]Record, len(customers))
	if len(customers) == 0 {
		return records
	}

	recency := make([]decimal.Decimal, len(customers))
	frequency := make([]decimal.Decimal, len(customers))
	monetary := make([]decimal.Decimal, len(customers))

	for i, c := range customers {
		days := types.DaysBetween(c.LastPurchaseDate, referenceDate)
		if days < 0 {
			s.log.Warnw("last purchase after the reference date, recency clamped to zero",
				"customer_id", c.CustomerID,
				"last_purchase_date", types.FormatDate(c.LastPurchaseDate),
				"reference_date", types.FormatDate(referenceDate))
			days = 0
		}

		records[i] = Record{
			CustomerID: c.CustomerID,
			Recency:    days,
			Frequency:  c.Frequency,
			Monetary:   c.Monetary,
		}
		recency[i] = decimal.NewFromInt(int64(days))
		frequency[i] = decimal.NewFromInt(int64(c.Frequency))
		monetary[i] = c.Monetary
	}

	r := quantileBins(recency, recency, descendingLabels)
	f := quantileBins(firstRanks(frequency), frequency, ascendingLabels)
	m := quantileBins(firstRanks(monetary), monetary, ascendingLabels)

	for _, axis := range []struct {
		name string
		bins binning
	}{{"recency", r}, {"frequency", f}, {"monetary", m}} {
		if axis.bins.fellBack {
			s.log.Warnw("quantile binning degenerate, using equal-width bins",
				"axis", axis.name,
				"customers", len(customers))
		}
	}

	for i := range records {
		records[i].RScore = scoreOrNeutral(r.scores, i)
		records[i].FScore = scoreOrNeutral(f.scores, i)
		records[i].MScore = scoreOrNeutral(m.scores, i)
		records[i].Segment = s.table.Classify(records[i].RScore, records[i].FScore, records[i].MScore)
		records[i].RetentionClass = records[i].Segment.RetentionClass()
	}

	return records
}

func scoreOrNeutral(scores []int, i int) int {
	if i >= len(scores) || scores[i] < 1 || scores[i] > numBins {
		return neutralScore
	}
	return scores[i]
}

// Distribution counts customers per segment in decision table order,
// including empty segments
func (s *Scorer) Distribution(records []Record) []SegmentCount {
	counts := lo.CountValuesBy(records, func(r Record) types.Segment { return r.Segment })
	return lo.Map(s.table.Policy.Segments(), func(seg types.Segment, _ int) SegmentCount {
		return SegmentCount{Segment: seg, Count: counts[seg]}
	})
}

// AtRisk returns the records in the at-risk retention class, highest
// monetary value first
func AtRisk(records []Record) []Record {
	atRisk := lo.Filter(records, func(r Record, _ int) bool {
		return r.RetentionClass == types.RetentionClassAtRisk
	})
	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].Monetary.GreaterThan(atRisk[j].Monetary)
	})
	return atRisk
}
