package service

import (
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/rfm"
	"github.com/retailpulse/retailpulse/internal/domain/rules"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/testutil"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PipelineServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PipelineService
}

func TestPipelineService(t *testing.T) {
	suite.Run(t, new(PipelineServiceSuite))
}

func (s *PipelineServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = s.newService()
}

func (s *PipelineServiceSuite) newService() PipelineService {
	params := NewServiceParams(s.GetLogger(), s.GetConfig(), s.GetSource())
	params.Clock = s.GetClock()
	svc, err := NewPipelineService(params)
	s.Require().NoError(err)
	return svc
}

func (s *PipelineServiceSuite) TestRun_SampleDataset() {
	result, err := s.service.Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)

	s.NotEmpty(result.RunID)
	s.Equal(testutil.SampleReferenceDate, result.ReferenceDate)
	s.Equal(types.SegmentationPolicySixBucket, result.Policy)

	// C006 never bought
	customerIDs := lo.Map(result.RFM, func(r rfm.Record, _ int) string { return r.CustomerID })
	s.Equal([]string{"C001", "C002", "C003", "C004", "C005"}, customerIDs)
	s.Len(result.Balances, 5)
	s.Len(result.Recommendations, 5)

	allowed := result.Policy.Segments()
	for _, r := range result.RFM {
		s.Contains(allowed, r.Segment)
		for _, score := range []int{r.RScore, r.FScore, r.MScore} {
			s.GreaterOrEqual(score, 1)
			s.LessOrEqual(score, 5)
		}
	}

	rate := decimal.NewFromFloat(0.2)
	for _, b := range result.Balances {
		s.True(b.EstimatedRedeemedPoints.Equal(b.TotalPointsEarned.Mul(rate)), b.CustomerID)
		s.True(b.CurrentBalance.Equal(b.TotalPointsEarned.Sub(b.EstimatedRedeemedPoints)), b.CustomerID)
	}

	total := lo.Reduce(result.Metrics.Products, func(acc int, p metrics.ProductRollup, _ int) int { return acc + p.UnitsSold }, 0)
	s.Equal(48, total)
	s.Len(result.Products, 6)

	s.Equal([]string{"Black Friday Mega Sale"}, lo.Map(result.ActivePromotions, func(p rules.ActivePromotion, _ int) string { return p.Name }))
	s.Len(result.CalendarUplift, 5)
	s.NotEmpty(result.Effectiveness)
	s.NotEmpty(result.Suggestions)
}

func (s *PipelineServiceSuite) TestRun_InactiveCustomerOffer() {
	result, err := s.service.Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)

	inactive, ok := lo.Find(result.Inactive, func(ic rules.InactiveCustomer) bool { return ic.CustomerID == "C002" })
	s.Require().True(ok)
	s.Equal(400, inactive.DaysInactive)
	s.Equal(4000, inactive.BonusPointsOffer)

	rec, ok := lo.Find(result.Recommendations, func(r rules.Recommendation) bool { return r.CustomerID == "C002" })
	s.Require().True(ok)
	s.Equal(types.RecommendationReasonInactivity, rec.Reason)
	s.Equal(4000, rec.BonusPoints)
}

func (s *PipelineServiceSuite) TestRun_CalendarPromotionPoints() {
	result, err := s.service.Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)

	// Black Friday quadruples the points of T008
	entry, ok := lo.Find(result.History, func(h loyalty.HistoryEntry) bool { return h.TransactionID == "T008" })
	s.Require().True(ok)
	s.True(testutil.Dec("48").Equal(entry.Points), entry.Points.String())

	s.GetConfig().Analytics.Loyalty.ApplyCalendarPromotions = false
	result, err = s.newService().Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)

	entry, ok = lo.Find(result.History, func(h loyalty.HistoryEntry) bool { return h.TransactionID == "T008" })
	s.Require().True(ok)
	s.True(testutil.Dec("12").Equal(entry.Points), entry.Points.String())
}

func (s *PipelineServiceSuite) TestRun_TopCustomers() {
	result, err := s.service.Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)
	s.Require().Len(result.TopCustomers, 5)
	for i := 1; i < len(result.TopCustomers); i++ {
		s.False(result.TopCustomers[i].TotalSpend.GreaterThan(result.TopCustomers[i-1].TotalSpend))
	}

	s.GetConfig().Analytics.Metrics.TopCustomers = 2
	s.service = s.newService()
	limited, err := s.service.Run(s.GetContext(), testutil.SampleDataset())
	s.Require().NoError(err)
	ids := func(top []metrics.TopCustomer) []string {
		return lo.Map(top, func(c metrics.TopCustomer, _ int) string { return c.CustomerID })
	}
	s.Equal(ids(result.TopCustomers[:2]), ids(limited.TopCustomers))
}

func (s *PipelineServiceSuite) TestRun_Deterministic() {
	encode := func() string {
		ctx := types.WithRunID(s.GetContext(), "run_fixed")
		result, err := s.service.Run(ctx, testutil.SampleDataset())
		s.Require().NoError(err)
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(result)
		s.Require().NoError(err)
		return out
	}

	first := encode()
	s.Equal(first, encode())

	s.GetConfig().Analytics.Loyalty.Workers = 4
	s.service = s.newService()
	s.Equal(first, encode())
}

func (s *PipelineServiceSuite) TestRun_EmptyTransactions() {
	ds := testutil.NewDatasetBuilder().
		Customer("C001", testutil.Date(2024, time.January, 1)).
		Product("SKU-1", "Grocery", "1.00").
		Build()

	result, err := s.service.Run(s.GetContext(), ds)
	s.Require().NoError(err)

	s.Empty(result.RFM)
	s.Empty(result.Balances)
	s.Empty(result.Recommendations)
	s.Empty(result.Inactive)
	s.Empty(result.Effectiveness)
	s.Len(result.Products, 1)
	// no transactions, the clock gives the reference date
	s.Equal(testutil.SampleReferenceDate, result.ReferenceDate)
}

func (s *PipelineServiceSuite) TestRun_MissingRequiredTable() {
	ds := testutil.SampleDataset()
	ds.LineItems = nil

	_, err := s.service.Run(s.GetContext(), ds)
	s.Error(err)
	s.True(ierr.IsMissingInput(err))

	_, err = s.service.Run(s.GetContext(), nil)
	s.True(ierr.IsMissingInput(err))
}

func (s *PipelineServiceSuite) TestRun_OptionalTablesAbsent() {
	ds := testutil.SampleDataset()
	ds.Stores = types.NoTable[snapshot.Store]()
	ds.LoyaltyRules = types.NoTable[snapshot.LoyaltyRule]()

	result, err := s.service.Run(s.GetContext(), ds)
	s.Require().NoError(err)
	s.Len(result.Balances, 5)

	for _, e := range result.Effectiveness {
		s.NotEqual("Health Boost", e.Promotion)
	}
}

func (s *PipelineServiceSuite) TestRun_CancelledContext() {
	ctx, cancel := context.WithCancel(s.GetContext())
	cancel()

	_, err := s.service.Run(ctx, testutil.SampleDataset())
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PipelineServiceSuite) TestRunFromSource() {
	result, err := s.service.RunFromSource(s.GetContext())
	s.Require().NoError(err)
	s.Len(result.Balances, 5)
	s.Equal(1, s.GetSource().Loads())

	s.GetSource().SetError(ierr.NewError("connection refused").Mark(ierr.ErrDatabase))
	_, err = s.service.RunFromSource(s.GetContext())
	s.True(ierr.IsDatabase(err))
}

func (s *PipelineServiceSuite) TestRunFromSource_NoSource() {
	params := NewServiceParams(s.GetLogger(), s.GetConfig(), nil)
	svc, err := NewPipelineService(params)
	s.Require().NoError(err)

	_, err = svc.RunFromSource(s.GetContext())
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PipelineServiceSuite) TestActivePromotions() {
	active := s.service.ActivePromotions(testutil.Date(2024, time.January, 22))
	s.Require().Len(active, 1)
	s.Equal("Republic Day Special", active[0].Name)

	s.Empty(s.service.ActivePromotions(testutil.Date(2024, time.March, 3)))
}

func (s *PipelineServiceSuite) TestNewPipelineService_InvalidConfig() {
	s.GetConfig().Analytics.Rules.PromotionStacking = "sum"
	_, err := NewPipelineService(NewServiceParams(s.GetLogger(), s.GetConfig(), nil))
	s.True(ierr.IsValidation(err))

	_, err = NewPipelineService(ServiceParams{Logger: s.GetLogger()})
	s.True(ierr.IsValidation(err))
}
