package service

import (
	"context"
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/loyalty"
	"github.com/retailpulse/retailpulse/internal/domain/metrics"
	"github.com/retailpulse/retailpulse/internal/domain/promotion"
	"github.com/retailpulse/retailpulse/internal/domain/rfm"
	"github.com/retailpulse/retailpulse/internal/domain/rules"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/types"
)

// PipelineResult is every derived collection of one run
type PipelineResult struct {
	RunID               string                     `json:"run_id"`
	ReferenceDate       time.Time                  `json:"reference_date"`
	Policy              types.SegmentationPolicy   `json:"segmentation_policy"`
	Metrics             *metrics.Result            `json:"metrics"`
	TopCustomers        []metrics.TopCustomer      `json:"top_customers"`
	RFM                 []rfm.Record               `json:"rfm"`
	SegmentDistribution []rfm.SegmentCount         `json:"segment_distribution"`
	AtRisk              []rfm.Record               `json:"at_risk"`
	Balances            []loyalty.CustomerBalance  `json:"balances"`
	History             []loyalty.HistoryEntry     `json:"history"`
	LoyaltyReport       loyalty.Report             `json:"loyalty_report"`
	Products            []rules.DiscountedProduct  `json:"products"`
	Thresholds          rules.SalesThresholds      `json:"thresholds"`
	Inactive            []rules.InactiveCustomer   `json:"inactive"`
	ActivePromotions    []rules.ActivePromotion    `json:"active_promotions"`
	Recommendations     []rules.Recommendation     `json:"recommendations"`
	Suggestions         []rules.Suggestion         `json:"suggestions"`
	Effectiveness       []promotion.Effectiveness  `json:"effectiveness"`
	ProductUplift       []promotion.ProductUplift  `json:"product_uplift"`
	CalendarUplift      []promotion.CalendarUplift `json:"calendar_uplift"`
}

// PipelineService runs the full analytics pipeline over a snapshot. A run is
// a pure function of the snapshot, the configuration and the reference date:
// nothing is carried over between runs.
type PipelineService interface {
	// Run executes every stage over ds
	Run(ctx context.Context, ds *snapshot.Dataset) (*PipelineResult, error)
	// RunFromSource loads a snapshot from the configured source and runs it
	RunFromSource(ctx context.Context) (*PipelineResult, error)
	// ActivePromotions lists the calendar promotions running on date
	ActivePromotions(date time.Time) []rules.ActivePromotion
	// Today returns the UTC day of the service clock. Runs under the
	// wall_clock policy, or over a snapshot without transactions, use it as
	// their reference date.
	Today() time.Time
}

type pipelineService struct {
	ServiceParams
	scorer    *rfm.Scorer
	engine    *rules.Engine
	evaluator *promotion.Evaluator
}

func NewPipelineService(params ServiceParams) (PipelineService, error) {
	if params.Config == nil {
		return nil, ierr.NewError("configuration is required").
			WithHint("The pipeline service needs a configuration").
			Mark(ierr.ErrValidation)
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}

	analytics := params.Config.Analytics
	scorer, err := rfm.NewScorer(analytics.RFM, params.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := rules.NewEngine(analytics.Rules, params.Logger)
	if err != nil {
		return nil, err
	}

	return &pipelineService{
		ServiceParams: params,
		scorer:        scorer,
		engine:        engine,
		evaluator:     promotion.NewEvaluator(analytics.Effectiveness, params.Logger),
	}, nil
}

func (s *pipelineService) Run(ctx context.Context, ds *snapshot.Dataset) (*PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Pipeline run was cancelled").
			Mark(ierr.ErrInvalidOperation)
	}

	runID := types.GetRunID(ctx)
	if runID == "" {
		runID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PIPELINE_RUN)
	}
	log := s.Logger.With("run_id", runID)
	start := time.Now()

	idx, err := ds.Index(log)
	if err != nil {
		return nil, err
	}

	analytics := s.Config.Analytics
	ref := snapshot.ResolveReferenceDate(idx, analytics.ReferenceDate.Policy, s.Clock, log)
	log.Infow("pipeline run started",
		"reference_date", types.FormatDate(ref),
		"reference_policy", analytics.ReferenceDate.Policy,
		"transactions", len(idx.Headers),
		"lines", len(idx.Lines))

	aggregates := metrics.Aggregate(idx, log)

	records := s.scorer.Score(aggregates.Customers, ref)

	calculator := loyalty.NewCalculator(analytics.Loyalty, idx.Rules, log)
	lines := calculator.CalculateLines(idx, s.engine.Calendar())
	balances := calculator.Balances(idx, aggregates.Customers, lines, ref)

	products, thresholds := s.engine.DiscountProducts(idx.ProductList, aggregates.Products)
	inactive := s.engine.InactiveCustomers(balances, ref)
	active := s.engine.Calendar().Active(ref)

	result := &PipelineResult{
		RunID:               runID,
		ReferenceDate:       ref,
		Policy:              s.scorer.Policy(),
		Metrics:             aggregates,
		TopCustomers:        aggregates.TopCustomers(analytics.Metrics.TopCustomers),
		RFM:                 records,
		SegmentDistribution: s.scorer.Distribution(records),
		AtRisk:              rfm.AtRisk(records),
		Balances:            balances,
		History:             loyalty.History(idx.CustomerIDs(), lines),
		LoyaltyReport:       loyalty.BuildReport(balances),
		Products:            products,
		Thresholds:          thresholds,
		Inactive:            inactive,
		ActivePromotions:    active,
		Recommendations:     s.engine.Recommendations(balances, records, inactive),
		Suggestions:         s.engine.Suggestions(products, inactive, active, balances),
		Effectiveness:       s.evaluator.Effectiveness(lines),
		ProductUplift:       s.evaluator.ProductUplift(lines),
		CalendarUplift:      s.evaluator.CalendarUplift(aggregates.Daily, s.engine.Calendar().Definitions()),
	}

	log.Infow("pipeline run completed",
		"customers", len(result.RFM),
		"inactive", len(result.Inactive),
		"suggestions", len(result.Suggestions),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (s *pipelineService) RunFromSource(ctx context.Context) (*PipelineResult, error) {
	if s.Source == nil {
		return nil, ierr.NewError("no snapshot source configured").
			WithHint("Configure a snapshot source or submit the dataset inline").
			Mark(ierr.ErrInvalidOperation)
	}

	ds, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, ds)
}

func (s *pipelineService) ActivePromotions(date time.Time) []rules.ActivePromotion {
	return s.engine.Calendar().Active(date)
}

func (s *pipelineService) Today() time.Time {
	return types.TruncateToDay(s.Clock())
}
