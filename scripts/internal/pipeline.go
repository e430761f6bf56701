package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/rules"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	"github.com/retailpulse/retailpulse/internal/repository"
	"github.com/retailpulse/retailpulse/internal/sentry"
	"github.com/retailpulse/retailpulse/internal/service"
	"github.com/retailpulse/retailpulse/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunPipeline runs the pipeline over DATASET_FILE, or over the postgres
// snapshot when no file is given, and prints the result
func RunPipeline() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var source snapshot.Source
	if path := os.Getenv("DATASET_FILE"); path != "" {
		source = &fileSource{path: path}
	} else {
		db, err := postgres.NewDB(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		source = repository.NewSnapshotSource(db, sentry.NewSentryService(cfg, log), log)
	}

	pipeline, err := service.NewPipelineService(service.NewServiceParams(log, cfg, source))
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := pipeline.RunFromSource(ctx)
	if err != nil {
		return err
	}
	log.Infow("pipeline finished",
		"run_id", result.RunID,
		"reference_date", types.FormatDate(result.ReferenceDate),
		"customers", len(result.RFM),
		"duration_ms", time.Since(start).Milliseconds())

	return printJSON(result)
}

// ListActivePromotions prints the promotions active on PROMOTION_DATE,
// today when unset
func ListActivePromotions() error {
	cfg := config.GetDefaultConfig()
	if loaded, err := config.NewConfig(); err == nil {
		cfg = loaded
	}

	date := types.TruncateToDay(time.Now())
	if raw := os.Getenv("PROMOTION_DATE"); raw != "" {
		parsed, err := types.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", raw, err)
		}
		date = parsed
	}

	engine, err := rules.NewEngine(cfg.Analytics.Rules, logger.L)
	if err != nil {
		return err
	}

	active := engine.Calendar().Active(date)
	if len(active) == 0 {
		fmt.Printf("No promotions active on %s\n", types.FormatDate(date))
		return nil
	}

	discount, multiplier := rules.Resolve(active, cfg.Analytics.Rules.PromotionStacking)
	fmt.Printf("Promotions active on %s (%s):\n", types.FormatDate(date), cfg.Analytics.Rules.PromotionStacking)
	for _, p := range active {
		fmt.Printf("  %-28s %s to %s  discount %s%%  bonus %sx\n",
			p.Name,
			types.FormatDate(p.StartDate),
			types.FormatDate(p.EndDate),
			p.Discount.Shift(2).StringFixed(0),
			p.BonusMultiplier.StringFixed(1))
	}
	fmt.Printf("Applied: discount %s%%, bonus %sx\n", discount.Shift(2).StringFixed(0), multiplier.StringFixed(1))
	return nil
}

// fileSource reads a snapshot from a JSON file
type fileSource struct {
	path string
}

func (s *fileSource) Load(_ context.Context) (*snapshot.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var ds snapshot.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return &ds, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
