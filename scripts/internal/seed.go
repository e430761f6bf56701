package internal

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/retailpulse/retailpulse/internal/config"
	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	sampleCategories = []string{"Groceries", "Health", "Electronics", "Home", "Fashion", "Sports", "Books"}
	sampleLocations  = []string{"Mumbai", "Delhi", "Bengaluru", "Pune", "Chennai"}
	sampleTiers      = []string{"Flagship", "Standard", "Express"}
	sampleRules      = []snapshot.LoyaltyRule{
		{ID: "R1", Name: "Standard Earn", Multiplier: decimal.RequireFromString("1.0")},
		{ID: "R2", Name: "Double Points", Multiplier: decimal.RequireFromString("2.0")},
		{ID: "R3", Name: "Category Boost", Multiplier: decimal.RequireFromString("1.5")},
		{ID: "R4", Name: "Weekend Bonus", Multiplier: decimal.RequireFromString("1.25")},
	}
	sampleStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	sampleEnd   = time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC)
)

// SampleGenerator builds a random but reproducible snapshot
type SampleGenerator struct {
	rnd       *rand.Rand
	customers int
	products  int
}

func NewSampleGenerator(seed int64, customers int) *SampleGenerator {
	return &SampleGenerator{
		rnd:       rand.New(rand.NewSource(seed)),
		customers: customers,
		products:  40,
	}
}

func (g *SampleGenerator) Generate() *snapshot.Dataset {
	ds := &snapshot.Dataset{
		Customers:    make([]snapshot.Customer, 0, g.customers),
		Products:     make([]snapshot.Product, 0, g.products),
		Transactions: make([]snapshot.Transaction, 0),
		LineItems:    make([]snapshot.LineItem, 0),
		LoyaltyRules: types.SomeTable(sampleRules),
	}

	stores := lo.Map(sampleLocations, func(location string, i int) snapshot.Store {
		return snapshot.Store{
			ID:       fmt.Sprintf("S%02d", i+1),
			Location: location,
			Tier:     sampleTiers[i%len(sampleTiers)],
		}
	})
	ds.Stores = types.SomeTable(stores)

	for i := 0; i < g.products; i++ {
		ds.Products = append(ds.Products, snapshot.Product{
			SKU:       fmt.Sprintf("SKU-%03d", i+1),
			Category:  sampleCategories[i%len(sampleCategories)],
			BasePrice: decimal.NewFromInt(int64(5 + g.rnd.Intn(495))).Add(decimal.New(99, -2)),
		})
	}

	span := int(sampleEnd.Sub(sampleStart).Hours() / 24)
	txSeq := 0
	for i := 0; i < g.customers; i++ {
		customer := snapshot.Customer{
			ID:             fmt.Sprintf("C%05d", i+1),
			EnrollmentDate: sampleStart.AddDate(0, 0, -g.rnd.Intn(730)),
		}
		ds.Customers = append(ds.Customers, customer)

		// a few members never purchase
		if g.rnd.Intn(20) == 0 {
			continue
		}

		for n := 1 + g.rnd.Intn(15); n > 0; n-- {
			txSeq++
			tx := snapshot.Transaction{
				ID:         fmt.Sprintf("T%07d", txSeq),
				CustomerID: customer.ID,
				StoreID:    stores[g.rnd.Intn(len(stores))].ID,
				Date:       sampleStart.AddDate(0, 0, g.rnd.Intn(span+1)),
				TotalValue: decimal.Zero,
			}

			for l := 1 + g.rnd.Intn(4); l > 0; l-- {
				product := ds.Products[g.rnd.Intn(len(ds.Products))]
				qty := 1 + g.rnd.Intn(6)
				line := snapshot.LineItem{
					TransactionID: tx.ID,
					SKU:           product.SKU,
					Quantity:      qty,
					LineTotal:     product.BasePrice.Mul(decimal.NewFromInt(int64(qty))),
				}
				if g.rnd.Intn(5) > 0 {
					line.RuleID = sampleRules[g.rnd.Intn(len(sampleRules))].ID
				}
				tx.TotalValue = tx.TotalValue.Add(line.LineTotal)
				ds.LineItems = append(ds.LineItems, line)
			}
			tx.PointsEarned = tx.TotalValue.Round(0)
			ds.Transactions = append(ds.Transactions, tx)
		}
	}

	return ds
}

// SeedSample generates a snapshot and writes it into the input tables, or
// prints it as JSON when DRY_RUN is set
func SeedSample() error {
	customers := 200
	if raw := os.Getenv("SEED_CUSTOMERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid customer count %q: %w", raw, err)
		}
		customers = n
	}

	seed := int64(42)
	if raw := os.Getenv("SEED"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", raw, err)
		}
		seed = n
	}

	ds := NewSampleGenerator(seed, customers).Generate()
	if os.Getenv("DRY_RUN") == "true" {
		return printJSON(ds)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.Migrate(ctx, true); err != nil {
		return err
	}
	if err := writeDataset(ctx, db.DB, ds); err != nil {
		return err
	}

	log.Infow("sample snapshot seeded",
		"customers", len(ds.Customers),
		"products", len(ds.Products),
		"transactions", len(ds.Transactions),
		"line_items", len(ds.LineItems))
	return nil
}

const insertBatchSize = 500

func writeDataset(ctx context.Context, db *sqlx.DB, ds *snapshot.Dataset) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertBatches(ctx, tx,
		`INSERT INTO customers (id, enrollment_date) VALUES (:id, :enrollment_date) ON CONFLICT (id) DO NOTHING`,
		ds.Customers); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx,
		`INSERT INTO products (sku, category, base_price) VALUES (:sku, :category, :base_price) ON CONFLICT (sku) DO NOTHING`,
		ds.Products); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx,
		`INSERT INTO stores (id, location, tier) VALUES (:id, :location, :tier) ON CONFLICT (id) DO NOTHING`,
		ds.Stores.OrEmpty()); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx,
		`INSERT INTO loyalty_rules (id, name, multiplier) VALUES (:id, :name, :multiplier) ON CONFLICT (id) DO NOTHING`,
		ds.LoyaltyRules.OrEmpty()); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx,
		`INSERT INTO transactions (id, customer_id, store_id, date, total_value, points_earned)
		VALUES (:id, :customer_id, :store_id, :date, :total_value, :points_earned) ON CONFLICT (id) DO NOTHING`,
		ds.Transactions); err != nil {
		return err
	}
	if err := insertBatches(ctx, tx,
		`INSERT INTO line_items (transaction_id, sku, quantity, line_total, rule_id)
		VALUES (:transaction_id, :sku, :quantity, :line_total, :rule_id)`,
		ds.LineItems); err != nil {
		return err
	}

	return tx.Commit()
}

// insertBatches runs a batched named insert, sqlx expands the VALUES clause
// once per row of the batch
func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for _, batch := range lo.Chunk(rows, insertBatchSize) {
		if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
			return err
		}
	}
	return nil
}
