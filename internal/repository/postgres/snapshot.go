package postgres

import (
	"context"
	"database/sql"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	queryCustomers = `SELECT id, enrollment_date FROM customers ORDER BY id`

	queryProducts = `SELECT sku, category, base_price FROM products ORDER BY sku`

	queryTransactions = `
	SELECT id, customer_id, store_id, date, total_value, points_earned
	FROM transactions
	ORDER BY date, id`

	queryLineItems = `
	SELECT transaction_id, sku, quantity, line_total, COALESCE(rule_id, '') AS rule_id
	FROM line_items
	ORDER BY id`

	queryStores = `SELECT id, location, tier FROM stores ORDER BY id`

	queryLoyaltyRules = `SELECT id, name, multiplier FROM loyalty_rules ORDER BY id`

	queryTableExists = `SELECT to_regclass($1) IS NOT NULL`
)

type customerRow struct {
	ID             string       `db:"id"`
	EnrollmentDate sql.NullTime `db:"enrollment_date"`
}

type transactionRow struct {
	ID           string              `db:"id"`
	CustomerID   string              `db:"customer_id"`
	StoreID      sql.NullString      `db:"store_id"`
	Date         sql.NullTime        `db:"date"`
	TotalValue   decimal.NullDecimal `db:"total_value"`
	PointsEarned decimal.NullDecimal `db:"points_earned"`
}

type snapshotRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewSnapshotRepository returns a snapshot.Source reading the input tables.
// The stores and loyalty_rules tables are optional: when they do not exist
// the snapshot carries an absent table.
func NewSnapshotRepository(db *postgres.DB, logger *logger.Logger) snapshot.Source {
	return &snapshotRepository{db: db, logger: logger}
}

func (r *snapshotRepository) Load(ctx context.Context) (*snapshot.Dataset, error) {
	ds := &snapshot.Dataset{}

	err := r.db.WithSnapshotTx(ctx, func(ctx context.Context) error {
		q := r.db.GetQuerier(ctx)

		var customers []customerRow
		if err := q.SelectContext(ctx, &customers, queryCustomers); err != nil {
			return queryError(err, "customers")
		}
		ds.Customers = lo.Map(customers, func(c customerRow, _ int) snapshot.Customer {
			return snapshot.Customer{ID: c.ID, EnrollmentDate: c.EnrollmentDate.Time}
		})

		ds.Products = make([]snapshot.Product, 0)
		if err := q.SelectContext(ctx, &ds.Products, queryProducts); err != nil {
			return queryError(err, "products")
		}

		var transactions []transactionRow
		if err := q.SelectContext(ctx, &transactions, queryTransactions); err != nil {
			return queryError(err, "transactions")
		}
		ds.Transactions = lo.Map(transactions, func(t transactionRow, _ int) snapshot.Transaction {
			return snapshot.Transaction{
				ID:           t.ID,
				CustomerID:   t.CustomerID,
				StoreID:      t.StoreID.String,
				Date:         t.Date.Time,
				TotalValue:   orZero(t.TotalValue),
				PointsEarned: orZero(t.PointsEarned),
			}
		})

		ds.LineItems = make([]snapshot.LineItem, 0)
		if err := q.SelectContext(ctx, &ds.LineItems, queryLineItems); err != nil {
			return queryError(err, "line_items")
		}

		stores, err := loadOptional[snapshot.Store](ctx, r, q, "stores", queryStores)
		if err != nil {
			return err
		}
		ds.Stores = stores

		rules, err := loadOptional[snapshot.LoyaltyRule](ctx, r, q, "loyalty_rules", queryLoyaltyRules)
		if err != nil {
			return err
		}
		ds.LoyaltyRules = rules
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Infow("snapshot loaded",
		"customers", len(ds.Customers),
		"products", len(ds.Products),
		"transactions", len(ds.Transactions),
		"line_items", len(ds.LineItems),
		"stores_present", ds.Stores.IsPresent(),
		"loyalty_rules_present", ds.LoyaltyRules.IsPresent())

	return ds, nil
}

func loadOptional[T any](ctx context.Context, r *snapshotRepository, q postgres.Querier, table, query string) (types.OptionalTable[T], error) {
	var exists bool
	if err := q.GetContext(ctx, &exists, queryTableExists, table); err != nil {
		return types.NoTable[T](), queryError(err, table)
	}
	if !exists {
		r.logger.Warnw("optional table missing, using an empty table", "table", table)
		return types.NoTable[T](), nil
	}

	rows := make([]T, 0)
	if err := q.SelectContext(ctx, &rows, query); err != nil {
		return types.NoTable[T](), queryError(err, table)
	}
	return types.SomeTable(rows), nil
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func queryError(err error, table string) error {
	return ierr.WithError(err).
		WithHintf("Could not read the %s table", table).
		WithReportableDetails(map[string]any{"table": table}).
		Mark(ierr.ErrDatabase)
}
