package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	ierr "github.com/retailpulse/retailpulse/internal/errors"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*postgres.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := postgres.NewDBFromSQLX(sqlx.NewDb(mockDB, "sqlmock"), logger.NewNopLogger())
	return db, mock
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func expectRequiredTables(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id, enrollment_date FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_date"}).
			AddRow("C001", day(time.January, 5)).
			AddRow("C002", nil))

	mock.ExpectQuery("SELECT sku, category, base_price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"sku", "category", "base_price"}).
			AddRow("SKU-1", "Grocery", "3.50"))

	mock.ExpectQuery("FROM transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "store_id", "date", "total_value", "points_earned"}).
			AddRow("T001", "C001", "S01", day(time.March, 1), "7.00", nil).
			AddRow("T002", "C002", nil, day(time.March, 2), "3.50", "3.50"))

	mock.ExpectQuery("FROM line_items").
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "sku", "quantity", "line_total", "rule_id"}).
			AddRow("T001", "SKU-1", 2, "7.00", "R1").
			AddRow("T002", "SKU-1", 1, "3.50", ""))
}

func TestSnapshotRepository_Load(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	expectRequiredTables(mock)
	mock.ExpectQuery("to_regclass").WithArgs("stores").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, location, tier FROM stores").
		WillReturnRows(sqlmock.NewRows([]string{"id", "location", "tier"}).
			AddRow("S01", "Mumbai", "Tier 1"))
	mock.ExpectQuery("to_regclass").WithArgs("loyalty_rules").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT id, name, multiplier FROM loyalty_rules").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "multiplier"}).
			AddRow("R1", "Standard", "1.5"))
	mock.ExpectCommit()

	ds, err := NewSnapshotRepository(db, logger.NewNopLogger()).Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, ds.Customers, 2)
	assert.Equal(t, day(time.January, 5), ds.Customers[0].EnrollmentDate)
	assert.True(t, ds.Customers[1].EnrollmentDate.IsZero())

	require.Len(t, ds.Products, 1)
	assert.True(t, decimal.RequireFromString("3.50").Equal(ds.Products[0].BasePrice))

	require.Len(t, ds.Transactions, 2)
	assert.True(t, ds.Transactions[0].PointsEarned.IsZero())
	assert.Equal(t, "", ds.Transactions[1].StoreID)

	require.Len(t, ds.LineItems, 2)
	assert.Equal(t, 2, ds.LineItems[0].Quantity)
	assert.Equal(t, "R1", ds.LineItems[0].RuleID)

	assert.True(t, ds.Stores.IsPresent())
	assert.Len(t, ds.Stores.OrEmpty(), 1)
	require.True(t, ds.LoyaltyRules.IsPresent())
	assert.Equal(t, "Standard", ds.LoyaltyRules.OrEmpty()[0].Name)

	require.NoError(t, ds.Validate())
}

func TestSnapshotRepository_LoadWithoutOptionalTables(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	expectRequiredTables(mock)
	mock.ExpectQuery("to_regclass").WithArgs("stores").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("to_regclass").WithArgs("loyalty_rules").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	ds, err := NewSnapshotRepository(db, logger.NewNopLogger()).Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.False(t, ds.Stores.IsPresent())
	assert.Empty(t, ds.Stores.OrEmpty())
	assert.False(t, ds.LoyaltyRules.IsPresent())
}

func TestSnapshotRepository_LoadQueryError(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, enrollment_date FROM customers").
		WillReturnError(errors.New("relation \"customers\" does not exist"))
	mock.ExpectRollback()

	_, err := NewSnapshotRepository(db, logger.NewNopLogger()).Load(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.IsDatabase(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_BeginError(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := NewSnapshotRepository(db, logger.NewNopLogger()).Load(context.Background())
	assert.True(t, ierr.IsDatabase(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
