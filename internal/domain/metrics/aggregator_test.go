package metrics

import (
	"testing"
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/logger"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buildIndex(t *testing.T) *snapshot.Index {
	ds := &snapshot.Dataset{
		Customers: []snapshot.Customer{{ID: "C1"}, {ID: "C2"}, {ID: "C3"}},
		Products: []snapshot.Product{
			{SKU: "A", Category: "Health", BasePrice: dec("10")},
			{SKU: "B", Category: "Books", BasePrice: dec("5")},
		},
		Transactions: []snapshot.Transaction{
			{ID: "T1", CustomerID: "C2", StoreID: "S2", Date: day(time.March, 1), TotalValue: dec("30"), PointsEarned: dec("30")},
			{ID: "T2", CustomerID: "C1", StoreID: "S1", Date: day(time.March, 3).Add(15 * time.Hour), TotalValue: dec("15"), PointsEarned: dec("20")},
			{ID: "T3", CustomerID: "C2", StoreID: "S1", Date: day(time.March, 3), TotalValue: dec("12.5"), PointsEarned: dec("12.5")},
			{ID: "T4", CustomerID: "C3", StoreID: "S1", Date: day(time.March, 2), TotalValue: dec("-8")},
		},
		LineItems: []snapshot.LineItem{
			{TransactionID: "T1", SKU: "A", Quantity: 3, LineTotal: dec("30")},
			{TransactionID: "T2", SKU: "B", Quantity: 1, LineTotal: dec("5")},
			{TransactionID: "T2", SKU: "A", Quantity: 1, LineTotal: dec("10")},
			{TransactionID: "T3", SKU: "Z", Quantity: 2, LineTotal: dec("12.5")},
		},
		Stores: types.SomeTable([]snapshot.Store{{ID: "S1", Location: "Mumbai", Tier: "A"}}),
	}
	idx, err := ds.Index(logger.NewNopLogger())
	require.NoError(t, err)
	return idx
}

func TestAggregate_CustomerMetrics(t *testing.T) {
	res := Aggregate(buildIndex(t), logger.NewNopLogger())

	require.Len(t, res.Customers, 3)
	// first seen order of the headers
	assert.Equal(t, "C2", res.Customers[0].CustomerID)
	assert.Equal(t, "C1", res.Customers[1].CustomerID)
	assert.Equal(t, "C3", res.Customers[2].CustomerID)

	c2 := res.Customers[0]
	assert.Equal(t, 2, c2.Frequency)
	assert.Equal(t, "42.5", c2.Monetary.String())
	assert.Equal(t, day(time.March, 3), c2.LastPurchaseDate)

	// clock part of the date is dropped
	assert.Equal(t, day(time.March, 3), res.Customers[1].LastPurchaseDate)

	// negative totals clamp to zero
	assert.True(t, res.Customers[2].Monetary.IsZero())
}

func TestAggregate_ProductAndCategoryRollups(t *testing.T) {
	res := Aggregate(buildIndex(t), logger.NewNopLogger())

	require.Len(t, res.Products, 3)
	assert.Equal(t, []string{"A", "B", "Z"}, []string{res.Products[0].SKU, res.Products[1].SKU, res.Products[2].SKU})

	a := res.Products[0]
	assert.Equal(t, "40", a.TotalSales.String())
	assert.Equal(t, 4, a.UnitsSold)
	assert.Equal(t, 2, a.Transactions)
	assert.Equal(t, "10", a.AvgPrice.String())

	z := res.Products[2]
	assert.Equal(t, snapshot.UnknownCategory, z.Category)
	assert.Equal(t, "6.25", z.AvgPrice.String())

	require.Len(t, res.Categories, 3)
	assert.Equal(t, "Health", res.Categories[0].Category)
	assert.Equal(t, "Unknown", res.Categories[1].Category)
	assert.Equal(t, "Books", res.Categories[2].Category)

	a, ok := lo.Find(res.Products, func(p ProductRollup) bool { return p.SKU == "A" })
	require.True(t, ok)
	assert.Equal(t, "40", a.TotalSales.String())
}

func TestAggregate_StoresDailyAndSummary(t *testing.T) {
	res := Aggregate(buildIndex(t), logger.NewNopLogger())

	require.Len(t, res.Stores, 2)
	assert.Equal(t, "S1", res.Stores[0].StoreID)
	assert.Equal(t, "Mumbai", res.Stores[0].Location)
	assert.Equal(t, 3, res.Stores[0].Transactions)
	assert.Equal(t, "S2", res.Stores[1].StoreID)
	assert.Empty(t, res.Stores[1].Location)

	require.Len(t, res.Daily, 3)
	assert.Equal(t, day(time.March, 1), res.Daily[0].Date)
	assert.Equal(t, 2, res.Daily[2].TransactionCount)
	assert.Equal(t, "27.5", res.Daily[2].TotalSales.String())

	assert.Equal(t, 4, res.Summary.TotalTransactions)
	assert.Equal(t, 3, res.Summary.TotalCustomers)
	assert.Equal(t, "49.5", res.Summary.TotalSales.String())
	assert.Equal(t, "12.38", res.Summary.AvgTransactionValue.String())
}

func TestResult_TopCustomers(t *testing.T) {
	res := Aggregate(buildIndex(t), logger.NewNopLogger())

	top := res.TopCustomers(2)
	require.Len(t, top, 2)
	assert.Equal(t, "C2", top[0].CustomerID)
	assert.Equal(t, "C1", top[1].CustomerID)
	assert.Equal(t, "20", top[1].TotalPoints.String())
}

func TestAggregate_EmptySnapshot(t *testing.T) {
	ds := &snapshot.Dataset{
		Customers:    []snapshot.Customer{},
		Products:     []snapshot.Product{},
		Transactions: []snapshot.Transaction{},
		LineItems:    []snapshot.LineItem{},
	}
	idx, err := ds.Index(logger.NewNopLogger())
	require.NoError(t, err)

	res := Aggregate(idx, logger.NewNopLogger())
	assert.Empty(t, res.Customers)
	assert.Empty(t, res.Products)
	assert.True(t, res.Summary.AvgTransactionValue.IsZero())
}
