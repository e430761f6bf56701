package testutil

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

// SampleReferenceDate is the latest transaction date of SampleDataset, the
// Black Friday of 2024
var SampleReferenceDate = Date(2024, time.November, 22)

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DatasetBuilder assembles snapshots for tests
type DatasetBuilder struct {
	ds *snapshot.Dataset
}

func NewDatasetBuilder() *DatasetBuilder {
	return &DatasetBuilder{ds: &snapshot.Dataset{
		Customers:    []snapshot.Customer{},
		Products:     []snapshot.Product{},
		Transactions: []snapshot.Transaction{},
		LineItems:    []snapshot.LineItem{},
	}}
}

func (b *DatasetBuilder) Customer(id string, enrolled time.Time) *DatasetBuilder {
	b.ds.Customers = append(b.ds.Customers, snapshot.Customer{ID: id, EnrollmentDate: enrolled})
	return b
}

func (b *DatasetBuilder) Product(sku, category, basePrice string) *DatasetBuilder {
	b.ds.Products = append(b.ds.Products, snapshot.Product{SKU: sku, Category: category, BasePrice: Dec(basePrice)})
	return b
}

func (b *DatasetBuilder) Stores(stores ...snapshot.Store) *DatasetBuilder {
	b.ds.Stores = types.SomeTable(stores)
	return b
}

func (b *DatasetBuilder) Rules(rules ...snapshot.LoyaltyRule) *DatasetBuilder {
	b.ds.LoyaltyRules = types.SomeTable(rules)
	return b
}

// Transaction adds a header. The total value is the sum of the lines added
// with Line afterwards.
func (b *DatasetBuilder) Transaction(id, customerID, storeID string, date time.Time) *DatasetBuilder {
	b.ds.Transactions = append(b.ds.Transactions, snapshot.Transaction{
		ID:           id,
		CustomerID:   customerID,
		StoreID:      storeID,
		Date:         date,
		TotalValue:   decimal.Zero,
		PointsEarned: decimal.Zero,
	})
	return b
}

// Line adds a line item to the transaction transactionID
func (b *DatasetBuilder) Line(transactionID, sku string, qty int, lineTotal, ruleID string) *DatasetBuilder {
	total := Dec(lineTotal)
	b.ds.LineItems = append(b.ds.LineItems, snapshot.LineItem{
		TransactionID: transactionID,
		SKU:           sku,
		Quantity:      qty,
		LineTotal:     total,
		RuleID:        ruleID,
	})
	for i := range b.ds.Transactions {
		if b.ds.Transactions[i].ID == transactionID {
			b.ds.Transactions[i].TotalValue = b.ds.Transactions[i].TotalValue.Add(total)
			b.ds.Transactions[i].PointsEarned = b.ds.Transactions[i].TotalValue
		}
	}
	return b
}

func (b *DatasetBuilder) Build() *snapshot.Dataset {
	return b.ds
}

// SampleDataset is a small store network with six customers of distinct
// profiles: C001 buys often and a lot, C002 bought once 400 days before the
// reference date, C006 enrolled but never bought.
func SampleDataset() *snapshot.Dataset {
	return NewDatasetBuilder().
		Customer("C001", Date(2022, time.March, 1)).
		Customer("C002", Date(2023, time.January, 15)).
		Customer("C003", Date(2024, time.June, 1)).
		Customer("C004", Date(2023, time.July, 10)).
		Customer("C005", Date(2024, time.November, 1)).
		Customer("C006", Date(2024, time.February, 2)).
		Product("SKU-APL", "Grocery", "3.50").
		Product("SKU-VIT", "Health", "24.99").
		Product("SKU-TV", "Electronics", "499.00").
		Product("SKU-TEA", "Grocery", "6.25").
		Product("SKU-MUG", "Home", "12.00").
		Product("SKU-LMP", "Home", "45.00").
		Stores(
			snapshot.Store{ID: "S01", Location: "Mumbai", Tier: "Tier 1"},
			snapshot.Store{ID: "S02", Location: "Pune", Tier: "Tier 2"},
		).
		Rules(
			snapshot.LoyaltyRule{ID: "R1", Name: "Standard", Multiplier: Dec("1.0")},
			snapshot.LoyaltyRule{ID: "R2", Name: "Health Boost", Multiplier: Dec("2.0")},
			snapshot.LoyaltyRule{ID: "R3", Name: "Electronics Bonus", Multiplier: Dec("1.5")},
		).
		Transaction("T001", "C001", "S01", Date(2024, time.January, 3)).
		Line("T001", "SKU-TV", 1, "499.00", "R3").
		Line("T001", "SKU-APL", 12, "42.00", "R1").
		Transaction("T002", "C002", "S02", Date(2023, time.October, 19)).
		Line("T002", "SKU-TEA", 2, "12.50", "R1").
		Transaction("T003", "C001", "S01", Date(2024, time.May, 14)).
		Line("T003", "SKU-VIT", 3, "74.97", "R2").
		Transaction("T004", "C003", "S02", Date(2024, time.August, 12)).
		Line("T004", "SKU-MUG", 2, "24.00", "R1").
		Line("T004", "SKU-APL", 4, "14.00", "R1").
		Transaction("T005", "C004", "S01", Date(2024, time.September, 30)).
		Line("T005", "SKU-LMP", 1, "45.00", "R1").
		Transaction("T006", "C001", "S02", Date(2024, time.October, 27)).
		Line("T006", "SKU-VIT", 6, "149.94", "R2").
		Line("T006", "SKU-TEA", 10, "62.50", "R9").
		Transaction("T007", "C005", "S01", Date(2024, time.November, 20)).
		Line("T007", "SKU-APL", 5, "17.50", "R1").
		Transaction("T008", "C001", "S01", SampleReferenceDate).
		Line("T008", "SKU-MUG", 1, "12.00", "").
		Transaction("T009", "C004", "S02", Date(2024, time.November, 2)).
		Line("T009", "SKU-TEA", 1, "6.25", "R1").
		Build()
}
