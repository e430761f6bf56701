package snapshot

import (
	"time"

	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/shopspring/decimal"
)

// Customer is a loyalty program member
type Customer struct {
	ID             string    `db:"id" json:"id"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
}

// Product is a catalog entry
type Product struct {
	SKU       string          `db:"sku" json:"sku"`
	Category  string          `db:"category" json:"category"`
	BasePrice decimal.Decimal `db:"base_price" json:"base_price"`
}

// Store is a physical point of sale
type Store struct {
	ID       string `db:"id" json:"id"`
	Location string `db:"location" json:"location"`
	Tier     string `db:"tier" json:"tier"`
}

// LoyaltyRule is a named points multiplier applied to line items
type LoyaltyRule struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Multiplier decimal.Decimal `db:"multiplier" json:"multiplier"`
}

// Transaction is a sales ticket header
type Transaction struct {
	ID           string          `db:"id" json:"id"`
	CustomerID   string          `db:"customer_id" json:"customer_id"`
	StoreID      string          `db:"store_id" json:"store_id"`
	Date         time.Time       `db:"date" json:"date"`
	TotalValue   decimal.Decimal `db:"total_value" json:"total_value"`
	PointsEarned decimal.Decimal `db:"points_earned" json:"points_earned"`
}

// LineItem is a single product line of a transaction
type LineItem struct {
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	SKU           string          `db:"sku" json:"sku"`
	Quantity      int             `db:"quantity" json:"quantity"`
	LineTotal     decimal.Decimal `db:"line_total" json:"line_total"`
	RuleID        string          `db:"rule_id" json:"rule_id"`
}

// Dataset is the full input snapshot of one pipeline run.
//
// The four required tables distinguish nil (the table was never supplied,
// which is fatal) from an empty slice (no rows, which yields empty outputs).
// Stores and loyalty rules are optional and resolve to empty tables.
type Dataset struct {
	Customers    []Customer                       `json:"customers"`
	Products     []Product                        `json:"products"`
	Transactions []Transaction                    `json:"transactions"`
	LineItems    []LineItem                       `json:"line_items"`
	Stores       types.OptionalTable[Store]       `json:"stores"`
	LoyaltyRules types.OptionalTable[LoyaltyRule] `json:"loyalty_rules"`
}
