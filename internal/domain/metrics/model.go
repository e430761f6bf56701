package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerMetrics is the purchase history of one customer
type CustomerMetrics struct {
	CustomerID       string          `json:"customer_id"`
	LastPurchaseDate time.Time       `json:"last_purchase_date"`
	Frequency        int             `json:"frequency"`
	Monetary         decimal.Decimal `json:"monetary"`
	// PointsEarned is the sum of points recorded on the transaction headers
	PointsEarned decimal.Decimal `json:"points_earned"`
}

type ProductRollup struct {
	SKU        string          `json:"sku"`
	Category   string          `json:"category"`
	TotalSales decimal.Decimal `json:"total_sales"`
	UnitsSold  int             `json:"units_sold"`
	// Transactions counts the line items referencing the SKU
	Transactions int             `json:"transactions"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
}

type StoreRollup struct {
	StoreID      string          `json:"store_id"`
	Location     string          `json:"location"`
	Tier         string          `json:"tier"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	Transactions int             `json:"transactions"`
	PointsEarned decimal.Decimal `json:"points_earned"`
}

type CategoryRollup struct {
	Category     string          `json:"category"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	Transactions int             `json:"transactions"`
	Quantity     int             `json:"quantity"`
}

type DailyTrend struct {
	Date             time.Time       `json:"date"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TransactionCount int             `json:"transaction_count"`
}

type TopCustomer struct {
	CustomerID       string          `json:"customer_id"`
	TotalSpend       decimal.Decimal `json:"total_spend"`
	TransactionCount int             `json:"transaction_count"`
	TotalPoints      decimal.Decimal `json:"total_points"`
}

type Summary struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	TotalTransactions   int             `json:"total_transactions"`
	TotalCustomers      int             `json:"total_customers"`
	TotalPointsEarned   decimal.Decimal `json:"total_points_earned"`
	AvgTransactionValue decimal.Decimal `json:"avg_transaction_value"`
}

// Result holds every rollup of a snapshot
type Result struct {
	// Customers are in order of their first transaction
	Customers  []CustomerMetrics `json:"customers"`
	Products   []ProductRollup   `json:"products"`
	Stores     []StoreRollup     `json:"stores"`
	Categories []CategoryRollup  `json:"categories"`
	Daily      []DailyTrend      `json:"daily"`
	Summary    Summary           `json:"summary"`
}
