package promotion

import (
	"github.com/shopspring/decimal"
)

// Effectiveness is the performance of one loyalty rule at one store
type Effectiveness struct {
	Promotion string `json:"promotion"`
	StoreID   string `json:"store_id"`
	// TransactionCount counts distinct transactions with at least one line
	// under the rule
	TransactionCount    int             `json:"transaction_count"`
	Sales               decimal.Decimal `json:"sales"`
	PointsActivity      decimal.Decimal `json:"points_activity"`
	UnitsSold           int             `json:"units_sold"`
	AvgTransactionValue decimal.Decimal `json:"avg_transaction_value"`
	PointsPerSale       decimal.Decimal `json:"points_per_sale"`
	EffectivenessScore  decimal.Decimal `json:"effectiveness_score"`
}

// ProductUplift is the sales of one SKU under one loyalty rule
type ProductUplift struct {
	Promotion        string          `json:"promotion"`
	SKU              string          `json:"sku"`
	SalesValue       decimal.Decimal `json:"sales_value"`
	UnitsSold        int             `json:"units_sold"`
	TransactionCount int             `json:"transaction_count"`
	AvgPrice         decimal.Decimal `json:"avg_price"`
}

// CalendarUplift compares the average daily sales inside the windows of a
// calendar promotion with the days outside them
type CalendarUplift struct {
	Promotion          string          `json:"promotion"`
	DaysInside         int             `json:"days_inside"`
	DaysOutside        int             `json:"days_outside"`
	AvgDailyInside     decimal.Decimal `json:"avg_daily_inside"`
	AvgDailyOutside    decimal.Decimal `json:"avg_daily_outside"`
	SalesUpliftPercent decimal.Decimal `json:"sales_uplift_percent"`
}
