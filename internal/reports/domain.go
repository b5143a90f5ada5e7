package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary is the landing-page snapshot.
type DashboardSummary struct {
	SalesToday      decimal.Decimal `json:"sales_today"`
	SalesCountToday int             `json:"sales_count_today"`
	TotalReceivable decimal.Decimal `json:"total_receivable"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	CashBalance     decimal.Decimal `json:"cash_balance"`
	LowStockCount   int             `json:"low_stock_count"`
	OwingCustomers  int             `json:"owing_customers"`
	RecentSales     []RecentSale    `json:"recent_sales"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// RecentSale is one row of the dashboard's latest-transactions list.
type RecentSale struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProfitLoss summarizes a period from the frozen item snapshots: revenue is
// Σ price*qty, COGS is Σ cost*qty, so later HPP rewrites never move history.
type ProfitLoss struct {
	From         time.Time                  `json:"from"`
	To           time.Time                  `json:"to"`
	Revenue      decimal.Decimal            `json:"revenue"`
	COGS         decimal.Decimal            `json:"cogs"`
	GrossProfit  decimal.Decimal            `json:"gross_profit"`
	Expenses     map[string]decimal.Decimal `json:"expenses"`
	TotalExpense decimal.Decimal            `json:"total_expense"`
	NetProfit    decimal.Decimal            `json:"net_profit"`
}

// BalanceSheet holds point-in-time position totals.
type BalanceSheet struct {
	CashBalance    decimal.Decimal `json:"cash_balance"`
	Receivables    decimal.Decimal `json:"receivables"`
	Payables       decimal.Decimal `json:"payables"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// TopProduct ranks products by quantity sold in a period.
type TopProduct struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	QtySold     int64           `json:"qty_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopCustomer ranks customers by spend in a period.
type TopCustomer struct {
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	SalesCount   int             `json:"sales_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// Period is an inclusive date range for report queries.
type Period struct {
	From time.Time
	To   time.Time
}
