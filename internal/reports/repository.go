package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the read-only aggregate queries. Every money column is cast
// to text and parsed, same as the write-side repositories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesTotalBetween returns the summed total and count of sales in the range.
func (r *Repository) SalesTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var (
		total string
		count int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)::text, COUNT(*)
		FROM transactions
		WHERE type = 'SALE' AND created_at >= $1 AND created_at <= $2`,
		from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("reports: sales total: %w", err)
	}
	d, err := decimal.NewFromString(total)
	return d, count, err
}

// TotalReceivable sums positive customer balances.
func (r *Repository) TotalReceivable(ctx context.Context) (decimal.Decimal, error) {
	return r.sumQuery(ctx, `
		SELECT COALESCE(SUM(balance), 0)::text FROM customers WHERE balance > 0`)
}

// TotalPayable sums positive supplier balances.
func (r *Repository) TotalPayable(ctx context.Context) (decimal.Decimal, error) {
	return r.sumQuery(ctx, `
		SELECT COALESCE(SUM(balance), 0)::text FROM suppliers WHERE balance > 0`)
}

// InventoryValue is Σ stock*hpp over products with positive stock.
func (r *Repository) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	return r.sumQuery(ctx, `
		SELECT COALESCE(SUM(stock * hpp), 0)::text FROM products WHERE stock > 0`)
}

// LowStockCount counts products at or below their minimum.
func (r *Repository) LowStockCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE stock <= min_stock`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reports: low stock count: %w", err)
	}
	return count, nil
}

// OwingCustomerCount counts customers carrying a tab.
func (r *Repository) OwingCustomerCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE balance > 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reports: owing customer count: %w", err)
	}
	return count, nil
}

// CashBalance reads the ledger tail outside any lock; dashboards tolerate a
// slightly stale figure.
func (r *Repository) CashBalance(ctx context.Context) (decimal.Decimal, error) {
	var balance string
	err := r.pool.QueryRow(ctx, `
		SELECT balance::text FROM cash_entries
		ORDER BY created_at DESC, id DESC
		LIMIT 1`).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("reports: cash balance: %w", err)
	}
	return decimal.NewFromString(balance)
}

// RecentSales returns the latest sale headers.
func (r *Repository) RecentSales(ctx context.Context, limit int) ([]RecentSale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, c.name, t.total_amount::text, t.status, t.created_at
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.type = 'SALE'
		ORDER BY t.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: recent sales: %w", err)
	}
	defer rows.Close()

	var sales []RecentSale
	for rows.Next() {
		var (
			s     RecentSale
			total string
		)
		if err := rows.Scan(&s.ID, &s.CustomerName, &total, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("reports: scan recent sale: %w", err)
		}
		if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// RevenueAndCOGS aggregates the frozen item snapshots for a period.
func (r *Repository) RevenueAndCOGS(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var revenue, cogs string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.price * i.qty), 0)::text,
		       COALESCE(SUM(i.cost * i.qty), 0)::text
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.type = 'SALE' AND t.created_at >= $1 AND t.created_at <= $2`,
		from, to).Scan(&revenue, &cogs)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("reports: revenue and cogs: %w", err)
	}
	rev, err := decimal.NewFromString(revenue)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	cg, err := decimal.NewFromString(cogs)
	return rev, cg, err
}

// ExpensesByCategory sums CREDIT cash entries per category for a period,
// excluding supplier-side purchase outflows which belong to COGS, not
// operating expenses.
func (r *Repository) ExpensesByCategory(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, COALESCE(SUM(amount), 0)::text
		FROM cash_entries
		WHERE type = 'CREDIT' AND category <> 'PEMBELIAN'
		  AND date >= $1 AND date <= $2
		GROUP BY category
		ORDER BY category`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: expenses by category: %w", err)
	}
	defer rows.Close()

	expenses := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, amount string
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, fmt.Errorf("reports: scan expense: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		expenses[category] = d
	}
	return expenses, rows.Err()
}

// TopProducts ranks products by quantity sold in a period.
func (r *Repository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.product_id, p.name, SUM(i.qty), COALESCE(SUM(i.price * i.qty), 0)::text
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		JOIN products p ON p.id = i.product_id
		WHERE t.type = 'SALE' AND t.created_at >= $1 AND t.created_at <= $2
		GROUP BY i.product_id, p.name
		ORDER BY SUM(i.qty) DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top products: %w", err)
	}
	defer rows.Close()

	var products []TopProduct
	for rows.Next() {
		var (
			p       TopProduct
			revenue string
		)
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.QtySold, &revenue); err != nil {
			return nil, fmt.Errorf("reports: scan top product: %w", err)
		}
		if p.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// TopCustomers ranks customers by spend in a period.
func (r *Repository) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.customer_id, c.name, COUNT(*), COALESCE(SUM(t.total_amount), 0)::text
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.type = 'SALE' AND t.created_at >= $1 AND t.created_at <= $2
		GROUP BY t.customer_id, c.name
		ORDER BY SUM(t.total_amount) DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top customers: %w", err)
	}
	defer rows.Close()

	var customers []TopCustomer
	for rows.Next() {
		var (
			c     TopCustomer
			spent string
		)
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.SalesCount, &spent); err != nil {
			return nil, fmt.Errorf("reports: scan top customer: %w", err)
		}
		if c.TotalSpent, err = decimal.NewFromString(spent); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *Repository) sumQuery(ctx context.Context, query string) (decimal.Decimal, error) {
	var sum string
	if err := r.pool.QueryRow(ctx, query).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("reports: sum query: %w", err)
	}
	return decimal.NewFromString(sum)
}
