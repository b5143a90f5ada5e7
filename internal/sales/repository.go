package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/partners"
	"github.com/tokobatu/pos-ledger/internal/platform/db"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *txRepo) GetCustomerName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx, `SELECT name FROM customers WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", partners.ErrCustomerNotFound
		}
		return "", fmt.Errorf("sales: get customer: %w", err)
	}
	return name, nil
}

func (r *txRepo) InsertSale(ctx context.Context, s Sale) (Sale, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO transactions (id, customer_id, total_amount, paid_amount, remaining,
		                          status, type, payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, 'SALE', $7, NULLIF($8, ''))
		RETURNING created_at`,
		s.ID, s.CustomerID, s.TotalAmount.String(), s.PaidAmount.String(),
		s.Remaining.String(), string(s.Status), s.PaymentMethod, s.Note,
	).Scan(&s.CreatedAt)
	if err != nil {
		return Sale{}, fmt.Errorf("sales: insert sale: %w", err)
	}
	return s, nil
}

func (r *txRepo) InsertSaleItems(ctx context.Context, saleID string, items []SaleItem) error {
	for _, item := range items {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, qty, price, cost)
			VALUES ($1, $2, $3, $4, $5)`,
			saleID, item.ProductID, item.Qty, item.Price.String(), item.Cost.String())
		if err != nil {
			return fmt.Errorf("sales: insert sale item: %w", err)
		}
	}
	return nil
}

// ReduceProductStock applies the decrement as one relative update and returns
// the resulting stock. The stock may go negative; availability is not checked
// at this layer.
func (r *txRepo) ReduceProductStock(ctx context.Context, productID string, qty int64) (int64, error) {
	var stockAfter int64
	err := r.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock`, productID, qty).Scan(&stockAfter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("sales: reduce stock: %w", err)
	}
	return stockAfter, nil
}

func (r *txRepo) InsertStockMovement(ctx context.Context, m stock.Movement) error {
	return stock.InsertMovementTx(ctx, r.tx, m)
}

func (r *txRepo) AddCustomerBalance(ctx context.Context, customerID string, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE customers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		customerID, delta.String())
	if err != nil {
		return fmt.Errorf("sales: adjust customer balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return partners.ErrCustomerNotFound
	}
	return nil
}

func (r *txRepo) AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error) {
	return cashbook.AppendTx(ctx, r.tx, p)
}

const saleColumns = `t.id, t.customer_id, c.name, t.total_amount::text, t.paid_amount::text,
	t.remaining::text, t.status, COALESCE(t.payment_method, ''), COALESCE(t.note, ''), t.created_at`

// List returns sales newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Sale, shared.Pagination, error) {
	where := "WHERE t.type = 'SALE'"
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, v)
	}
	if filter.CustomerID != "" {
		add("t.customer_id =", filter.CustomerID)
	}
	if filter.Status != "" {
		add("t.status =", string(filter.Status))
	}
	if !filter.From.IsZero() {
		add("t.created_at >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("t.created_at <=", filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM transactions t "+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("sales: count sales: %w", err)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		%s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d`, saleColumns, where, n+1, n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("sales: list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("sales: scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, page, rows.Err()
}

// Get returns one sale with its items.
func (r *Repository) Get(ctx context.Context, id string) (Sale, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, fmt.Errorf("sales: get sale: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.transaction_id, i.product_id, p.name, i.qty, i.price::text, i.cost::text
		FROM transaction_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.transaction_id = $1
		ORDER BY i.id`, id)
	if err != nil {
		return Sale{}, fmt.Errorf("sales: get sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item        SaleItem
			price, cost string
		)
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Qty, &price, &cost); err != nil {
			return Sale{}, fmt.Errorf("sales: scan sale item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return Sale{}, err
		}
		if item.Cost, err = decimal.NewFromString(cost); err != nil {
			return Sale{}, err
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, rows.Err()
}

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s                     Sale
		status                string
		total, paid, remained string
	)
	if err := row.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &total, &paid,
		&remained, &status, &s.PaymentMethod, &s.Note, &s.CreatedAt); err != nil {
		return Sale{}, err
	}
	s.Status = SaleStatus(status)
	var err error
	if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return Sale{}, err
	}
	if s.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return Sale{}, err
	}
	if s.Remaining, err = decimal.NewFromString(remained); err != nil {
		return Sale{}, err
	}
	return s, nil
}
