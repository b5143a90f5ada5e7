package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/platform/db"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

// Repository persists purchases in PostgreSQL.
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

func (r *txRepo) GetSupplierName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx, `SELECT name FROM suppliers WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSupplierNotFound
		}
		return "", fmt.Errorf("purchasing: get supplier: %w", err)
	}
	return name, nil
}

func (r *txRepo) InsertPurchase(ctx context.Context, p Purchase) (Purchase, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO purchases (id, supplier_id, total_amount, paid_amount, remaining, status, invoice_no, note)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING created_at`,
		p.ID, p.SupplierID, p.TotalAmount.String(), p.PaidAmount.String(),
		p.Remaining.String(), string(p.Status), p.InvoiceNo, p.Note,
	).Scan(&p.CreatedAt)
	if err != nil {
		return Purchase{}, fmt.Errorf("purchasing: insert purchase: %w", err)
	}
	return p, nil
}

func (r *txRepo) InsertPurchaseItems(ctx context.Context, purchaseID string, items []PurchaseItem) error {
	for _, item := range items {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, qty, cost)
			VALUES ($1, $2, $3, $4)`,
			purchaseID, item.ProductID, item.Qty, item.Cost.String())
		if err != nil {
			return fmt.Errorf("purchasing: insert purchase item: %w", err)
		}
	}
	return nil
}

// AddProductStockSetCost increments stock and overwrites HPP in one statement
// and returns the resulting stock.
func (r *txRepo) AddProductStockSetCost(ctx context.Context, productID string, qty int64, cost decimal.Decimal) (int64, error) {
	var stockAfter int64
	err := r.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, hpp = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING stock`, productID, qty, cost.String()).Scan(&stockAfter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("purchasing: add stock: %w", err)
	}
	return stockAfter, nil
}

func (r *txRepo) InsertStockMovement(ctx context.Context, m stock.Movement) error {
	return stock.InsertMovementTx(ctx, r.tx, m)
}

func (r *txRepo) AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE suppliers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		supplierID, delta.String())
	if err != nil {
		return fmt.Errorf("purchasing: adjust supplier balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *txRepo) AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error) {
	return cashbook.AppendTx(ctx, r.tx, p)
}

const purchaseColumns = `p.id, p.supplier_id, s.name, p.total_amount::text, p.paid_amount::text,
	p.remaining::text, p.status, COALESCE(p.invoice_no, ''), COALESCE(p.note, ''), p.created_at`

// List returns purchases newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Purchase, shared.Pagination, error) {
	where := "WHERE 1=1"
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, v)
	}
	if filter.SupplierID != "" {
		add("p.supplier_id =", filter.SupplierID)
	}
	if filter.Status != "" {
		add("p.status =", string(filter.Status))
	}
	if !filter.From.IsZero() {
		add("p.created_at >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("p.created_at <=", filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM purchases p "+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("purchasing: count purchases: %w", err)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	query := fmt.Sprintf(`
		SELECT %s
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d`, purchaseColumns, where, n+1, n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("purchasing: list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("purchasing: scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	return purchases, page, rows.Err()
}

// Get returns one purchase with its items.
func (r *Repository) Get(ctx context.Context, id string) (Purchase, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.id = $1`, id)
	purchase, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, fmt.Errorf("purchasing: get purchase: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.purchase_id, i.product_id, pr.name, i.qty, i.cost::text
		FROM purchase_items i
		JOIN products pr ON pr.id = i.product_id
		WHERE i.purchase_id = $1
		ORDER BY i.id`, id)
	if err != nil {
		return Purchase{}, fmt.Errorf("purchasing: get purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item PurchaseItem
			cost string
		)
		if err := rows.Scan(&item.ID, &item.PurchaseID, &item.ProductID, &item.ProductName,
			&item.Qty, &cost); err != nil {
			return Purchase{}, fmt.Errorf("purchasing: scan purchase item: %w", err)
		}
		if item.Cost, err = decimal.NewFromString(cost); err != nil {
			return Purchase{}, err
		}
		purchase.Items = append(purchase.Items, item)
	}
	return purchase, rows.Err()
}

func scanPurchase(row pgx.Row) (Purchase, error) {
	var (
		p                     Purchase
		status                string
		total, paid, remained string
	)
	if err := row.Scan(&p.ID, &p.SupplierID, &p.SupplierName, &total, &paid,
		&remained, &status, &p.InvoiceNo, &p.Note, &p.CreatedAt); err != nil {
		return Purchase{}, err
	}
	p.Status = PurchaseStatus(status)
	var err error
	if p.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return Purchase{}, err
	}
	if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return Purchase{}, err
	}
	if p.Remaining, err = decimal.NewFromString(remained); err != nil {
		return Purchase{}, err
	}
	return p, nil
}
