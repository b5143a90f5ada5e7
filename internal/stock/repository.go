package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/platform/db"
	"github.com/tokobatu/pos-ledger/internal/shared"
)

// Repository persists stock opnames and movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetProductStockForUpdate(ctx context.Context, productID string) (int64, error)
	InsertOpname(ctx context.Context, o Opname) (Opname, error)
	SetProductStock(ctx context.Context, productID string, stock int64) error
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

func (r *txRepo) GetProductStockForUpdate(ctx context.Context, productID string) (int64, error) {
	var stock int64
	err := r.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("stock: lock product: %w", err)
	}
	return stock, nil
}

func (r *txRepo) InsertOpname(ctx context.Context, o Opname) (Opname, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_opnames (product_id, stock_system, stock_actual, difference, reason, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, date`,
		o.ProductID, o.StockSystem, o.StockActual, o.Difference, o.Reason, o.Note,
	).Scan(&o.ID, &o.Date)
	if err != nil {
		return Opname{}, fmt.Errorf("stock: insert opname: %w", err)
	}
	return o, nil
}

func (r *txRepo) SetProductStock(ctx context.Context, productID string, stock int64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, productID, stock)
	if err != nil {
		return fmt.Errorf("stock: set product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// InsertMovementTx appends a stock movement inside the caller's transaction.
// Sales and purchase receipts call this alongside their stock adjustments so
// the audit trail and the stock change commit or roll back together.
func InsertMovementTx(ctx context.Context, q db.Querier, m Movement) error {
	date := m.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO stock_movements (date, product_id, type, qty, hpp, price, stock_after,
		                             ref_type, ref_id, partner_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))`,
		date, m.ProductID, string(m.Type), m.Qty,
		m.HPP.String(), m.Price.String(), m.StockAfter,
		m.RefType, m.RefID, m.PartnerName, m.Status)
	if err != nil {
		return fmt.Errorf("stock: insert movement: %w", err)
	}
	return nil
}

// ListMovements returns movements newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, shared.Pagination, error) {
	where := "WHERE 1=1"
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, v)
	}
	if filter.ProductID != "" {
		add("product_id =", filter.ProductID)
	}
	if filter.Type != "" {
		add("type =", string(filter.Type))
	}
	if !filter.From.IsZero() {
		add("date >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("date <=", filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_movements "+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("stock: count movements: %w", err)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	query := fmt.Sprintf(`
		SELECT id, date, product_id, type, qty, hpp::text, price::text, stock_after,
		       COALESCE(ref_type, ''), COALESCE(ref_id, ''), COALESCE(partner_name, ''), COALESCE(status, '')
		FROM stock_movements %s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("stock: list movements: %w", err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var (
			m          Movement
			typ        string
			hpp, price string
		)
		if err := rows.Scan(&m.ID, &m.Date, &m.ProductID, &typ, &m.Qty, &hpp, &price,
			&m.StockAfter, &m.RefType, &m.RefID, &m.PartnerName, &m.Status); err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("stock: scan movement: %w", err)
		}
		m.Type = MovementType(typ)
		if m.HPP, err = decimal.NewFromString(hpp); err != nil {
			return nil, shared.Pagination{}, err
		}
		if m.Price, err = decimal.NewFromString(price); err != nil {
			return nil, shared.Pagination{}, err
		}
		movements = append(movements, m)
	}
	return movements, page, rows.Err()
}

// ListOpnames returns opname history, optionally filtered by product.
func (r *Repository) ListOpnames(ctx context.Context, productID string, limit int) ([]Opname, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.product_id, p.name, o.stock_system, o.stock_actual, o.difference,
		       COALESCE(o.reason, ''), COALESCE(o.note, ''), o.date
		FROM stock_opnames o
		JOIN products p ON p.id = o.product_id
		WHERE ($1 = '' OR o.product_id = $1)
		ORDER BY o.date DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock: list opnames: %w", err)
	}
	defer rows.Close()

	var opnames []Opname
	for rows.Next() {
		var o Opname
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.StockSystem,
			&o.StockActual, &o.Difference, &o.Reason, &o.Note, &o.Date); err != nil {
			return nil, fmt.Errorf("stock: scan opname: %w", err)
		}
		opnames = append(opnames, o)
	}
	return opnames, rows.Err()
}
