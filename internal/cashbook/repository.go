package cashbook

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

// Repository persists the cash ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional ledger operations used by the service.
type TxRepository interface {
	LockTail(ctx context.Context) (decimal.Decimal, error)
	Append(ctx context.Context, p AppendParams) (Entry, error)
	FindExpense(ctx context.Context, category string, from, to time.Time) (Entry, error)
	UpdateExpenseAmount(ctx context.Context, id int64, amount, balance decimal.Decimal) error
	DeleteEntry(ctx context.Context, id int64) error
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

func (r *txRepo) LockTail(ctx context.Context) (decimal.Decimal, error) {
	return LockTail(ctx, r.tx)
}

func (r *txRepo) Append(ctx context.Context, p AppendParams) (Entry, error) {
	return AppendTx(ctx, r.tx, p)
}

func (r *txRepo) FindExpense(ctx context.Context, category string, from, to time.Time) (Entry, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, type, category, description, amount::text, balance::text, date,
		       COALESCE(ref_type, ''), COALESCE(ref_id, ''), created_at
		FROM cash_entries
		WHERE type = 'CREDIT' AND category = $1 AND date >= $2 AND date <= $3
		ORDER BY date
		LIMIT 1`, category, from, to)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("cashbook: find expense: %w", err)
	}
	return entry, nil
}

func (r *txRepo) UpdateExpenseAmount(ctx context.Context, id int64, amount, balance decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE cash_entries SET amount = $2, balance = $3 WHERE id = $1`,
		id, amount.String(), balance.String())
	if err != nil {
		return fmt.Errorf("cashbook: update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepo) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM cash_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("cashbook: delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Balance returns the running balance at the ledger tail.
func (r *Repository) Balance(ctx context.Context) (decimal.Decimal, error) {
	return TailBalance(ctx, r.pool)
}

// ListEntries returns ledger entries newest first.
func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, shared.Pagination, error) {
	where := "WHERE 1=1"
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		where += fmt.Sprintf(" AND %s $%d", cond, n)
		args = append(args, v)
	}
	if filter.Type != "" {
		add("type =", string(filter.Type))
	}
	if filter.Category != "" {
		add("category =", filter.Category)
	}
	if !filter.From.IsZero() {
		add("date >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("date <=", filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cash_entries "+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("cashbook: count entries: %w", err)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	query := fmt.Sprintf(`
		SELECT id, type, category, description, amount::text, balance::text, date,
		       COALESCE(ref_type, ''), COALESCE(ref_id, ''), created_at
		FROM cash_entries %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("cashbook: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("cashbook: scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, page, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		entry       Entry
		typ         string
		amount, bal string
	)
	if err := row.Scan(&entry.ID, &typ, &entry.Category, &entry.Description,
		&amount, &bal, &entry.Date, &entry.RefType, &entry.RefID, &entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	entry.Type = EntryType(typ)
	var err error
	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return Entry{}, err
	}
	if entry.Balance, err = decimal.NewFromString(bal); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
