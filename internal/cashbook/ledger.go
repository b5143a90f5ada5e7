package cashbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/platform/db"
)

// ledgerLockID serialises the read-tail-then-append sequence across concurrent
// transactions. Every writer takes this advisory lock before reading the tail
// balance, so no two entries can ever be derived from the same predecessor.
// The lock is transaction-scoped and released automatically on commit/rollback.
// Requires the read-committed isolation db.WithTx opens: the tail read runs on
// a post-lock statement snapshot and therefore sees entries committed while
// the writer was queued on the lock.
const ledgerLockID = int64(0x636173686c64) // "cashld"

// LockTail takes the ledger advisory lock and returns the current tail
// balance, zero when the ledger is still empty. Must run inside a transaction.
func LockTail(ctx context.Context, q db.Querier) (decimal.Decimal, error) {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockID); err != nil {
		return decimal.Zero, fmt.Errorf("cashbook: lock ledger tail: %w", err)
	}
	var raw string
	err := q.QueryRow(ctx, `
		SELECT balance::text
		FROM cash_entries
		ORDER BY created_at DESC, id DESC
		LIMIT 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("cashbook: read ledger tail: %w", err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cashbook: parse tail balance: %w", err)
	}
	return balance, nil
}

// AppendTx appends an entry to the ledger inside the caller's transaction,
// deriving its running balance from the locked tail. Sales, purchases and
// supplier payments all flow through here so the balance chain has a single
// implementation.
func AppendTx(ctx context.Context, q db.Querier, p AppendParams) (Entry, error) {
	last, err := LockTail(ctx, q)
	if err != nil {
		return Entry{}, err
	}

	date := p.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	entry := Entry{
		Type:        p.Type,
		Category:    p.Category,
		Description: p.Description,
		Amount:      p.Amount,
		Balance:     NewBalance(last, p.Type, p.Amount),
		Date:        date,
		RefType:     p.RefType,
		RefID:       p.RefID,
	}

	err = q.QueryRow(ctx, `
		INSERT INTO cash_entries (type, category, description, amount, balance, date, ref_type, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at`,
		string(entry.Type), entry.Category, entry.Description,
		entry.Amount.String(), entry.Balance.String(), entry.Date,
		entry.RefType, entry.RefID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("cashbook: insert entry: %w", err)
	}
	return entry, nil
}

// TailBalance reads the current running balance without locking. Read paths
// (dashboard, reports) use this; writers must go through LockTail.
func TailBalance(ctx context.Context, q db.Querier) (decimal.Decimal, error) {
	var raw string
	err := q.QueryRow(ctx, `
		SELECT balance::text
		FROM cash_entries
		ORDER BY created_at DESC, id DESC
		LIMIT 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("cashbook: read tail balance: %w", err)
	}
	return decimal.NewFromString(raw)
}
