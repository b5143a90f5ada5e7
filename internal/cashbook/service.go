package cashbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, shared.Pagination, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// Service coordinates cash ledger operations.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// Record appends a manual cash entry. The running balance is derived from the
// locked ledger tail inside one transaction.
func (s *Service) Record(ctx context.Context, input RecordInput) (Entry, error) {
	if input.Type != EntryDebit && input.Type != EntryCredit {
		return Entry{}, ErrInvalidType
	}
	if input.Category == "" {
		return Entry{}, ErrCategoryRequired
	}
	if !input.Amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}

	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.Append(ctx, AppendParams{
			Type:        input.Type,
			Category:    input.Category,
			Description: input.Description,
			Amount:      input.Amount,
		})
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.views.Invalidate(ctx, shared.ViewCashbook, shared.ViewDashboard, shared.ViewReports)
	return entry, nil
}

// UpsertMonthlyExpense creates, updates or removes the recurring expense entry
// for a category within the given month. Unlike Record this writes a
// historically dated row: the entry carries the first day of the target month
// while its stored balance is still derived from the current ledger tail, the
// same way the original bookkeeping treated monthly operating costs.
func (s *Service) UpsertMonthlyExpense(ctx context.Context, input MonthlyExpenseInput) error {
	if input.Category == "" {
		return ErrCategoryRequired
	}
	if input.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if input.Month < 1 || input.Month > 12 || input.Year <= 0 {
		return ErrInvalidMonth
	}

	start := time.Date(input.Year, time.Month(input.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		last, err := tx.LockTail(ctx)
		if err != nil {
			return err
		}

		existing, err := tx.FindExpense(ctx, input.Category, start, end)
		switch {
		case err == nil:
			if input.Amount.IsZero() {
				return tx.DeleteEntry(ctx, existing.ID)
			}
			return tx.UpdateExpenseAmount(ctx, existing.ID, input.Amount, last.Sub(input.Amount))
		case errors.Is(err, ErrEntryNotFound):
			if input.Amount.IsZero() {
				return nil
			}
			_, err = tx.Append(ctx, AppendParams{
				Type:        EntryCredit,
				Category:    input.Category,
				Description: fmt.Sprintf("Beban %s - %s %d", input.Category, monthNameID(start.Month()), input.Year),
				Amount:      input.Amount,
				Date:        start,
			})
			return err
		default:
			return err
		}
	})
	if err != nil {
		return err
	}
	s.views.Invalidate(ctx, shared.ViewCashbook, shared.ViewReports)
	return nil
}

// ListEntries returns ledger entries for the cashbook page.
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, shared.Pagination, error) {
	return s.repo.ListEntries(ctx, filter)
}

// Balance returns the current running cash balance.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.Balance(ctx)
}

func monthNameID(m time.Month) string {
	names := [...]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
	return names[m-1]
}
