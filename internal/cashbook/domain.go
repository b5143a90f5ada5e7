package cashbook

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType marks the direction of a cash ledger entry.
type EntryType string

const (
	// EntryDebit is cash in.
	EntryDebit EntryType = "DEBIT"
	// EntryCredit is cash out.
	EntryCredit EntryType = "CREDIT"
)

// Ledger categories written by the compound operations.
const (
	CategorySales     = "PENJUALAN"
	CategoryPurchases = "PEMBELIAN"
)

// Reference types linking entries back to the operation that produced them.
const (
	RefSale       = "SALE"
	RefPurchase   = "PURCHASE"
	RefPaymentOut = "PAYMENT_OUT"
)

// Entry is one row of the cash ledger. Balance is the materialized running
// total at the time the entry was appended; insertion order (created_at, id)
// defines the chain, not the business date.
type Entry struct {
	ID          int64           `json:"id"`
	Type        EntryType       `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Date        time.Time       `json:"date"`
	RefType     string          `json:"ref_type,omitempty"`
	RefID       string          `json:"ref_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AppendParams describes an entry to append to the ledger tail.
type AppendParams struct {
	Type        EntryType
	Category    string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	RefType     string
	RefID       string
}

// RecordInput is a manual cash entry from the cashbook form.
type RecordInput struct {
	Type        EntryType
	Category    string
	Description string
	Amount      decimal.Decimal
}

// MonthlyExpenseInput upserts a recurring expense entry for a month.
type MonthlyExpenseInput struct {
	Category string
	Amount   decimal.Decimal
	Month    int
	Year     int
}

// EntryFilter narrows ledger listings.
type EntryFilter struct {
	Type     EntryType
	Category string
	From     time.Time
	To       time.Time
	Page     int
	PerPage  int
}

var (
	// ErrInvalidType indicates an unknown entry type.
	ErrInvalidType = errors.New("cashbook: entry type must be DEBIT or CREDIT")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("cashbook: amount must be positive")
	// ErrNegativeAmount indicates a negative monthly expense amount.
	ErrNegativeAmount = errors.New("cashbook: amount must not be negative")
	// ErrCategoryRequired indicates a missing category.
	ErrCategoryRequired = errors.New("cashbook: category required")
	// ErrInvalidMonth indicates an out-of-range month or year.
	ErrInvalidMonth = errors.New("cashbook: month must be 1-12 and year positive")
	// ErrEntryNotFound indicates a missing ledger entry.
	ErrEntryNotFound = errors.New("cashbook: entry not found")
)

// NewBalance applies an entry amount to the previous running balance.
func NewBalance(last decimal.Decimal, typ EntryType, amount decimal.Decimal) decimal.Decimal {
	if typ == EntryDebit {
		return last.Add(amount)
	}
	return last.Sub(amount)
}
