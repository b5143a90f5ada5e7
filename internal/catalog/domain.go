package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the sellable item master. Stock and HPP are denormalized running
// values: stock moves with sales, purchase receipts and opnames; HPP is
// overwritten with the latest purchase cost.
type Product struct {
	ID        string          `json:"id"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name"`
	Stock     int64           `json:"stock"`
	HPP       decimal.Decimal `json:"hpp"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	Category  string          `json:"category"`
	MinStock  int64           `json:"min_stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductInput carries the product form fields.
type ProductInput struct {
	Code     string
	Name     string
	Stock    int64
	HPP      decimal.Decimal
	Price    decimal.Decimal
	Unit     string
	Category string
	MinStock int64
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search   string
	Category string
	Page     int
	PerPage  int
}

const maxCodeLength = 20

var (
	// ErrNotFound indicates a missing product.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrDuplicateCode indicates the product code is already used.
	ErrDuplicateCode = errors.New("catalog: product code already used")
	// ErrInvalidInput indicates missing or malformed product fields.
	ErrInvalidInput = errors.New("catalog: name, unit and non-negative amounts required")
	// ErrCodeTooLong indicates the product code exceeds the allowed length.
	ErrCodeTooLong = errors.New("catalog: product code too long")
)
