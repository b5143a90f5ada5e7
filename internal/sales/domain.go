package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus marks whether a sale is settled.
type SaleStatus string

const (
	// StatusPaid (LUNAS) means nothing remains to collect.
	StatusPaid SaleStatus = "LUNAS"
	// StatusOwing (BON) means part of the total is on the customer's tab.
	StatusOwing SaleStatus = "BON"
)

// PaymentMethodPartial replaces the caller's payment method when a sale is
// not fully paid.
const PaymentMethodPartial = "PARTIAL"

// Sale is the checkout header. TotalAmount, Remaining and Status are derived
// once at creation and never recomputed.
type Sale struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	CustomerName  string          `json:"customer_name,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Remaining     decimal.Decimal `json:"remaining"`
	Status        SaleStatus      `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleItem      `json:"items,omitempty"`
}

// SaleItem freezes price and cost at the moment of sale so historic margin
// reports stay stable when the product master changes later.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      string          `json:"sale_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Qty         int64           `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
}

// CartLine is one line of the checkout cart. Price and Cost come from the
// cart, not the product master: the cart is the source of truth at sale time.
type CartLine struct {
	ProductID string
	Qty       int64
	Price     decimal.Decimal
	Cost      decimal.Decimal
}

// CreateInput describes a checkout submission.
type CreateInput struct {
	CustomerID    string
	Lines         []CartLine
	PaidAmount    decimal.Decimal
	PaymentMethod string
	Note          string
}

// ListFilter narrows sale listings.
type ListFilter struct {
	CustomerID string
	Status     SaleStatus
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

var (
	// ErrEmptyCart indicates a checkout with no lines.
	ErrEmptyCart = errors.New("sales: cart is empty")
	// ErrInvalidQty indicates a line with non-positive quantity.
	ErrInvalidQty = errors.New("sales: line quantity must be positive")
	// ErrInvalidPaidAmount indicates a negative paid amount.
	ErrInvalidPaidAmount = errors.New("sales: paid amount must not be negative")
	// ErrProductNotFound indicates a cart line referencing a missing product.
	ErrProductNotFound = errors.New("sales: product not found")
	// ErrCustomerNotFound indicates neither the customer nor the walk-in fallback exists.
	ErrCustomerNotFound = errors.New("sales: customer not found")
	// ErrNotFound indicates a missing sale.
	ErrNotFound = errors.New("sales: sale not found")
)
