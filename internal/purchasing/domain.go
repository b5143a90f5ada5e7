package purchasing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus marks whether a purchase is settled with the supplier.
type PurchaseStatus string

const (
	// StatusPaid (LUNAS) means the supplier has been paid in full.
	StatusPaid PurchaseStatus = "LUNAS"
	// StatusOwing (HUTANG) means part of the total is owed to the supplier.
	StatusOwing PurchaseStatus = "HUTANG"
)

// Purchase is the goods-receipt header. TotalAmount, Remaining and Status are
// derived once at creation and never recomputed.
type Purchase struct {
	ID           string          `json:"id"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Status       PurchaseStatus  `json:"status"`
	InvoiceNo    string          `json:"invoice_no,omitempty"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []PurchaseItem  `json:"items,omitempty"`
}

// PurchaseItem freezes the unit cost at receipt time.
type PurchaseItem struct {
	ID          int64           `json:"id"`
	PurchaseID  string          `json:"purchase_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Qty         int64           `json:"qty"`
	Cost        decimal.Decimal `json:"cost"`
}

// ReceiptLine is one line of an incoming goods receipt. Cost becomes the
// product's new HPP.
type ReceiptLine struct {
	ProductID string
	Qty       int64
	Cost      decimal.Decimal
}

// CreateInput describes a goods-receipt submission. InvoiceNo is the
// supplier's invoice number, kept for reconciliation; it is optional.
type CreateInput struct {
	SupplierID string
	Lines      []ReceiptLine
	PaidAmount decimal.Decimal
	InvoiceNo  string
	Note       string
}

// ListFilter narrows purchase listings.
type ListFilter struct {
	SupplierID string
	Status     PurchaseStatus
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

var (
	// ErrNoItems indicates a receipt with no lines.
	ErrNoItems = errors.New("purchasing: receipt has no items")
	// ErrSupplierRequired indicates a receipt without a supplier.
	ErrSupplierRequired = errors.New("purchasing: supplier is required")
	// ErrInvalidQty indicates a line with non-positive quantity.
	ErrInvalidQty = errors.New("purchasing: line quantity must be positive")
	// ErrInvalidPaidAmount indicates a negative paid amount.
	ErrInvalidPaidAmount = errors.New("purchasing: paid amount must not be negative")
	// ErrProductNotFound indicates a receipt line referencing a missing product.
	ErrProductNotFound = errors.New("purchasing: product not found")
	// ErrSupplierNotFound indicates a missing supplier.
	ErrSupplierNotFound = errors.New("purchasing: supplier not found")
	// ErrNotFound indicates a missing purchase.
	ErrNotFound = errors.New("purchasing: purchase not found")
)
