package stock

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates stock movement directions.
type MovementType string

const (
	// MovementIn is stock received from a purchase.
	MovementIn MovementType = "IN"
	// MovementOut is stock issued by a sale.
	MovementOut MovementType = "OUT"
)

// Movement is one append-only stock audit row. HPP and Price are snapshots at
// the moment of the movement; StockAfter is the product stock the movement
// left behind.
type Movement struct {
	ID          int64           `json:"id"`
	Date        time.Time       `json:"date"`
	ProductID   string          `json:"product_id"`
	Type        MovementType    `json:"type"`
	Qty         int64           `json:"qty"`
	HPP         decimal.Decimal `json:"hpp"`
	Price       decimal.Decimal `json:"price"`
	StockAfter  int64           `json:"stock_after"`
	RefType     string          `json:"ref_type,omitempty"`
	RefID       string          `json:"ref_id,omitempty"`
	PartnerName string          `json:"partner_name,omitempty"`
	Status      string          `json:"status,omitempty"`
}

// Opname is an immutable physical-count reconciliation record.
type Opname struct {
	ID          int64     `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	StockSystem int64     `json:"stock_system"`
	StockActual int64     `json:"stock_actual"`
	Difference  int64     `json:"difference"`
	Reason      string    `json:"reason,omitempty"`
	Note        string    `json:"note,omitempty"`
	Date        time.Time `json:"date"`
}

// OpnameInput describes a physical count submission.
type OpnameInput struct {
	ProductID   string
	StockActual int64
	Reason      string
	Note        string
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID string
	Type      MovementType
	From      time.Time
	To        time.Time
	Page      int
	PerPage   int
}

var (
	// ErrProductNotFound indicates a missing product row.
	ErrProductNotFound = errors.New("stock: product not found")
	// ErrProductRequired indicates a missing product id.
	ErrProductRequired = errors.New("stock: product required")
	// ErrNegativeActual indicates a negative counted stock.
	ErrNegativeActual = errors.New("stock: counted stock must not be negative")
)
