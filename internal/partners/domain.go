package partners

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// WalkInCustomerID is the reserved id for the default walk-in customer. The
// row always exists (created at startup) and cannot be deleted; sales with no
// customer selected fall back to it.
const WalkInCustomerID = "umum"

// WalkInCustomerName labels the walk-in customer.
const WalkInCustomerName = "Pelanggan Umum"

// Customer is a buyer with a running receivable balance. Positive balance
// means the customer owes the business.
type Customer struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Supplier is a vendor with a running payable balance. Positive balance means
// the business owes the supplier.
type Supplier struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Payment is an immutable record of money received from a customer.
type Payment struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SupplierPayment is an immutable record of money paid to a supplier.
type SupplierPayment struct {
	ID         string          `json:"id"`
	SupplierID string          `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PartnerInput carries the customer/supplier form fields.
type PartnerInput struct {
	Name    string
	Phone   string
	Address string
}

var (
	// ErrNameRequired indicates a missing partner name.
	ErrNameRequired = errors.New("partners: name required")
	// ErrCustomerNotFound indicates a missing customer.
	ErrCustomerNotFound = errors.New("partners: customer not found")
	// ErrSupplierNotFound indicates a missing supplier.
	ErrSupplierNotFound = errors.New("partners: supplier not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("partners: amount must be positive")
	// ErrWalkInProtected indicates an attempt to delete the walk-in customer.
	ErrWalkInProtected = errors.New("partners: walk-in customer cannot be deleted")
)
