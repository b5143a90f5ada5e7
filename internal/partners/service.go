package partners

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	EnsureWalkInCustomer(ctx context.Context) error
	InsertCustomer(ctx context.Context, c Customer) (Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context, search string) ([]Customer, error)
	InsertSupplier(ctx context.Context, s Supplier) (Supplier, error)
	UpdateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	ListSuppliers(ctx context.Context, search string) ([]Supplier, error)
}

// Service manages customers, suppliers and their payments.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// Bootstrap makes sure the walk-in customer sentinel exists.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.repo.EnsureWalkInCustomer(ctx)
}

// RecordCustomerPayment books money received from a customer: one immutable
// payment row plus one balance decrement, atomically. Overpayment is allowed
// and leaves the balance negative (credit in the business's favour).
func (s *Service) RecordCustomerPayment(ctx context.Context, customerID string, amount decimal.Decimal, note string) (Payment, error) {
	if customerID == "" {
		return Payment{}, ErrCustomerNotFound
	}
	if !amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}

	payment := Payment{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
		Method:     "CASH",
		Note:       note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if payment, err = tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		return tx.AddCustomerBalance(ctx, customerID, amount.Neg())
	})
	if err != nil {
		return Payment{}, err
	}
	s.views.Invalidate(ctx, shared.ViewCustomers, shared.ViewDashboard)
	return payment, nil
}

// RecordSupplierPayment books money paid to a supplier: payment row, balance
// decrement and a CREDIT cash ledger entry, all in one transaction.
func (s *Service) RecordSupplierPayment(ctx context.Context, supplierID string, amount decimal.Decimal, note string) (SupplierPayment, error) {
	if supplierID == "" {
		return SupplierPayment{}, ErrSupplierNotFound
	}
	if !amount.IsPositive() {
		return SupplierPayment{}, ErrInvalidAmount
	}

	payment := SupplierPayment{
		ID:         uuid.NewString(),
		SupplierID: supplierID,
		Amount:     amount,
		Method:     "CASH",
		Note:       note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if payment, err = tx.InsertSupplierPayment(ctx, payment); err != nil {
			return err
		}
		if err := tx.AddSupplierBalance(ctx, supplierID, amount.Neg()); err != nil {
			return err
		}
		_, err = tx.AppendCashEntry(ctx, cashbook.AppendParams{
			Type:        cashbook.EntryCredit,
			Category:    cashbook.CategoryPurchases,
			Description: "Bayar hutang ke supplier",
			Amount:      amount,
			RefType:     cashbook.RefPaymentOut,
			RefID:       supplierID,
		})
		return err
	})
	if err != nil {
		return SupplierPayment{}, err
	}
	s.views.Invalidate(ctx, shared.ViewSuppliers, shared.ViewCashbook, shared.ViewDashboard)
	return payment, nil
}

// CreateCustomer adds a customer.
func (s *Service) CreateCustomer(ctx context.Context, input PartnerInput) (Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Customer{}, ErrNameRequired
	}
	customer, err := s.repo.InsertCustomer(ctx, Customer{
		ID:      uuid.NewString(),
		Name:    name,
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	})
	if err != nil {
		return Customer{}, err
	}
	s.views.Invalidate(ctx, shared.ViewCustomers)
	return customer, nil
}

// UpdateCustomer replaces customer master fields.
func (s *Service) UpdateCustomer(ctx context.Context, id string, input PartnerInput) (Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Customer{}, ErrNameRequired
	}
	customer, err := s.repo.UpdateCustomer(ctx, Customer{
		ID:      id,
		Name:    name,
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	})
	if err != nil {
		return Customer{}, err
	}
	s.views.Invalidate(ctx, shared.ViewCustomers)
	return customer, nil
}

// DeleteCustomer removes a customer. The walk-in sentinel is protected.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if id == WalkInCustomerID {
		return ErrWalkInProtected
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.views.Invalidate(ctx, shared.ViewCustomers)
	return nil
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns customers matching the search.
func (s *Service) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, search)
}

// CreateSupplier adds a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input PartnerInput) (Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Supplier{}, ErrNameRequired
	}
	supplier, err := s.repo.InsertSupplier(ctx, Supplier{
		ID:      uuid.NewString(),
		Name:    name,
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	})
	if err != nil {
		return Supplier{}, err
	}
	s.views.Invalidate(ctx, shared.ViewSuppliers)
	return supplier, nil
}

// UpdateSupplier replaces supplier master fields.
func (s *Service) UpdateSupplier(ctx context.Context, id string, input PartnerInput) (Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Supplier{}, ErrNameRequired
	}
	supplier, err := s.repo.UpdateSupplier(ctx, Supplier{
		ID:      id,
		Name:    name,
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	})
	if err != nil {
		return Supplier{}, err
	}
	s.views.Invalidate(ctx, shared.ViewSuppliers)
	return supplier, nil
}

// GetSupplier returns one supplier.
func (s *Service) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListSuppliers returns suppliers matching the search.
func (s *Service) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, search)
}
