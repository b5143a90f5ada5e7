package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/partners"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Sale, shared.Pagination, error)
	Get(ctx context.Context, id string) (Sale, error)
}

// TxRepository exposes the writes a checkout performs atomically.
type TxRepository interface {
	GetCustomerName(ctx context.Context, id string) (string, error)
	InsertSale(ctx context.Context, s Sale) (Sale, error)
	InsertSaleItems(ctx context.Context, saleID string, items []SaleItem) error
	ReduceProductStock(ctx context.Context, productID string, qty int64) (int64, error)
	InsertStockMovement(ctx context.Context, m stock.Movement) error
	AddCustomerBalance(ctx context.Context, customerID string, delta decimal.Decimal) error
	AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error)
}

// Service coordinates checkout.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// Create posts a sale. Everything the checkout touches — header, item
// snapshots, stock decrements, the OUT movements, the customer's tab and the
// cash ledger entry — commits or rolls back as one unit. No stock
// availability check is made here: quantities beyond stock go negative by
// business rule (backorder).
func (s *Service) Create(ctx context.Context, input CreateInput) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrEmptyCart
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return Sale{}, ErrInvalidQty
		}
	}
	if input.PaidAmount.IsNegative() {
		return Sale{}, ErrInvalidPaidAmount
	}

	totalAmount := decimal.Zero
	for _, line := range input.Lines {
		totalAmount = totalAmount.Add(line.Price.Mul(decimal.NewFromInt(line.Qty)))
	}
	remaining := totalAmount.Sub(input.PaidAmount)
	status := StatusOwing
	paymentMethod := PaymentMethodPartial
	if !remaining.IsPositive() {
		status = StatusPaid
		paymentMethod = input.PaymentMethod
	}

	sale := Sale{
		ID:            uuid.NewString(),
		CustomerID:    input.CustomerID,
		TotalAmount:   totalAmount,
		PaidAmount:    input.PaidAmount,
		Remaining:     remaining,
		Status:        status,
		PaymentMethod: paymentMethod,
		Note:          input.Note,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customerID, customerName, err := resolveCustomer(ctx, tx, input.CustomerID)
		if err != nil {
			return err
		}
		sale.CustomerID = customerID
		sale.CustomerName = customerName

		if sale, err = tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		items := make([]SaleItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			items = append(items, SaleItem{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Price:     line.Price,
				Cost:      line.Cost,
			})
		}
		if err := tx.InsertSaleItems(ctx, sale.ID, items); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, line := range input.Lines {
			stockAfter, err := tx.ReduceProductStock(ctx, line.ProductID, line.Qty)
			if err != nil {
				return err
			}
			err = tx.InsertStockMovement(ctx, stock.Movement{
				Date:        now,
				ProductID:   line.ProductID,
				Type:        stock.MovementOut,
				Qty:         line.Qty,
				HPP:         line.Cost,
				Price:       line.Price,
				StockAfter:  stockAfter,
				RefType:     cashbook.RefSale,
				RefID:       sale.ID,
				PartnerName: customerName,
				Status:      string(status),
			})
			if err != nil {
				return err
			}
		}

		if remaining.IsPositive() {
			if err := tx.AddCustomerBalance(ctx, customerID, remaining); err != nil {
				return err
			}
		}

		if input.PaidAmount.IsPositive() {
			_, err := tx.AppendCashEntry(ctx, cashbook.AppendParams{
				Type:        cashbook.EntryDebit,
				Category:    cashbook.CategorySales,
				Description: fmt.Sprintf("Penjualan #%s", shortID(sale.ID)),
				Amount:      input.PaidAmount,
				RefType:     cashbook.RefSale,
				RefID:       sale.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewCustomers, shared.ViewSales,
		shared.ViewCashbook, shared.ViewDashboard, shared.ViewReports)
	return sale, nil
}

// List returns sales for the transactions page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, shared.Pagination, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one sale with its items.
func (s *Service) Get(ctx context.Context, id string) (Sale, error) {
	return s.repo.Get(ctx, id)
}

// resolveCustomer returns the effective customer for a checkout: the one
// requested when it exists, otherwise the walk-in sentinel.
func resolveCustomer(ctx context.Context, tx TxRepository, customerID string) (string, string, error) {
	if customerID != "" {
		name, err := tx.GetCustomerName(ctx, customerID)
		if err == nil {
			return customerID, name, nil
		}
		if !errors.Is(err, partners.ErrCustomerNotFound) {
			return "", "", err
		}
	}
	name, err := tx.GetCustomerName(ctx, partners.WalkInCustomerID)
	if err != nil {
		if errors.Is(err, partners.ErrCustomerNotFound) {
			return "", "", ErrCustomerNotFound
		}
		return "", "", err
	}
	return partners.WalkInCustomerID, name, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
