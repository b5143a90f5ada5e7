package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Purchase, shared.Pagination, error)
	Get(ctx context.Context, id string) (Purchase, error)
}

// TxRepository exposes the writes a goods receipt performs atomically.
type TxRepository interface {
	GetSupplierName(ctx context.Context, id string) (string, error)
	InsertPurchase(ctx context.Context, p Purchase) (Purchase, error)
	InsertPurchaseItems(ctx context.Context, purchaseID string, items []PurchaseItem) error
	AddProductStockSetCost(ctx context.Context, productID string, qty int64, cost decimal.Decimal) (int64, error)
	InsertStockMovement(ctx context.Context, m stock.Movement) error
	AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error
	AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error)
}

// Service coordinates goods receipts.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// Create posts a goods receipt. Header, item snapshots, stock increments with
// the HPP overwrite, the IN movements, the supplier debt and the cash ledger
// entry commit or roll back as one unit. The last receipt for a product wins
// the HPP; there is no averaging.
func (s *Service) Create(ctx context.Context, input CreateInput) (Purchase, error) {
	if input.SupplierID == "" {
		return Purchase{}, ErrSupplierRequired
	}
	if len(input.Lines) == 0 {
		return Purchase{}, ErrNoItems
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return Purchase{}, ErrInvalidQty
		}
	}
	if input.PaidAmount.IsNegative() {
		return Purchase{}, ErrInvalidPaidAmount
	}

	totalAmount := decimal.Zero
	for _, line := range input.Lines {
		totalAmount = totalAmount.Add(line.Cost.Mul(decimal.NewFromInt(line.Qty)))
	}
	remaining := totalAmount.Sub(input.PaidAmount)
	status := StatusOwing
	if !remaining.IsPositive() {
		status = StatusPaid
	}

	purchase := Purchase{
		ID:          uuid.NewString(),
		SupplierID:  input.SupplierID,
		TotalAmount: totalAmount,
		PaidAmount:  input.PaidAmount,
		Remaining:   remaining,
		Status:      status,
		InvoiceNo:   strings.TrimSpace(input.InvoiceNo),
		Note:        input.Note,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		supplierName, err := tx.GetSupplierName(ctx, input.SupplierID)
		if err != nil {
			return err
		}
		purchase.SupplierName = supplierName

		if purchase, err = tx.InsertPurchase(ctx, purchase); err != nil {
			return err
		}

		items := make([]PurchaseItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			items = append(items, PurchaseItem{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Cost:      line.Cost,
			})
		}
		if err := tx.InsertPurchaseItems(ctx, purchase.ID, items); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, line := range input.Lines {
			stockAfter, err := tx.AddProductStockSetCost(ctx, line.ProductID, line.Qty, line.Cost)
			if err != nil {
				return err
			}
			err = tx.InsertStockMovement(ctx, stock.Movement{
				Date:        now,
				ProductID:   line.ProductID,
				Type:        stock.MovementIn,
				Qty:         line.Qty,
				HPP:         line.Cost,
				StockAfter:  stockAfter,
				RefType:     cashbook.RefPurchase,
				RefID:       purchase.ID,
				PartnerName: supplierName,
				Status:      string(status),
			})
			if err != nil {
				return err
			}
		}

		if remaining.IsPositive() {
			if err := tx.AddSupplierBalance(ctx, input.SupplierID, remaining); err != nil {
				return err
			}
		}

		if input.PaidAmount.IsPositive() {
			_, err := tx.AppendCashEntry(ctx, cashbook.AppendParams{
				Type:        cashbook.EntryCredit,
				Category:    cashbook.CategoryPurchases,
				Description: fmt.Sprintf("Pembelian #%s", shortID(purchase.ID)),
				Amount:      input.PaidAmount,
				RefType:     cashbook.RefPurchase,
				RefID:       purchase.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewSuppliers, shared.ViewPurchases,
		shared.ViewCashbook, shared.ViewDashboard, shared.ViewReports)
	return purchase, nil
}

// List returns purchases for the procurement page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Purchase, shared.Pagination, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one purchase with its items.
func (s *Service) Get(ctx context.Context, id string) (Purchase, error) {
	return s.repo.Get(ctx, id)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
