package stock

import (
	"context"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, shared.Pagination, error)
	ListOpnames(ctx context.Context, productID string, limit int) ([]Opname, error)
}

// Service coordinates stock reconciliation operations.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// RecordOpname reconciles system stock with a physical count. The counted
// value overwrites the product stock; the previous system stock and the
// difference are frozen into an immutable opname record. Returns the computed
// difference for user feedback.
func (s *Service) RecordOpname(ctx context.Context, input OpnameInput) (Opname, error) {
	if input.ProductID == "" {
		return Opname{}, ErrProductRequired
	}
	if input.StockActual < 0 {
		return Opname{}, ErrNegativeActual
	}

	var opname Opname
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stockSystem, err := tx.GetProductStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		opname, err = tx.InsertOpname(ctx, Opname{
			ProductID:   input.ProductID,
			StockSystem: stockSystem,
			StockActual: input.StockActual,
			Difference:  input.StockActual - stockSystem,
			Reason:      input.Reason,
			Note:        input.Note,
		})
		if err != nil {
			return err
		}
		return tx.SetProductStock(ctx, input.ProductID, input.StockActual)
	})
	if err != nil {
		return Opname{}, err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewStock, shared.ViewDashboard)
	return opname, nil
}

// Movements lists the stock audit trail.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, shared.Pagination, error) {
	return s.repo.ListMovements(ctx, filter)
}

// OpnameHistory lists past reconciliations, optionally for one product.
func (s *Service) OpnameHistory(ctx context.Context, productID string, limit int) ([]Opname, error) {
	return s.repo.ListOpnames(ctx, productID, limit)
}
