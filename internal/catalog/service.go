package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error)
	ListLowStock(ctx context.Context) ([]Product, error)
}

// Service manages the product master.
type Service struct {
	repo  RepositoryPort
	views *shared.ViewInvalidator
}

// NewService builds Service.
func NewService(repo RepositoryPort, views *shared.ViewInvalidator) *Service {
	return &Service{repo: repo, views: views}
}

// Create adds a product. Codes are normalized to upper case; a duplicate code
// surfaces as ErrDuplicateCode so the caller can show a precise message.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	p, err := productFromInput(input)
	if err != nil {
		return Product{}, err
	}
	p.ID = uuid.NewString()

	created, err := s.repo.Insert(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewDashboard)
	return created, nil
}

// Update replaces the product master fields.
func (s *Service) Update(ctx context.Context, id string, input ProductInput) (Product, error) {
	p, err := productFromInput(input)
	if err != nil {
		return Product{}, err
	}
	p.ID = id

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewDashboard)
	return updated, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.views.Invalidate(ctx, shared.ViewProducts, shared.ViewDashboard)
	return nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns products for the catalog page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	return s.repo.List(ctx, filter)
}

// LowStock returns products at or below their minimum stock threshold.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

func productFromInput(input ProductInput) (Product, error) {
	name := strings.TrimSpace(input.Name)
	unit := strings.TrimSpace(input.Unit)
	if name == "" || unit == "" || input.Stock < 0 || input.MinStock < 0 ||
		input.HPP.IsNegative() || input.Price.IsNegative() {
		return Product{}, ErrInvalidInput
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if len(code) > maxCodeLength {
		return Product{}, ErrCodeTooLong
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "UMUM"
	}
	return Product{
		Code:     code,
		Name:     name,
		Stock:    input.Stock,
		HPP:      input.HPP,
		Price:    input.Price,
		Unit:     unit,
		Category: category,
		MinStock: input.MinStock,
	}, nil
}
