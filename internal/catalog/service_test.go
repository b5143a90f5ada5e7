package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

type memoryRepo struct {
	products map[string]Product
	codes    map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: map[string]Product{}, codes: map[string]string{}}
}

func (r *memoryRepo) Insert(ctx context.Context, p Product) (Product, error) {
	if p.Code != "" {
		if _, taken := r.codes[p.Code]; taken {
			return Product{}, ErrDuplicateCode
		}
		r.codes[p.Code] = p.ID
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, p Product) (Product, error) {
	existing, ok := r.products[p.ID]
	if !ok {
		return Product{}, ErrNotFound
	}
	if p.Code != "" {
		if owner, taken := r.codes[p.Code]; taken && owner != p.ID {
			return Product{}, ErrDuplicateCode
		}
		r.codes[p.Code] = p.ID
	}
	if existing.Code != "" && existing.Code != p.Code {
		delete(r.codes, existing.Code)
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.codes, p.Code)
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	var result []Product
	for _, p := range r.products {
		if filter.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			result = append(result, p)
		}
	}
	return result, shared.NewPagination(filter.Page, filter.PerPage, len(result)), nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]Product, error) {
	var result []Product
	for _, p := range r.products {
		if p.Stock <= p.MinStock {
			result = append(result, p)
		}
	}
	return result, nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCreateProductNormalizesInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	product, err := svc.Create(context.Background(), ProductInput{
		Code:  " brk-01 ",
		Name:  "Batu Split",
		Unit:  "m3",
		HPP:   d("250000"),
		Price: d("300000"),
	})
	require.NoError(t, err)
	require.Equal(t, "BRK-01", product.Code)
	require.Equal(t, "UMUM", product.Category)
	require.NotEmpty(t, product.ID)
}

func TestCreateProductDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Code: "BRK-01", Name: "Batu Split", Unit: "m3"})
	require.NoError(t, err)

	// Codes are normalized before the uniqueness check, so the lowercase
	// variant collides too.
	_, err = svc.Create(ctx, ProductInput{Code: "brk-01", Name: "Batu Kali", Unit: "m3"})
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, ProductInput{Unit: "m3"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, ProductInput{Name: "Pasir"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, ProductInput{Name: "Pasir", Unit: "m3", HPP: d("-1")})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, ProductInput{Name: "Pasir", Unit: "m3", Stock: -1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, ProductInput{
		Name: "Pasir", Unit: "m3",
		Code: strings.Repeat("X", 21),
	})
	require.ErrorIs(t, err, ErrCodeTooLong)
}

func TestLowStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	low, err := svc.Create(ctx, ProductInput{Name: "Semen", Unit: "sak", Stock: 2, MinStock: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ProductInput{Name: "Pasir", Unit: "m3", Stock: 50, MinStock: 5})
	require.NoError(t, err)

	products, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, low.ID, products[0].ID)
}

func TestDeleteProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	product, err := svc.Create(ctx, ProductInput{Name: "Semen", Unit: "sak"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, product.ID))
	_, err = svc.Get(ctx, product.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, "ghost"), ErrNotFound)
}
