package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/platform/db"
	"github.com/tokobatu/pos-ledger/internal/shared"
)

// Repository persists the product master in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, COALESCE(code, ''), name, stock, hpp::text, price::text, unit, category, min_stock, created_at, updated_at`

// Insert stores a new product.
func (r *Repository) Insert(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, code, name, stock, hpp, price, unit, category, min_stock)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		p.ID, p.Code, p.Name, p.Stock, p.HPP.String(), p.Price.String(), p.Unit, p.Category, p.MinStock)
	created, err := scanProduct(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, ErrDuplicateCode
		}
		return Product{}, fmt.Errorf("catalog: insert product: %w", err)
	}
	return created, nil
}

// Update replaces the master fields of a product. Stock is included because
// the product form allows manual correction, matching the original behaviour.
func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET code = NULLIF($2, ''), name = $3, stock = $4, hpp = $5, price = $6,
		    unit = $7, category = $8, min_stock = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Code, p.Name, p.Stock, p.HPP.String(), p.Price.String(), p.Unit, p.Category, p.MinStock)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Product{}, ErrDuplicateCode
		}
		return Product{}, fmt.Errorf("catalog: update product: %w", err)
	}
	return updated, nil
}

// Delete hard-deletes a product.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one product by id.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("catalog: get product: %w", err)
	}
	return p, nil
}

// List returns products matching the filter, name-ordered.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
	          AND ($2 = '' OR category = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where,
		filter.Search, filter.Category).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("catalog: count products: %w", err)
	}
	page := shared.NewPagination(filter.Page, filter.PerPage, total)

	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products `+where+`
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		filter.Search, filter.Category, page.PerPage, page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, page, nil
}

// ListLowStock returns products at or below their minimum stock threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE stock <= min_stock
		ORDER BY stock`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list low stock: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p          Product
		hpp, price string
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Stock, &hpp, &price,
		&p.Unit, &p.Category, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	var err error
	if p.HPP, err = decimal.NewFromString(hpp); err != nil {
		return Product{}, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, err
	}
	return p, nil
}
