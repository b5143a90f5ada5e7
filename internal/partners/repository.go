package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/platform/db"
)

// Repository persists customers, suppliers and their payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional payment operations used by the service.
type TxRepository interface {
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	InsertSupplierPayment(ctx context.Context, p SupplierPayment) (SupplierPayment, error)
	AddCustomerBalance(ctx context.Context, customerID string, delta decimal.Decimal) error
	AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error
	AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *txRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO payments (id, customer_id, amount, method, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at`,
		p.ID, p.CustomerID, p.Amount.String(), p.Method, p.Note).Scan(&p.CreatedAt)
	if err != nil {
		return Payment{}, fmt.Errorf("partners: insert payment: %w", err)
	}
	return p, nil
}

func (r *txRepo) InsertSupplierPayment(ctx context.Context, p SupplierPayment) (SupplierPayment, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO supplier_payments (id, supplier_id, amount, method, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at`,
		p.ID, p.SupplierID, p.Amount.String(), p.Method, p.Note).Scan(&p.CreatedAt)
	if err != nil {
		return SupplierPayment{}, fmt.Errorf("partners: insert supplier payment: %w", err)
	}
	return p, nil
}

// AddCustomerBalance applies a signed delta as a single relative update so
// concurrent payments against the same customer cannot lose updates.
func (r *txRepo) AddCustomerBalance(ctx context.Context, customerID string, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE customers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		customerID, delta.String())
	if err != nil {
		return fmt.Errorf("partners: adjust customer balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// AddSupplierBalance is the supplier-side twin of AddCustomerBalance.
func (r *txRepo) AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE suppliers SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		supplierID, delta.String())
	if err != nil {
		return fmt.Errorf("partners: adjust supplier balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *txRepo) AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error) {
	return cashbook.AppendTx(ctx, r.tx, p)
}

const customerColumns = `id, name, COALESCE(phone, ''), COALESCE(address, ''), balance::text, created_at, updated_at`

// EnsureWalkInCustomer creates the reserved walk-in customer row if missing.
// Called once at startup so the sale fallback can rely on its existence.
func (r *Repository) EnsureWalkInCustomer(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, name, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (id) DO NOTHING`,
		WalkInCustomerID, WalkInCustomerName)
	if err != nil {
		return fmt.Errorf("partners: ensure walk-in customer: %w", err)
	}
	return nil
}

// InsertCustomer stores a new customer.
func (r *Repository) InsertCustomer(ctx context.Context, c Customer) (Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (id, name, phone, address, balance)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), 0)
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Address)
	created, err := scanCustomer(row)
	if err != nil {
		return Customer{}, fmt.Errorf("partners: insert customer: %w", err)
	}
	return created, nil
}

// UpdateCustomer replaces customer master fields (balance untouched).
func (r *Repository) UpdateCustomer(ctx context.Context, c Customer) (Customer, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, phone = NULLIF($3, ''), address = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Address)
	updated, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("partners: update customer: %w", err)
	}
	return updated, nil
}

// DeleteCustomer hard-deletes a customer.
func (r *Repository) DeleteCustomer(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("partners: delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// GetCustomer returns one customer.
func (r *Repository) GetCustomer(ctx context.Context, id string) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("partners: get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns customers name-ordered, optionally filtered by search.
func (r *Repository) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name`, search)
	if err != nil {
		return nil, fmt.Errorf("partners: list customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("partners: scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

const supplierColumns = `id, name, COALESCE(phone, ''), COALESCE(address, ''), balance::text, created_at, updated_at`

// InsertSupplier stores a new supplier.
func (r *Repository) InsertSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (id, name, phone, address, balance)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), 0)
		RETURNING `+supplierColumns,
		s.ID, s.Name, s.Phone, s.Address)
	created, err := scanSupplier(row)
	if err != nil {
		return Supplier{}, fmt.Errorf("partners: insert supplier: %w", err)
	}
	return created, nil
}

// UpdateSupplier replaces supplier master fields (balance untouched).
func (r *Repository) UpdateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2, phone = NULLIF($3, ''), address = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+supplierColumns,
		s.ID, s.Name, s.Phone, s.Address)
	updated, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrSupplierNotFound
		}
		return Supplier{}, fmt.Errorf("partners: update supplier: %w", err)
	}
	return updated, nil
}

// GetSupplier returns one supplier.
func (r *Repository) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrSupplierNotFound
		}
		return Supplier{}, fmt.Errorf("partners: get supplier: %w", err)
	}
	return s, nil
}

// ListSuppliers returns suppliers name-ordered, optionally filtered by search.
func (r *Repository) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+supplierColumns+` FROM suppliers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name`, search)
	if err != nil {
		return nil, fmt.Errorf("partners: list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("partners: scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var (
		c   Customer
		bal string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &bal, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Customer{}, err
	}
	var err error
	if c.Balance, err = decimal.NewFromString(bal); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var (
		s   Supplier
		bal string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Address, &bal, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Supplier{}, err
	}
	var err error
	if s.Balance, err = decimal.NewFromString(bal); err != nil {
		return Supplier{}, err
	}
	return s, nil
}
