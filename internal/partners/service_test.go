package partners

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
)

type memoryRepo struct {
	mu               sync.Mutex
	customers        map[string]Customer
	suppliers        map[string]Supplier
	payments         []Payment
	supplierPayments []SupplierPayment
	ledger           []cashbook.Entry
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		customers: map[string]Customer{},
		suppliers: map[string]Supplier{},
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) EnsureWalkInCustomer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[WalkInCustomerID]; !ok {
		r.customers[WalkInCustomerID] = Customer{ID: WalkInCustomerID, Name: WalkInCustomerName}
	}
	return nil
}

func (r *memoryRepo) InsertCustomer(ctx context.Context, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateCustomer(ctx context.Context, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.customers[c.ID]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	c.Balance = existing.Balance
	r.customers[c.ID] = c
	return c, nil
}

func (r *memoryRepo) DeleteCustomer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return ErrCustomerNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *memoryRepo) GetCustomer(ctx context.Context, id string) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, ErrCustomerNotFound
	}
	return c, nil
}

func (r *memoryRepo) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Customer
	for _, c := range r.customers {
		result = append(result, c)
	}
	return result, nil
}

func (r *memoryRepo) InsertSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[s.ID] = s
	return s, nil
}

func (r *memoryRepo) UpdateSupplier(ctx context.Context, s Supplier) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.suppliers[s.ID]
	if !ok {
		return Supplier{}, ErrSupplierNotFound
	}
	s.Balance = existing.Balance
	r.suppliers[s.ID] = s
	return s, nil
}

func (r *memoryRepo) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, nil
}

func (r *memoryRepo) ListSuppliers(ctx context.Context, search string) ([]Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Supplier
	for _, s := range r.suppliers {
		result = append(result, s)
	}
	return result, nil
}

func (tx *memoryTx) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	tx.repo.payments = append(tx.repo.payments, p)
	return p, nil
}

func (tx *memoryTx) InsertSupplierPayment(ctx context.Context, p SupplierPayment) (SupplierPayment, error) {
	tx.repo.supplierPayments = append(tx.repo.supplierPayments, p)
	return p, nil
}

func (tx *memoryTx) AddCustomerBalance(ctx context.Context, customerID string, delta decimal.Decimal) error {
	c, ok := tx.repo.customers[customerID]
	if !ok {
		return ErrCustomerNotFound
	}
	c.Balance = c.Balance.Add(delta)
	tx.repo.customers[customerID] = c
	return nil
}

func (tx *memoryTx) AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error {
	s, ok := tx.repo.suppliers[supplierID]
	if !ok {
		return ErrSupplierNotFound
	}
	s.Balance = s.Balance.Add(delta)
	tx.repo.suppliers[supplierID] = s
	return nil
}

func (tx *memoryTx) AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error) {
	last := decimal.Zero
	if n := len(tx.repo.ledger); n > 0 {
		last = tx.repo.ledger[n-1].Balance
	}
	entry := cashbook.Entry{
		ID:          int64(len(tx.repo.ledger) + 1),
		Type:        p.Type,
		Category:    p.Category,
		Description: p.Description,
		Amount:      p.Amount,
		Balance:     cashbook.NewBalance(last, p.Type, p.Amount),
		RefType:     p.RefType,
		RefID:       p.RefID,
	}
	tx.repo.ledger = append(tx.repo.ledger, entry)
	return entry, nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRecordCustomerPaymentReducesBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers["c1"] = Customer{ID: "c1", Name: "Budi", Balance: d("150000")}
	svc := NewService(repo, nil)

	payment, err := svc.RecordCustomerPayment(context.Background(), "c1", d("100000"), "cicilan")
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(d("100000")))
	require.Equal(t, "CASH", payment.Method)

	require.True(t, repo.customers["c1"].Balance.Equal(d("50000")))
	require.Len(t, repo.payments, 1)
}

func TestRecordCustomerPaymentOverpaymentGoesNegative(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers["c1"] = Customer{ID: "c1", Name: "Budi", Balance: d("30000")}
	svc := NewService(repo, nil)

	_, err := svc.RecordCustomerPayment(context.Background(), "c1", d("50000"), "")
	require.NoError(t, err)
	require.True(t, repo.customers["c1"].Balance.Equal(d("-20000")))
}

func TestRecordCustomerPaymentValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers["c1"] = Customer{ID: "c1", Name: "Budi"}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordCustomerPayment(ctx, "", d("1"), "")
	require.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.RecordCustomerPayment(ctx, "c1", decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordCustomerPayment(ctx, "c1", d("-5"), "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordCustomerPayment(ctx, "ghost", d("5"), "")
	require.ErrorIs(t, err, ErrCustomerNotFound)
	require.Empty(t, repo.payments)
}

func TestConcurrentCustomerPaymentsConserveBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.customers["c1"] = Customer{ID: "c1", Name: "Budi", Balance: d("100000")}
	svc := NewService(repo, nil)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = svc.RecordCustomerPayment(ctx, "c1", d("10000"), "")
		}()
	}
	wg.Wait()

	// Ten payments of 10000 against 100000: no lost updates.
	require.True(t, repo.customers["c1"].Balance.IsZero())
	require.Len(t, repo.payments, workers)
}

func TestRecordSupplierPaymentWritesCashEntry(t *testing.T) {
	repo := newMemoryRepo()
	repo.suppliers["s1"] = Supplier{ID: "s1", Name: "Toko Sumber", Balance: d("500000")}
	svc := NewService(repo, nil)

	payment, err := svc.RecordSupplierPayment(context.Background(), "s1", d("200000"), "angsuran")
	require.NoError(t, err)
	require.True(t, payment.Amount.Equal(d("200000")))

	require.True(t, repo.suppliers["s1"].Balance.Equal(d("300000")))
	require.Len(t, repo.supplierPayments, 1)

	require.Len(t, repo.ledger, 1)
	entry := repo.ledger[0]
	require.Equal(t, cashbook.EntryCredit, entry.Type)
	require.Equal(t, cashbook.CategoryPurchases, entry.Category)
	require.Equal(t, cashbook.RefPaymentOut, entry.RefType)
	require.Equal(t, "s1", entry.RefID)
	require.True(t, entry.Balance.Equal(d("-200000")))
}

func TestDeleteCustomerProtectsWalkIn(t *testing.T) {
	repo := newMemoryRepo()
	require.NoError(t, repo.EnsureWalkInCustomer(context.Background()))
	svc := NewService(repo, nil)

	err := svc.DeleteCustomer(context.Background(), WalkInCustomerID)
	require.ErrorIs(t, err, ErrWalkInProtected)

	_, err = svc.GetCustomer(context.Background(), WalkInCustomerID)
	require.NoError(t, err)
}

func TestCreateCustomerRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateCustomer(context.Background(), PartnerInput{Name: "   "})
	require.ErrorIs(t, err, ErrNameRequired)

	customer, err := svc.CreateCustomer(context.Background(), PartnerInput{Name: "  Budi  ", Phone: "0812"})
	require.NoError(t, err)
	require.Equal(t, "Budi", customer.Name)
	require.NotEmpty(t, customer.ID)
}

func TestCreateSupplierRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateSupplier(context.Background(), PartnerInput{})
	require.ErrorIs(t, err, ErrNameRequired)
}
