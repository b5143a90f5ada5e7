package purchasing

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/shared"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

type worldState struct {
	suppliers map[string]testSupplier
	stocks    map[string]int64
	costs     map[string]decimal.Decimal
	purchases map[string]Purchase
	items     map[string][]PurchaseItem
	movements []stock.Movement
	ledger    []cashbook.Entry
	nextEntry int64
}

type testSupplier struct {
	name    string
	balance decimal.Decimal
}

func (w *worldState) clone() *worldState {
	c := &worldState{
		suppliers: make(map[string]testSupplier, len(w.suppliers)),
		stocks:    make(map[string]int64, len(w.stocks)),
		costs:     make(map[string]decimal.Decimal, len(w.costs)),
		purchases: make(map[string]Purchase, len(w.purchases)),
		items:     make(map[string][]PurchaseItem, len(w.items)),
		movements: append([]stock.Movement(nil), w.movements...),
		ledger:    append([]cashbook.Entry(nil), w.ledger...),
		nextEntry: w.nextEntry,
	}
	for k, v := range w.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range w.stocks {
		c.stocks[k] = v
	}
	for k, v := range w.costs {
		c.costs[k] = v
	}
	for k, v := range w.purchases {
		c.purchases[k] = v
	}
	for k, v := range w.items {
		c.items[k] = append([]PurchaseItem(nil), v...)
	}
	return c
}

type memoryRepo struct {
	mu    sync.Mutex
	state *worldState
}

type memoryTx struct {
	staged *worldState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &worldState{
		suppliers: map[string]testSupplier{},
		stocks:    map[string]int64{},
		costs:     map[string]decimal.Decimal{},
		purchases: map[string]Purchase{},
		items:     map[string][]PurchaseItem{},
	}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := r.state.clone()
	if err := fn(ctx, &memoryTx{staged: staged}); err != nil {
		return err
	}
	r.state = staged
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Purchase, shared.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purchases []Purchase
	for _, p := range r.state.purchases {
		purchases = append(purchases, p)
	}
	return purchases, shared.NewPagination(filter.Page, filter.PerPage, len(purchases)), nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.purchases[id]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	p.Items = r.state.items[id]
	return p, nil
}

func (tx *memoryTx) GetSupplierName(ctx context.Context, id string) (string, error) {
	s, ok := tx.staged.suppliers[id]
	if !ok {
		return "", ErrSupplierNotFound
	}
	return s.name, nil
}

func (tx *memoryTx) InsertPurchase(ctx context.Context, p Purchase) (Purchase, error) {
	tx.staged.purchases[p.ID] = p
	return p, nil
}

func (tx *memoryTx) InsertPurchaseItems(ctx context.Context, purchaseID string, items []PurchaseItem) error {
	tx.staged.items[purchaseID] = items
	return nil
}

func (tx *memoryTx) AddProductStockSetCost(ctx context.Context, productID string, qty int64, cost decimal.Decimal) (int64, error) {
	current, ok := tx.staged.stocks[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	tx.staged.stocks[productID] = current + qty
	tx.staged.costs[productID] = cost
	return current + qty, nil
}

func (tx *memoryTx) InsertStockMovement(ctx context.Context, m stock.Movement) error {
	tx.staged.movements = append(tx.staged.movements, m)
	return nil
}

func (tx *memoryTx) AddSupplierBalance(ctx context.Context, supplierID string, delta decimal.Decimal) error {
	s, ok := tx.staged.suppliers[supplierID]
	if !ok {
		return ErrSupplierNotFound
	}
	s.balance = s.balance.Add(delta)
	tx.staged.suppliers[supplierID] = s
	return nil
}

func (tx *memoryTx) AppendCashEntry(ctx context.Context, p cashbook.AppendParams) (cashbook.Entry, error) {
	last := decimal.Zero
	if n := len(tx.staged.ledger); n > 0 {
		last = tx.staged.ledger[n-1].Balance
	}
	tx.staged.nextEntry++
	entry := cashbook.Entry{
		ID:       tx.staged.nextEntry,
		Type:     p.Type,
		Category: p.Category,
		Amount:   p.Amount,
		Balance:  cashbook.NewBalance(last, p.Type, p.Amount),
		RefType:  p.RefType,
		RefID:    p.RefID,
	}
	tx.staged.ledger = append(tx.staged.ledger, entry)
	return entry, nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCreatePurchaseOnCredit(t *testing.T) {
	repo := newMemoryRepo()
	repo.state.suppliers["s1"] = testSupplier{name: "Toko Sumber", balance: decimal.Zero}
	repo.state.stocks["p1"] = 10
	repo.state.costs["p1"] = d("40000")
	svc := NewService(repo, nil)

	purchase, err := svc.Create(context.Background(), CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 20, Cost: d("45000")}},
		PaidAmount: d("300000"),
	})
	require.NoError(t, err)
	require.True(t, purchase.TotalAmount.Equal(d("900000")))
	require.True(t, purchase.Remaining.Equal(d("600000")))
	require.Equal(t, StatusOwing, purchase.Status)

	// Stock up, HPP overwritten by the newest receipt cost.
	require.EqualValues(t, 30, repo.state.stocks["p1"])
	require.True(t, repo.state.costs["p1"].Equal(d("45000")))

	// IN movement with the receipt snapshot.
	require.Len(t, repo.state.movements, 1)
	require.Equal(t, stock.MovementIn, repo.state.movements[0].Type)
	require.True(t, repo.state.movements[0].HPP.Equal(d("45000")))
	require.EqualValues(t, 30, repo.state.movements[0].StockAfter)
	require.Equal(t, cashbook.RefPurchase, repo.state.movements[0].RefType)

	// Debt on the supplier, paid part out of the cash ledger.
	require.True(t, repo.state.suppliers["s1"].balance.Equal(d("600000")))
	require.Len(t, repo.state.ledger, 1)
	require.Equal(t, cashbook.EntryCredit, repo.state.ledger[0].Type)
	require.Equal(t, cashbook.CategoryPurchases, repo.state.ledger[0].Category)
	require.True(t, repo.state.ledger[0].Balance.Equal(d("-300000")))
}

func TestCreatePurchaseKeepsInvoiceNumber(t *testing.T) {
	repo := newMemoryRepo()
	repo.state.suppliers["s1"] = testSupplier{name: "Toko Sumber", balance: decimal.Zero}
	repo.state.stocks["p1"] = 0
	svc := NewService(repo, nil)

	purchase, err := svc.Create(context.Background(), CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 2, Cost: d("10000")}},
		PaidAmount: d("20000"),
		InvoiceNo:  " INV/2026/08/001 ",
	})
	require.NoError(t, err)
	require.Equal(t, "INV/2026/08/001", purchase.InvoiceNo)
	require.Equal(t, "INV/2026/08/001", repo.state.purchases[purchase.ID].InvoiceNo)
}

func TestCreatePurchaseFullyPaid(t *testing.T) {
	repo := newMemoryRepo()
	repo.state.suppliers["s1"] = testSupplier{name: "Toko Sumber", balance: decimal.Zero}
	repo.state.stocks["p1"] = 0
	svc := NewService(repo, nil)

	purchase, err := svc.Create(context.Background(), CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 5, Cost: d("10000")}},
		PaidAmount: d("50000"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, purchase.Status)
	require.True(t, purchase.Remaining.IsZero())
	require.True(t, repo.state.suppliers["s1"].balance.IsZero())
}

func TestCreatePurchaseHPPLastWriteWins(t *testing.T) {
	repo := newMemoryRepo()
	repo.state.suppliers["s1"] = testSupplier{name: "Toko Sumber", balance: decimal.Zero}
	repo.state.stocks["p1"] = 0
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 10, Cost: d("40000")}},
		PaidAmount: d("400000"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 5, Cost: d("42000")}},
		PaidAmount: d("210000"),
	})
	require.NoError(t, err)

	// No averaging: the second receipt's cost stands.
	require.True(t, repo.state.costs["p1"].Equal(d("42000")))
	require.EqualValues(t, 15, repo.state.stocks["p1"])
}

func TestCreatePurchaseMissingSupplierRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.state.stocks["p1"] = 10
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		SupplierID: "ghost",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 5, Cost: d("10000")}},
		PaidAmount: d("50000"),
	})
	require.ErrorIs(t, err, ErrSupplierNotFound)
	require.EqualValues(t, 10, repo.state.stocks["p1"])
	require.Empty(t, repo.state.purchases)
	require.Empty(t, repo.state.ledger)
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Lines: []ReceiptLine{{ProductID: "p1", Qty: 1}}})
	require.ErrorIs(t, err, ErrSupplierRequired)

	_, err = svc.Create(ctx, CreateInput{SupplierID: "s1"})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.Create(ctx, CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 0, Cost: d("1")}},
	})
	require.ErrorIs(t, err, ErrInvalidQty)

	_, err = svc.Create(ctx, CreateInput{
		SupplierID: "s1",
		Lines:      []ReceiptLine{{ProductID: "p1", Qty: 1, Cost: d("1")}},
		PaidAmount: d("-1"),
	})
	require.ErrorIs(t, err, ErrInvalidPaidAmount)
}
