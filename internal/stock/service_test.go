package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	stocks  map[string]int64
	opnames []Opname
	nextID  int64
}

type memoryTx struct {
	repo          *memoryRepo
	stagedStocks  map[string]int64
	stagedOpnames []Opname
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: map[string]int64{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := make(map[string]int64, len(r.stocks))
	for k, v := range r.stocks {
		staged[k] = v
	}
	tx := &memoryTx{repo: r, stagedStocks: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.stocks = tx.stagedStocks
	r.opnames = append(r.opnames, tx.stagedOpnames...)
	return nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, shared.Pagination, error) {
	return nil, shared.NewPagination(filter.Page, filter.PerPage, 0), nil
}

func (r *memoryRepo) ListOpnames(ctx context.Context, productID string, limit int) ([]Opname, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Opname
	for _, o := range r.opnames {
		if productID == "" || o.ProductID == productID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (tx *memoryTx) GetProductStockForUpdate(ctx context.Context, productID string) (int64, error) {
	current, ok := tx.stagedStocks[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return current, nil
}

func (tx *memoryTx) InsertOpname(ctx context.Context, o Opname) (Opname, error) {
	tx.repo.nextID++
	o.ID = tx.repo.nextID
	tx.stagedOpnames = append(tx.stagedOpnames, o)
	return o, nil
}

func (tx *memoryTx) SetProductStock(ctx context.Context, productID string, stock int64) error {
	if _, ok := tx.stagedStocks[productID]; !ok {
		return ErrProductNotFound
	}
	tx.stagedStocks[productID] = stock
	return nil
}

func TestRecordOpnameSetsStockToActual(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks["p1"] = 120
	svc := NewService(repo, nil)

	opname, err := svc.RecordOpname(context.Background(), OpnameInput{
		ProductID:   "p1",
		StockActual: 117,
		Reason:      "penyusutan",
	})
	require.NoError(t, err)
	require.EqualValues(t, 120, opname.StockSystem)
	require.EqualValues(t, 117, opname.StockActual)
	require.EqualValues(t, -3, opname.Difference)

	// Stock is set, not decremented.
	require.EqualValues(t, 117, repo.stocks["p1"])
	require.Len(t, repo.opnames, 1)
}

func TestRecordOpnameSurplus(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks["p1"] = 50
	svc := NewService(repo, nil)

	opname, err := svc.RecordOpname(context.Background(), OpnameInput{ProductID: "p1", StockActual: 55})
	require.NoError(t, err)
	require.EqualValues(t, 5, opname.Difference)
	require.EqualValues(t, 55, repo.stocks["p1"])
}

func TestRecordOpnameRepeatedCountsAreIdempotentOnStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.stocks["p1"] = 100
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordOpname(ctx, OpnameInput{ProductID: "p1", StockActual: 90})
	require.NoError(t, err)
	second, err := svc.RecordOpname(ctx, OpnameInput{ProductID: "p1", StockActual: 90})
	require.NoError(t, err)

	// Second count against an already-corrected stock records zero difference.
	require.EqualValues(t, 0, second.Difference)
	require.EqualValues(t, 90, repo.stocks["p1"])
	require.Len(t, repo.opnames, 2)
}

func TestRecordOpnameUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.RecordOpname(context.Background(), OpnameInput{ProductID: "ghost", StockActual: 10})
	require.ErrorIs(t, err, ErrProductNotFound)
	require.Empty(t, repo.opnames)
}

func TestRecordOpnameValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.RecordOpname(ctx, OpnameInput{StockActual: 1})
	require.ErrorIs(t, err, ErrProductRequired)

	_, err = svc.RecordOpname(ctx, OpnameInput{ProductID: "p1", StockActual: -1})
	require.ErrorIs(t, err, ErrNegativeActual)
}
