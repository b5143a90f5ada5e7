package reports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	dashboardCalls int32
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (f *fakeStore) SalesTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	atomic.AddInt32(&f.dashboardCalls, 1)
	return d("350000"), 4, nil
}

func (f *fakeStore) TotalReceivable(ctx context.Context) (decimal.Decimal, error) {
	return d("120000"), nil
}

func (f *fakeStore) TotalPayable(ctx context.Context) (decimal.Decimal, error) {
	return d("80000"), nil
}

func (f *fakeStore) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	return d("4500000"), nil
}

func (f *fakeStore) LowStockCount(ctx context.Context) (int, error) { return 3, nil }

func (f *fakeStore) OwingCustomerCount(ctx context.Context) (int, error) { return 2, nil }

func (f *fakeStore) CashBalance(ctx context.Context) (decimal.Decimal, error) {
	return d("275000"), nil
}

func (f *fakeStore) RecentSales(ctx context.Context, limit int) ([]RecentSale, error) {
	return []RecentSale{{ID: "t1", CustomerName: "Budi", TotalAmount: d("50000"), Status: "LUNAS"}}, nil
}

func (f *fakeStore) RevenueAndCOGS(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return d("1000000"), d("700000"), nil
}

func (f *fakeStore) ExpensesByCategory(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{
		"SEWA":    d("100000"),
		"LISTRIK": d("50000"),
	}, nil
}

func (f *fakeStore) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	return []TopProduct{{ProductID: "p1", ProductName: "Pasir", QtySold: 40, Revenue: d("400000")}}, nil
}

func (f *fakeStore) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error) {
	return []TopCustomer{{CustomerID: "c1", CustomerName: "Budi", SalesCount: 3, TotalSpent: d("300000")}}, nil
}

func TestDashboardAggregatesAllSections(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, nil)

	summary, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.True(t, summary.SalesToday.Equal(d("350000")))
	require.Equal(t, 4, summary.SalesCountToday)
	require.True(t, summary.TotalReceivable.Equal(d("120000")))
	require.True(t, summary.TotalPayable.Equal(d("80000")))
	require.True(t, summary.CashBalance.Equal(d("275000")))
	require.Equal(t, 3, summary.LowStockCount)
	require.Equal(t, 2, summary.OwingCustomers)
	require.Len(t, summary.RecentSales, 1)
	require.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &fakeStore{}
	svc := NewService(store, client, nil)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)

	// Second call is served from redis without touching the store.
	require.EqualValues(t, 1, atomic.LoadInt32(&store.dashboardCalls))

	// Deleting the key (what the view invalidator does) forces a refresh.
	mr.Del(cacheKeyDashboard)
	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&store.dashboardCalls))
}

func TestProfitLoss(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, nil)

	report, err := svc.ProfitLoss(context.Background(), Period{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, report.Revenue.Equal(d("1000000")))
	require.True(t, report.COGS.Equal(d("700000")))
	require.True(t, report.GrossProfit.Equal(d("300000")))
	require.True(t, report.TotalExpense.Equal(d("150000")))
	require.True(t, report.NetProfit.Equal(d("150000")))
}

func TestBalanceSheet(t *testing.T) {
	svc := NewService(&fakeStore{}, nil, nil)

	sheet, err := svc.BalanceSheet(context.Background())
	require.NoError(t, err)
	require.True(t, sheet.CashBalance.Equal(d("275000")))
	require.True(t, sheet.Receivables.Equal(d("120000")))
	require.True(t, sheet.Payables.Equal(d("80000")))
	require.True(t, sheet.InventoryValue.Equal(d("4500000")))
}
