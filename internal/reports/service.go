package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tokobatu/pos-ledger/internal/shared"
)

// The dashboard cache lives under the same key the view invalidator deletes,
// so any committed write busts it.
const (
	cacheKeyDashboard = shared.ViewDashboard
	cacheTTL          = 30 * time.Second
	recentSalesLimit  = 10
	topLimit          = 5
)

// AggregateStore abstracts the aggregate queries for the service.
type AggregateStore interface {
	SalesTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)
	TotalReceivable(ctx context.Context) (decimal.Decimal, error)
	TotalPayable(ctx context.Context) (decimal.Decimal, error)
	InventoryValue(ctx context.Context) (decimal.Decimal, error)
	LowStockCount(ctx context.Context) (int, error)
	OwingCustomerCount(ctx context.Context) (int, error)
	CashBalance(ctx context.Context) (decimal.Decimal, error)
	RecentSales(ctx context.Context, limit int) ([]RecentSale, error)
	RevenueAndCOGS(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error)
	ExpensesByCategory(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]TopCustomer, error)
}

// Service assembles report payloads. The redis client is optional; without it
// every call hits the database.
type Service struct {
	store  AggregateStore
	cache  *redis.Client
	logger *slog.Logger
}

// NewService builds Service.
func NewService(store AggregateStore, cache *redis.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Dashboard fans the summary queries out concurrently. The result is cached
// briefly; writes bust the cache through the view invalidator.
func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var summary DashboardSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.SalesToday, summary.SalesCountToday, err = s.store.SalesTotalBetween(gctx, dayStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		summary.TotalReceivable, err = s.store.TotalReceivable(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.TotalPayable, err = s.store.TotalPayable(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.CashBalance, err = s.store.CashBalance(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.LowStockCount, err = s.store.LowStockCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.OwingCustomers, err = s.store.OwingCustomerCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary.RecentSales, err = s.store.RecentSales(gctx, recentSalesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}
	summary.GeneratedAt = now

	s.toCache(ctx, summary)
	return summary, nil
}

// ProfitLoss builds the period statement from item snapshots and the cash
// ledger's expense entries.
func (s *Service) ProfitLoss(ctx context.Context, period Period) (ProfitLoss, error) {
	report := ProfitLoss{From: period.From, To: period.To}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Revenue, report.COGS, err = s.store.RevenueAndCOGS(ctx, period.From, period.To)
		return err
	})
	g.Go(func() error {
		var err error
		report.Expenses, err = s.store.ExpensesByCategory(ctx, period.From, period.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProfitLoss{}, err
	}

	report.GrossProfit = report.Revenue.Sub(report.COGS)
	report.TotalExpense = decimal.Zero
	for _, amount := range report.Expenses {
		report.TotalExpense = report.TotalExpense.Add(amount)
	}
	report.NetProfit = report.GrossProfit.Sub(report.TotalExpense)
	return report, nil
}

// BalanceSheet reports current position totals.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	var sheet BalanceSheet
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sheet.CashBalance, err = s.store.CashBalance(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		sheet.Receivables, err = s.store.TotalReceivable(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		sheet.Payables, err = s.store.TotalPayable(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		sheet.InventoryValue, err = s.store.InventoryValue(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return BalanceSheet{}, err
	}
	sheet.GeneratedAt = time.Now().UTC()
	return sheet, nil
}

// TopProducts returns the period's best sellers.
func (s *Service) TopProducts(ctx context.Context, period Period) ([]TopProduct, error) {
	return s.store.TopProducts(ctx, period.From, period.To, topLimit)
}

// TopCustomers returns the period's biggest spenders.
func (s *Service) TopCustomers(ctx context.Context, period Period) ([]TopCustomer, error) {
	return s.store.TopCustomers(ctx, period.From, period.To, topLimit)
}

func (s *Service) fromCache(ctx context.Context) (DashboardSummary, bool) {
	if s.cache == nil {
		return DashboardSummary{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKeyDashboard).Bytes()
	if err != nil {
		return DashboardSummary{}, false
	}
	var summary DashboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return DashboardSummary{}, false
	}
	return summary, true
}

func (s *Service) toCache(ctx context.Context, summary DashboardSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyDashboard, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("cache dashboard", slog.Any("error", err))
	}
}
