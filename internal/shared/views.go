package shared

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Cached read views that ledger operations invalidate on success. Each name
// is the redis key under which the corresponding listing/aggregate is cached.
const (
	ViewProducts  = "views:products"
	ViewCustomers = "views:customers"
	ViewSuppliers = "views:suppliers"
	ViewSales     = "views:sales"
	ViewPurchases = "views:purchases"
	ViewCashbook  = "views:cashbook"
	ViewStock     = "views:stock"
	ViewDashboard = "views:dashboard"
	ViewReports   = "views:reports"
)

// ViewInvalidator drops cached read views after a successful write. It is the
// collaborator that keeps dashboards and listings fresh; failures here never
// fail the business operation, they only delay cache refresh until TTL.
type ViewInvalidator struct {
	client *redis.Client
	logger *slog.Logger
}

// NewViewInvalidator returns a new ViewInvalidator.
func NewViewInvalidator(client *redis.Client, logger *slog.Logger) *ViewInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewInvalidator{client: client, logger: logger}
}

// Invalidate removes the given views from the cache. Nil receivers and nil
// clients are tolerated so services can run without redis (tests, CLIs).
func (v *ViewInvalidator) Invalidate(ctx context.Context, views ...string) {
	if v == nil || v.client == nil || len(views) == 0 {
		return
	}
	if err := v.client.Del(ctx, views...).Err(); err != nil {
		v.logger.Warn("invalidate views", slog.Any("error", err), slog.Any("views", views))
	}
}
