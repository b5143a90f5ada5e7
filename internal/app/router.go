package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tokobatu/pos-ledger/internal/cashbook"
	"github.com/tokobatu/pos-ledger/internal/catalog"
	"github.com/tokobatu/pos-ledger/internal/partners"
	"github.com/tokobatu/pos-ledger/internal/purchasing"
	"github.com/tokobatu/pos-ledger/internal/reports"
	"github.com/tokobatu/pos-ledger/internal/sales"
	"github.com/tokobatu/pos-ledger/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	PartnersHandler   *partners.Handler
	SalesHandler      *sales.Handler
	PurchasingHandler *purchasing.Handler
	CashbookHandler   *cashbook.Handler
	StockHandler      *stock.Handler
	ReportsHandler    *reports.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", params.CatalogHandler.MountRoutes)
		r.Route("/customers", params.PartnersHandler.MountCustomerRoutes)
		r.Route("/suppliers", params.PartnersHandler.MountSupplierRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/purchases", params.PurchasingHandler.MountRoutes)
		r.Route("/cashbook", params.CashbookHandler.MountRoutes)
		r.Route("/stock", params.StockHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	})

	return r
}
