package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokobatu/pos-ledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/profit-loss", h.handleProfitLoss)
	r.Get("/balance-sheet", h.handleBalanceSheet)
	r.Get("/top-products", h.handleTopProducts)
	r.Get("/top-customers", h.handleTopCustomers)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	period, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	report, err := h.service.ProfitLoss(r.Context(), period)
	if err != nil {
		h.logger.Error("profit loss report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.BalanceSheet(r.Context())
	if err != nil {
		h.logger.Error("balance sheet report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	period, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	products, err := h.service.TopProducts(r.Context(), period)
	if err != nil {
		h.logger.Error("top products report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handleTopCustomers(w http.ResponseWriter, r *http.Request) {
	period, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	customers, err := h.service.TopCustomers(r.Context(), period)
	if err != nil {
		h.logger.Error("top customers report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// parsePeriod reads from/to query params, defaulting to the current month.
func (h *Handler) parsePeriod(w http.ResponseWriter, r *http.Request) (Period, bool) {
	now := time.Now().UTC()
	period := Period{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   now,
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date, want YYYY-MM-DD")
			return Period{}, false
		}
		period.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date, want YYYY-MM-DD")
			return Period{}, false
		}
		period.To = t.Add(24*time.Hour - time.Second)
	}
	return period, true
}
