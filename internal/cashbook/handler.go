package cashbook

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tokobatu/pos-ledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the cash ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs cashbook handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers cashbook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/balance", h.handleBalance)
	r.Post("/", h.handleRecord)
	r.Put("/expenses", h.handleMonthlyExpense)
}

type recordRequest struct {
	Type        string          `json:"type" validate:"required,oneof=DEBIT CREDIT"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

type monthlyExpenseRequest struct {
	Category string          `json:"category" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Month    int             `json:"month" validate:"required,min=1,max=12"`
	Year     int             `json:"year" validate:"required,min=2000"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	entry, err := h.service.Record(r.Context(), RecordInput{
		Type:        EntryType(req.Type),
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		h.respondError(w, "record cash entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	var req monthlyExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	err := h.service.UpsertMonthlyExpense(r.Context(), MonthlyExpenseInput{
		Category: req.Category,
		Amount:   req.Amount,
		Month:    req.Month,
		Year:     req.Year,
	})
	if err != nil {
		h.respondError(w, "upsert monthly expense", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := EntryFilter{
		Type:     EntryType(q.Get("type")),
		Category: q.Get("category"),
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = t.Add(24*time.Hour - time.Second)
		}
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	entries, page, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list cash entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries, "pagination": page})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		h.respondError(w, "read cash balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNegativeAmount), errors.Is(err, ErrCategoryRequired),
		errors.Is(err, ErrInvalidMonth):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
