package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tokobatu/pos-ledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for stock reconciliation.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/opname", h.handleOpname)
	r.Get("/opname", h.handleOpnameHistory)
	r.Get("/movements", h.handleMovements)
}

type opnameRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	StockActual int64  `json:"stock_actual" validate:"min=0"`
	Reason      string `json:"reason"`
	Note        string `json:"note"`
}

func (h *Handler) handleOpname(w http.ResponseWriter, r *http.Request) {
	var req opnameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	opname, err := h.service.RecordOpname(r.Context(), OpnameInput{
		ProductID:   req.ProductID,
		StockActual: req.StockActual,
		Reason:      req.Reason,
		Note:        req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrProductRequired), errors.Is(err, ErrNegativeActual):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrProductNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			h.logger.Error("record opname", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"difference": opname.Difference,
		"opname":     opname,
	})
}

func (h *Handler) handleOpnameHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	opnames, err := h.service.OpnameHistory(r.Context(), r.URL.Query().Get("product_id"), limit)
	if err != nil {
		h.logger.Error("list opnames", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"opnames": opnames})
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{
		ProductID: q.Get("product_id"),
		Type:      MovementType(q.Get("type")),
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

	movements, page, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements, "pagination": page})
}
