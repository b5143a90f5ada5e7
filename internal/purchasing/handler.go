package purchasing

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

// Handler wires HTTP endpoints for purchases.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs purchasing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
}

type receiptLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Qty       int64           `json:"qty" validate:"required,gt=0"`
	Cost      decimal.Decimal `json:"cost"`
}

type createPurchaseRequest struct {
	SupplierID string               `json:"supplier_id" validate:"required"`
	Items      []receiptLineRequest `json:"items" validate:"required,min=1,dive"`
	PaidAmount decimal.Decimal      `json:"paid_amount"`
	InvoiceNo  string               `json:"invoice_no"`
	Note       string               `json:"note"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lines := make([]ReceiptLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ReceiptLine{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			Cost:      item.Cost,
		})
	}

	purchase, err := h.service.Create(r.Context(), CreateInput{
		SupplierID: req.SupplierID,
		Lines:      lines,
		PaidAmount: req.PaidAmount,
		InvoiceNo:  req.InvoiceNo,
		Note:       req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoItems), errors.Is(err, ErrSupplierRequired),
			errors.Is(err, ErrInvalidQty), errors.Is(err, ErrInvalidPaidAmount):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrSupplierNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			h.logger.Error("create purchase", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "Gagal memproses pembelian")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"purchase_id": purchase.ID,
		"purchase":    purchase,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		SupplierID: q.Get("supplier_id"),
		Status:     PurchaseStatus(q.Get("status")),
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

	purchases, page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": purchases, "pagination": page})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}
