package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/austral-pos/austral-pos/internal/inventory"
	"github.com/austral-pos/austral-pos/internal/platform/httpx"
	"github.com/austral-pos/austral-pos/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Delete("/{id}", h.Cancel)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.ProblemKind(w, http.StatusBadRequest, "malformed_body", "request body is not valid JSON", nil)
		return
	}
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	input.UserID = identity.UserID
	if input.BranchID == 0 {
		input.BranchID = identity.BranchID
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.ProblemKind(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	sale, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondSaleError(w, err, "create")
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemKind(w, http.StatusBadRequest, "validation_failed", "invalid sale id", nil)
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())
	if err := h.service.Cancel(r.Context(), identity.UserID, id); err != nil {
		h.respondSaleError(w, err, "cancel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemKind(w, http.StatusBadRequest, "validation_failed", "invalid sale id", nil)
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondSaleError(w, err, "get")
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
	if raw := q.Get("client_id"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ClientID = &parsed
		}
	}
	if raw := q.Get("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = parsed
		}
	}
	if raw := q.Get("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = parsed
		}
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sales failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// respondSaleError maps the sale error taxonomy onto problem responses with a
// machine-readable kind, carrying the offending line in the meta payload.
func (h *Handler) respondSaleError(w http.ResponseWriter, err error, operation string) {
	var insufficient *inventory.InsufficientStockError
	var notStocked *inventory.NotStockedError
	switch {
	case errors.Is(err, ErrEmptySale):
		httpx.ProblemKind(w, http.StatusUnprocessableEntity, "empty_sale", err.Error(), nil)
	case errors.As(err, &notStocked):
		httpx.ProblemKind(w, http.StatusUnprocessableEntity, "product_not_stocked", err.Error(), map[string]any{
			"product_id": notStocked.ProductID,
			"branch_id":  notStocked.BranchID,
		})
	case errors.As(err, &insufficient):
		httpx.ProblemKind(w, http.StatusConflict, "insufficient_stock", err.Error(), map[string]any{
			"product_id": insufficient.ProductID,
			"branch_id":  insufficient.BranchID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.Is(err, ErrDuplicateReceipt):
		httpx.ProblemKind(w, http.StatusConflict, "duplicate_receipt_number", err.Error(), nil)
	case errors.Is(err, ErrSaleNotFound):
		httpx.ProblemKind(w, http.StatusNotFound, "sale_not_found", err.Error(), nil)
	case errors.Is(err, inventory.ErrRecordNotFound):
		httpx.ProblemKind(w, http.StatusNotFound, "record_not_found", err.Error(), nil)
	default:
		h.logger.Error("sale operation failed", "error", err, "operation", operation)
		httpx.ProblemKind(w, http.StatusInternalServerError, "storage_failure", "", nil)
	}
}
