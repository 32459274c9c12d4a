package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/austral-pos/austral-pos/internal/platform/httpx"
	"github.com/austral-pos/austral-pos/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low", h.ListLow)
	r.Get("/{branchID}", h.ListByBranch)
	r.Get("/{branchID}/{productID}", h.GetQuantity)
	r.Put("/", h.SetStock)
}

func (h *Handler) ListByBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := strconv.ParseInt(chi.URLParam(r, "branchID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid branch id")
		return
	}
	stocks, err := h.service.ListByBranch(r.Context(), branchID)
	if err != nil {
		h.logger.Error("list stock failed", "error", err, "branch_id", branchID)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, stocks)
}

func (h *Handler) GetQuantity(w http.ResponseWriter, r *http.Request) {
	branchID, err1 := strconv.ParseInt(chi.URLParam(r, "branchID"), 10, 64)
	productID, err2 := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err1 != nil || err2 != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid branch or product id")
		return
	}
	stock, err := h.service.GetQuantity(r.Context(), productID, branchID)
	if errors.Is(err, ErrRecordNotFound) {
		httpx.ProblemKind(w, http.StatusNotFound, "record_not_found", err.Error(), map[string]any{
			"product_id": productID,
			"branch_id":  branchID,
		})
		return
	}
	if err != nil {
		h.logger.Error("get stock failed", "error", err, "branch_id", branchID, "product_id", productID)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}

func (h *Handler) ListLow(w http.ResponseWriter, r *http.Request) {
	threshold := int64(0)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid threshold")
			return
		}
		threshold = parsed
	}
	stocks, err := h.service.ListBelow(r.Context(), threshold)
	if err != nil {
		h.logger.Error("low stock scan failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, stocks)
}

type setStockRequest struct {
	ProductID int64 `json:"product_id"`
	BranchID  int64 `json:"branch_id"`
	Quantity  int64 `json:"quantity"`
}

func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())
	stock, err := h.service.SetStock(r.Context(), identity.UserID, Stock{
		ProductID: req.ProductID,
		BranchID:  req.BranchID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.logger.Error("set stock failed", "error", err, "product_id", req.ProductID, "branch_id", req.BranchID)
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, stock)
}
