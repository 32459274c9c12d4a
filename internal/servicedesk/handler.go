package servicedesk

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
	"github.com/austral-pos/austral-pos/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.ChangeStatus)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromQuery(r)
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.BranchID = &parsed
		}
	}
	status := r.URL.Query().Get("status")

	items, total, err := h.service.List(r.Context(), filters, status)
	if err != nil {
		h.logger.Error("list tickets failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.ListResponse{Items: items, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidID)
		return
	}
	ticket, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var ticket Ticket
	if err := httpx.DecodeJSON(r, &ticket); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	created, err := h.service.Create(r.Context(), ticket)
	if err != nil {
		h.logger.Error("create ticket failed", "error", err)
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidID)
		return
	}
	var ticket Ticket
	if err := httpx.DecodeJSON(r, &ticket); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.Update(r.Context(), id, ticket); err != nil {
		h.logger.Error("update ticket failed", "error", err, "id", id)
		shared.RespondError(w, err)
		return
	}
	ticket.ID = id
	httpx.JSON(w, http.StatusOK, ticket)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidID)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, shared.ErrValidation)
		return
	}
	ticket, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("ticket status change failed", "error", err, "id", id, "status", req.Status)
		shared.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}
