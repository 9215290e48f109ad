package handlers

import (
	"context"
	"net/http"

	"farm2city/internal/api/middleware"
	"farm2city/internal/models"
	"farm2city/internal/orders"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderService is what the handler needs from the order lifecycle service.
type OrderService interface {
	Create(ctx context.Context, buyerID uuid.UUID, req orders.CreateRequest) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Transition(ctx context.Context, actorID, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error)
}

type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req orders.CreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		middleware.RecordOrderOperation("create", false)
		return
	}

	order, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		middleware.RecordOrderOperation("create", false)
		respondError(w, err)
		return
	}

	middleware.RecordOrderOperation("create", true)
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	orderList, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	if orderList == nil {
		orderList = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orderList)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}

	order, err := h.service.Get(r.Context(), userID, orderID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

type statusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}

	var req statusUpdateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		middleware.RecordOrderOperation("update_status", false)
		return
	}

	order, err := h.service.Transition(r.Context(), userID, orderID, req.Status)
	if err != nil {
		middleware.RecordOrderOperation("update_status", false)
		respondError(w, err)
		return
	}

	middleware.RecordOrderOperation("update_status", true)
	writeJSON(w, http.StatusOK, order)
}
