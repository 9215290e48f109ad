package handlers

import (
	"net/http"

	"farm2city/internal/api/middleware"
	"farm2city/internal/inventory"
	"farm2city/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	ledger *inventory.Ledger
}

func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// List returns the caller's ledger lines with stock classification.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	lines, err := h.ledger.Overview(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	if lines == nil {
		lines = []inventory.Line{}
	}
	writeJSON(w, http.StatusOK, lines)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// Adjust applies a manual stock movement for one product.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	var req adjustRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	rec, err := h.ledger.AdjustStock(r.Context(), userID, productID, req.Delta)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inventory.Line{
		InventoryRecord: *rec,
		Status:          inventory.StatusFor(rec.CurrentStock),
	})
}

func shopkeeperOnly(w http.ResponseWriter, r *http.Request) (uuid.UUID, models.Role, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return uuid.Nil, "", false
	}

	role, ok := middleware.Role(r.Context())
	if !ok || role != models.RoleShopkeeper {
		writeError(w, http.StatusForbidden, "not_allowed", "shopkeeper role required", nil)
		return uuid.Nil, "", false
	}

	return userID, role, true
}
