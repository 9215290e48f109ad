package handlers

import (
	"net/http"

	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ReorderHandler struct {
	rules repository.ReorderRuleRepository
}

func NewReorderHandler(rules repository.ReorderRuleRepository) *ReorderHandler {
	return &ReorderHandler{rules: rules}
}

type reorderRuleRequest struct {
	ProductID       uuid.UUID               `json:"product_id"`
	MinStock        int                     `json:"min_stock"`
	ReorderQuantity int                     `json:"reorder_quantity"`
	Frequency       models.ReorderFrequency `json:"frequency"`
	Enabled         bool                    `json:"enabled"`
}

func (h *ReorderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	rules, err := h.rules.GetByShopkeeper(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	if rules == nil {
		rules = []models.AutoReorderRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *ReorderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	var req reorderRuleRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	rule := models.AutoReorderRule{
		ShopkeeperID:    userID,
		ProductID:       req.ProductID,
		MinStock:        req.MinStock,
		ReorderQuantity: req.ReorderQuantity,
		Frequency:       req.Frequency,
		Enabled:         req.Enabled,
	}

	if err := h.rules.Create(r.Context(), &rule); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (h *ReorderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid rule id", nil)
		return
	}

	var req reorderRuleRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	rule := models.AutoReorderRule{
		ID:              ruleID,
		ShopkeeperID:    userID,
		ProductID:       req.ProductID,
		MinStock:        req.MinStock,
		ReorderQuantity: req.ReorderQuantity,
		Frequency:       req.Frequency,
		Enabled:         req.Enabled,
	}

	if err := h.rules.Update(r.Context(), &rule); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

func (h *ReorderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := shopkeeperOnly(w, r)
	if !ok {
		return
	}

	ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid rule id", nil)
		return
	}

	// Ownership check before delete: rules are scoped to their shopkeeper.
	rule, err := h.rules.GetByID(r.Context(), ruleID)
	if err != nil {
		respondError(w, err)
		return
	}
	if rule.ShopkeeperID != userID {
		writeError(w, http.StatusNotFound, "not_found", "rule not found", nil)
		return
	}

	if err := h.rules.Delete(r.Context(), ruleID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
