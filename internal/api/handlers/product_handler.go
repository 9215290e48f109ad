package handlers

import (
	"net/http"
	"time"

	"farm2city/internal/api/middleware"
	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	repo repository.ProductRepository
}

func NewProductHandler(repo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

type productRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Availability bool            `json:"availability"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	HarvestDate  *time.Time      `json:"harvest_date,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// List returns the marketplace view: available products, optionally
// filtered by category or farmer.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		products []models.Product
		err      error
	)

	switch {
	case r.URL.Query().Get("category") != "":
		products, err = h.repo.GetByCategory(r.Context(), r.URL.Query().Get("category"))
	case r.URL.Query().Get("farmer_id") != "":
		var farmerID uuid.UUID
		farmerID, err = uuid.Parse(r.URL.Query().Get("farmer_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", "invalid farmer id", nil)
			return
		}
		products, err = h.repo.GetByFarmer(r.Context(), farmerID)
	default:
		products, err = h.repo.GetAll(r.Context(), r.URL.Query().Get("all") == "")
	}

	if err != nil {
		respondError(w, err)
		return
	}

	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := farmerOnly(w, r)
	if !ok {
		return
	}

	var req productRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		FarmerID:     farmerID,
		Name:         req.Name,
		Price:        req.Price,
		Quantity:     req.Quantity,
		Availability: req.Availability,
		Description:  req.Description,
		Category:     req.Category,
		Unit:         req.Unit,
		HarvestDate:  req.HarvestDate,
		ExpiryDate:   req.ExpiryDate,
	}

	if err := h.repo.Create(r.Context(), &p); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Location", "/api/products/"+p.ID.String())
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := farmerOnly(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	var req productRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		ID:           id,
		FarmerID:     farmerID,
		Name:         req.Name,
		Price:        req.Price,
		Quantity:     req.Quantity,
		Availability: req.Availability,
		Description:  req.Description,
		Category:     req.Category,
		Unit:         req.Unit,
		HarvestDate:  req.HarvestDate,
		ExpiryDate:   req.ExpiryDate,
	}

	if err := h.repo.Update(r.Context(), &p); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	farmerID, ok := farmerOnly(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	// Products belong to their farmer; a delete of someone else's product
	// reads as not found.
	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if product.FarmerID != farmerID {
		writeError(w, http.StatusNotFound, "not_found", "product not found", nil)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func farmerOnly(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return uuid.Nil, false
	}

	role, ok := middleware.Role(r.Context())
	if !ok || role != models.RoleFarmer {
		writeError(w, http.StatusForbidden, "not_allowed", "farmer role required", nil)
		return uuid.Nil, false
	}

	return userID, true
}
