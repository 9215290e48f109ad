package handlers

import (
	"context"
	"net/http"

	"farm2city/internal/api/middleware"
	"farm2city/internal/payments"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentApplier receives the settled outcome of a transaction, the
// payment-callback seam into the order lifecycle.
type PaymentApplier interface {
	ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, paid bool) error
}

type PaymentHandler struct {
	service *payments.Service
	applier PaymentApplier
}

func NewPaymentHandler(service *payments.Service, applier PaymentApplier) *PaymentHandler {
	return &PaymentHandler{service: service, applier: applier}
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	var req payments.Request
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	resp, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

type processRequest struct {
	Method payments.Method `json:"method"`
}

func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	transactionID := chi.URLParam(r, "transactionID")

	var req processRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	resp, err := h.service.Process(r.Context(), transactionID, req.Method)
	if err != nil {
		respondError(w, err)
		return
	}

	// Propagate the settled outcome to the order. The transaction keeps its
	// own status either way.
	txn, terr := h.service.Status(r.Context(), transactionID)
	if terr == nil {
		if aerr := h.applier.ApplyPaymentResult(r.Context(), txn.OrderID, resp.Success); aerr != nil {
			respondError(w, aerr)
			return
		}
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, resp)
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	txn, err := h.service.Status(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	resp, err := h.service.Refund(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
