package handlers

import (
	"net/http"

	"farm2city/internal/api/middleware"
	"farm2city/internal/models"
	"farm2city/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	repo repository.NotificationRepository
}

func NewNotificationHandler(repo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	notifications, err := h.repo.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid notification id", nil)
		return
	}

	if err := h.repo.MarkRead(r.Context(), id, userID); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
