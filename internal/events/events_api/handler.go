package events_api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gatepass/internal/models"
	"ms-gatepass/internal/utils"
)

// EventDBLayer is the catalog read capability backing the listing screens.
type EventDBLayer interface {
	ListPublishedEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, eventID string) (*models.Event, error)
}

type Handler struct {
	EventDB EventDBLayer
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.ListEvents)
	r.Get("/events/{eventID}", h.GetEvent)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventDB.ListPublishedEvents(r.Context())
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.EventDB.GetEventByID(r.Context(), eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("event not found", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event", event))
}
