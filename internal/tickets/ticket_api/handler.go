package ticket_api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/tickets"
	"ms-gatepass/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{ticketID}", h.ViewTicket)
		r.Get("/{ticketID}/qr", h.TicketQR)
		r.Delete("/{ticketID}", h.CancelTicket)
	})
	r.Get("/orders/{orderID}/tickets", h.ListByOrder)
	r.Get("/me/tickets", h.ListMine)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket", ticket))
}

// TicketQR serves the ticket's QR symbol as a PNG, for embedding in the
// holder's wallet page or confirmation email.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", err.Error()))
		return
	}
	if len(ticket.QRCode) == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket has no QR image", "qr not generated"))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ticket.QRCode)
}

func (h *Handler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	list, err := h.TicketService.GetTicketsByOrder(r.Context(), orderID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load tickets", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tickets", list))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no user identity in request"))
		return
	}

	list, err := h.TicketService.GetTicketsByUser(r.Context(), userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load tickets", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tickets", list))
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	if err := h.TicketService.CancelTicket(r.Context(), ticketID); err != nil {
		if errors.Is(err, tickets.ErrTicketNotCancellable) {
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("ticket cannot be cancelled", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to cancel ticket", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
