package order_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/orders"
	"ms-gatepass/internal/utils"
)

type Handler struct {
	OrderService *orders.OrderService
	Logger       *logger.Logger
}

type placeOrderBody struct {
	EventID      string `json:"event_id"`
	TicketTypeID string `json:"ticket_type_id"`
	Quantity     int    `json:"quantity"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/{orderID}", h.GetOrder)
		r.Post("/{orderID}/complete", h.CompleteOrder)
	})
	r.Get("/me/orders", h.ListMine)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no user identity in request"))
		return
	}

	var body placeOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	order, err := h.OrderService.PlaceOrder(r.Context(), models.Order{
		EventID:      body.EventID,
		TicketTypeID: body.TicketTypeID,
		UserID:       userID,
		Quantity:     body.Quantity,
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("failed to place order", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("order placed", order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("order not found", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order", order))
}

// CompleteOrder marks the order paid and issues its tickets. The payment
// provider's webhook relay normally drives this through Kafka; this endpoint
// covers manual completion from the admin dashboard.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, tickets, err := h.OrderService.CompleteOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotCompletable) {
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("order cannot be completed", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to complete order", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order completed", map[string]interface{}{
		"order":   order,
		"tickets": tickets,
	}))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no user identity in request"))
		return
	}

	list, err := h.OrderService.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load orders", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("orders", list))
}
