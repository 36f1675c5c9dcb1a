package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
)

// ErrOrderNotCompletable is returned when completion targets an order that
// is cancelled or missing.
var ErrOrderNotCompletable = errors.New("order cannot be completed")

type OrderDBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	CompleteOrder(ctx context.Context, orderID string, at time.Time) (bool, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// Issuer is the ticket-issuance collaborator invoked at order completion.
type Issuer interface {
	IssueForOrder(ctx context.Context, order models.Order) ([]models.Ticket, error)
}

// OrderEventPublisher announces completed orders to downstream services.
type OrderEventPublisher interface {
	PublishOrderCompleted(order models.Order) error
}

type OrderService struct {
	DB        OrderDBLayer
	Issuer    Issuer
	Publisher OrderEventPublisher
	Logger    *logger.Logger
}

func NewOrderService(db OrderDBLayer, issuer Issuer, publisher OrderEventPublisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Issuer: issuer, Publisher: publisher, Logger: log}
}

// PlaceOrder records a pending order for a number of units of one ticket
// type. Payment happens elsewhere; completion arrives via the API or the
// order-completed topic.
func (s *OrderService) PlaceOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if order.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive, got %d", order.Quantity)
	}
	if order.EventID == "" || order.UserID == "" {
		return nil, errors.New("order requires an event and a user")
	}

	if order.OrderID == "" {
		order.OrderID = uuid.New().String()
	}
	order.Status = models.OrderStatusPending
	order.CreatedAt = time.Now()

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("ORDERS", fmt.Sprintf("Order %s placed for event %s (%d units)", order.OrderID, order.EventID, order.Quantity))
	}
	return &order, nil
}

// CompleteOrder flips a pending order to completed with a guarded update and
// issues its tickets. Replays are safe: a second completion of the same
// order finds it already completed and just re-reads the issued tickets.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID string) (*models.Order, []models.Ticket, error) {
	now := time.Now()
	completed, err := s.DB.CompleteOrder(ctx, orderID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to complete order %s: %w", orderID, err)
	}

	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}

	if !completed && order.Status != models.OrderStatusCompleted {
		return nil, nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotCompletable, orderID, order.Status)
	}

	tickets, err := s.Issuer.IssueForOrder(ctx, *order)
	if err != nil {
		return nil, nil, fmt.Errorf("order %s completed but issuance failed: %w", orderID, err)
	}

	if completed && s.Publisher != nil {
		if err := s.Publisher.PublishOrderCompleted(*order); err != nil && s.Logger != nil {
			s.Logger.LogKafka("PUBLISH_FAILED", "order.completed", err.Error())
		}
	}

	if s.Logger != nil {
		s.Logger.Info("ORDERS", fmt.Sprintf("Order %s completed, %d tickets issued", orderID, len(tickets)))
	}
	return order, tickets, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	return order, nil
}

func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.DB.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders for user %s: %w", userID, err)
	}
	return orders, nil
}
