package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/tickets/qr"
	"ms-gatepass/internal/utils"
)

// ErrCodeCollision is returned when code generation keeps hitting existing
// codes. With a 36^8 space this points at a broken RNG, not bad luck.
var ErrCodeCollision = errors.New("could not generate a unique ticket code")

// ErrTicketNotCancellable is returned when cancellation targets a ticket
// that is no longer active. Used and cancelled are terminal states.
var ErrTicketNotCancellable = errors.New("only active tickets can be cancelled")

const maxCodeAttempts = 5

type TicketDBLayer interface {
	CreateTickets(ctx context.Context, tickets []models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
	GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CancelTicket(ctx context.Context, ticketID string) (bool, error)
}

type TicketService struct {
	DB     TicketDBLayer
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewTicketService(db TicketDBLayer, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, QR: qr.NewGenerator(), Logger: log}
}

// IssueForOrder creates one active ticket per purchased unit, each with a
// fresh unique code and a QR image. Issuance is idempotent per order: if
// tickets already exist they are returned as-is, so replayed completion
// events cannot double-issue.
func (s *TicketService) IssueForOrder(ctx context.Context, order models.Order) ([]models.Ticket, error) {
	existing, err := s.DB.GetTicketsByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing tickets for order %s: %w", order.OrderID, err)
	}
	if len(existing) > 0 {
		if s.Logger != nil {
			s.Logger.Info("TICKETS", fmt.Sprintf("Order %s already has %d tickets, skipping issuance", order.OrderID, len(existing)))
		}
		return existing, nil
	}

	if order.Quantity <= 0 {
		return nil, fmt.Errorf("order %s has no units to issue", order.OrderID)
	}

	now := time.Now()
	issued := make([]models.Ticket, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		code, err := s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}

		png, err := s.QR.Encode(code)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR for order %s: %w", order.OrderID, err)
		}

		issued = append(issued, models.Ticket{
			TicketID:     uuid.New().String(),
			Code:         code,
			EventID:      order.EventID,
			TicketTypeID: order.TicketTypeID,
			OrderID:      order.OrderID,
			UserID:       order.UserID,
			Status:       models.TicketStatusActive,
			QRCode:       png,
			IssuedAt:     now,
		})
	}

	if err := s.DB.CreateTickets(ctx, issued); err != nil {
		return nil, fmt.Errorf("failed to persist tickets for order %s: %w", order.OrderID, err)
	}

	if s.Logger != nil {
		s.Logger.Info("TICKETS", fmt.Sprintf("Issued %d tickets for order %s", len(issued), order.OrderID))
	}
	return issued, nil
}

// uniqueCode draws codes until one is unused, with a bounded retry.
func (s *TicketService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := utils.GenerateTicketCode()
		if err != nil {
			return "", err
		}
		exists, err := s.DB.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeCollision
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	return ticket, nil
}

func (s *TicketService) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for order %s: %w", orderID, err)
	}
	return tickets, nil
}

func (s *TicketService) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for user %s: %w", userID, err)
	}
	return tickets, nil
}

// CancelTicket voids an active ticket. The transition uses the same guarded
// update shape as redemption, so a ticket that was just scanned cannot be
// cancelled underneath the holder and vice versa.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID string) error {
	cancelled, err := s.DB.CancelTicket(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to cancel ticket %s: %w", ticketID, err)
	}
	if !cancelled {
		return ErrTicketNotCancellable
	}
	if s.Logger != nil {
		s.Logger.Info("TICKETS", fmt.Sprintf("Ticket %s cancelled", ticketID))
	}
	return nil
}
