package tickets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-gatepass/internal/models"
	"ms-gatepass/internal/tickets"
	"ms-gatepass/internal/utils"
)

// MockTicketDBLayer is a mock implementation of the TicketDBLayer interface
type MockTicketDBLayer struct {
	mock.Mock
}

func (m *MockTicketDBLayer) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketDBLayer) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketDBLayer) CancelTicket(ctx context.Context, ticketID string) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func completedOrder(quantity int) models.Order {
	return models.Order{
		OrderID:  "order-1",
		EventID:  "event-1",
		UserID:   "user-1",
		Quantity: quantity,
		Status:   models.OrderStatusCompleted,
	}
}

func TestIssueForOrder(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("GetTicketsByOrder", mock.Anything, "order-1").Return([]models.Ticket{}, nil)
	mockDB.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	mockDB.On("CreateTickets", mock.Anything, mock.Anything).Return(nil)

	issued, err := svc.IssueForOrder(context.Background(), completedOrder(3))
	require.NoError(t, err)
	require.Len(t, issued, 3)

	seen := make(map[string]bool)
	for _, ticket := range issued {
		assert.Equal(t, models.TicketStatusActive, ticket.Status)
		assert.Equal(t, "event-1", ticket.EventID)
		assert.Equal(t, "user-1", ticket.UserID)
		assert.Len(t, ticket.Code, utils.TicketCodeLength)
		assert.NotEmpty(t, ticket.QRCode)
		assert.False(t, seen[ticket.Code], "codes must be unique within an order")
		seen[ticket.Code] = true
	}
	mockDB.AssertNumberOfCalls(t, "CreateTickets", 1)
}

func TestIssueForOrderIdempotent(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	existing := []models.Ticket{
		{TicketID: "ticket-1", Code: "XJ7K2P9Q", OrderID: "order-1", Status: models.TicketStatusActive, IssuedAt: time.Now()},
		{TicketID: "ticket-2", Code: "AB3D4E5F", OrderID: "order-1", Status: models.TicketStatusActive, IssuedAt: time.Now()},
	}
	mockDB.On("GetTicketsByOrder", mock.Anything, "order-1").Return(existing, nil)

	issued, err := svc.IssueForOrder(context.Background(), completedOrder(2))
	require.NoError(t, err)
	assert.Equal(t, existing, issued)
	mockDB.AssertNotCalled(t, "CreateTickets", mock.Anything, mock.Anything)
}

func TestIssueForOrderZeroQuantity(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("GetTicketsByOrder", mock.Anything, "order-1").Return([]models.Ticket{}, nil)

	issued, err := svc.IssueForOrder(context.Background(), completedOrder(0))
	require.Error(t, err)
	assert.Nil(t, issued)
}

func TestIssueForOrderRetriesCollidingCodes(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("GetTicketsByOrder", mock.Anything, "order-1").Return([]models.Ticket{}, nil)
	mockDB.On("CodeExists", mock.Anything, mock.Anything).Return(true, nil).Twice()
	mockDB.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	mockDB.On("CreateTickets", mock.Anything, mock.Anything).Return(nil)

	issued, err := svc.IssueForOrder(context.Background(), completedOrder(1))
	require.NoError(t, err)
	require.Len(t, issued, 1)
	mockDB.AssertNumberOfCalls(t, "CodeExists", 3)
}

func TestIssueForOrderCodeCollisionExhausted(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("GetTicketsByOrder", mock.Anything, "order-1").Return([]models.Ticket{}, nil)
	mockDB.On("CodeExists", mock.Anything, mock.Anything).Return(true, nil)

	_, err := svc.IssueForOrder(context.Background(), completedOrder(1))
	assert.ErrorIs(t, err, tickets.ErrCodeCollision)
	mockDB.AssertNotCalled(t, "CreateTickets", mock.Anything, mock.Anything)
}

func TestCancelTicket(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("CancelTicket", mock.Anything, "ticket-1").Return(true, nil)

	err := svc.CancelTicket(context.Background(), "ticket-1")
	assert.NoError(t, err)
}

func TestCancelTicketNotActive(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("CancelTicket", mock.Anything, "ticket-1").Return(false, nil)

	err := svc.CancelTicket(context.Background(), "ticket-1")
	assert.ErrorIs(t, err, tickets.ErrTicketNotCancellable)
}

func TestCancelTicketStorageError(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil)

	mockDB.On("CancelTicket", mock.Anything, "ticket-1").Return(false, errors.New("connection refused"))

	err := svc.CancelTicket(context.Background(), "ticket-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, tickets.ErrTicketNotCancellable)
}
