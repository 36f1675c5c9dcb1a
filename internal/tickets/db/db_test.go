package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-gatepass/internal/models"
	tickets_db "ms-gatepass/internal/tickets/db"
)

func setupTestDB(t *testing.T) *tickets_db.DB {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.Ticket)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return &tickets_db.DB{Bun: bunDB}
}

func sampleTickets() []models.Ticket {
	now := time.Now()
	return []models.Ticket{
		{TicketID: "ticket-1", Code: "XJ7K2P9Q", EventID: "event-1", OrderID: "order-1", UserID: "user-1", Status: models.TicketStatusActive, IssuedAt: now},
		{TicketID: "ticket-2", Code: "AB3D4E5F", EventID: "event-1", OrderID: "order-1", UserID: "user-1", Status: models.TicketStatusActive, IssuedAt: now.Add(time.Second)},
	}
}

func TestCreateAndFetchTickets(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTickets(ctx, sampleTickets()))

	ticket, err := store.GetTicketByID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, "XJ7K2P9Q", ticket.Code)

	byOrder, err := store.GetTicketsByOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	byUser, err := store.GetTicketsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}

func TestCreateTicketsEmptySlice(t *testing.T) {
	store := setupTestDB(t)
	assert.NoError(t, store.CreateTickets(context.Background(), nil))
}

func TestCodeExists(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTickets(ctx, sampleTickets()))

	exists, err := store.CodeExists(ctx, "XJ7K2P9Q")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.CodeExists(ctx, "ZZZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCancelTicketGuarded(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTickets(ctx, sampleTickets()))

	cancelled, err := store.CancelTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.True(t, cancelled)

	ticket, err := store.GetTicketByID(ctx, "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCancelled, ticket.Status)

	// Cancelled is terminal, a second cancel matches no rows.
	cancelled, err = store.CancelTicket(ctx, "ticket-1")
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = store.CancelTicket(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, cancelled)
}
