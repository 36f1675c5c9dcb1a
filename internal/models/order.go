package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID      string    `bun:"order_id,pk" json:"order_id"`
	EventID      string    `bun:"event_id,notnull" json:"event_id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	TicketTypeID string    `bun:"ticket_type_id" json:"ticket_type_id"`
	Quantity     int       `bun:"quantity,notnull" json:"quantity"`
	Status       string    `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
	CompletedAt  time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}
