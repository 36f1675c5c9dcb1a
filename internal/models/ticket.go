package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket statuses. A ticket starts active; used and cancelled are terminal.
const (
	TicketStatusActive    = "active"
	TicketStatusUsed      = "used"
	TicketStatusCancelled = "cancelled"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID     string    `bun:"ticket_id,pk" json:"ticket_id"`
	Code         string    `bun:"code,unique,notnull" json:"code"`
	EventID      string    `bun:"event_id,notnull" json:"event_id"`
	TicketTypeID string    `bun:"ticket_type_id" json:"ticket_type_id"`
	OrderID      string    `bun:"order_id,notnull" json:"order_id"`
	UserID       string    `bun:"user_id,notnull" json:"user_id"`
	Status       string    `bun:"status,notnull" json:"status"`
	QRCode       []byte    `bun:"qr_code" json:"-"`
	IssuedAt     time.Time `bun:"issued_at,notnull" json:"issued_at"`
	UsedAt       time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
}
