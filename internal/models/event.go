package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	EventID   string    `bun:"event_id,pk" json:"event_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Venue     string    `bun:"venue" json:"venue"`
	StartsAt  time.Time `bun:"starts_at,notnull" json:"starts_at"`
	Published bool      `bun:"published,notnull" json:"published"`
}
