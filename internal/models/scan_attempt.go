package models

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// Scan results. Every call to the scan engine records exactly one attempt
// with one of these results; the rows are append-only.
const (
	ScanResultSuccess     = "success"
	ScanResultAlreadyUsed = "already_used"
	ScanResultInvalid     = "invalid"
)

type ScanAttempt struct {
	bun.BaseModel `bun:"table:scan_attempts"`

	AttemptID  string         `bun:"attempt_id,pk" json:"attempt_id"`
	TicketID   sql.NullString `bun:"ticket_id" json:"ticket_id,omitempty"`
	EventID    string         `bun:"event_id" json:"event_id"`
	ScannedBy  string         `bun:"scanned_by,notnull" json:"scanned_by"`
	ScannedAt  time.Time      `bun:"scanned_at,notnull" json:"scanned_at"`
	Location   string         `bun:"location" json:"location,omitempty"`
	DeviceInfo string         `bun:"device_info" json:"device_info,omitempty"`
	Result     string         `bun:"result,notnull" json:"result"`
}
