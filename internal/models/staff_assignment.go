package models

import (
	"github.com/uptrace/bun"
)

// Staff roles. Assignments are per event; every role may scan.
const (
	RoleStaff       = "staff"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

type StaffAssignment struct {
	bun.BaseModel `bun:"table:staff_assignments"`

	UserID  string `bun:"user_id,pk" json:"user_id"`
	EventID string `bun:"event_id,pk" json:"event_id"`
	Role    string `bun:"role,notnull" json:"role"`
}
