package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-gatepass/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetAssignment fetches the staff assignment for a (user, event) pair.
// Returns nil without error when none exists.
func (d *DB) GetAssignment(ctx context.Context, userID, eventID string) (*models.StaffAssignment, error) {
	var assignment models.StaffAssignment
	err := d.Bun.NewSelect().
		Model(&assignment).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpsertAssignment creates or replaces a staff role for an event.
func (d *DB) UpsertAssignment(ctx context.Context, assignment models.StaffAssignment) error {
	_, err := d.Bun.NewInsert().
		Model(&assignment).
		On("CONFLICT (user_id, event_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Exec(ctx)
	return err
}
