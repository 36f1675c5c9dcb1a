package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-gatepass/internal/models"
	"ms-gatepass/internal/scan"
)

type DB struct {
	Bun *bun.DB
}

// GetTicketByCode looks up a ticket by its canonical (uppercase) code.
func (d *DB) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scan.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// RedeemTicket performs the active->used transition as a single conditional
// update and, when it matches, commits the success audit row in the same
// transaction. Zero rows affected means another scanner got there first;
// nothing is written in that case.
func (d *DB) RedeemTicket(ctx context.Context, ticketID string, attempt models.ScanAttempt) (bool, error) {
	var redeemed bool
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("status = ?", models.TicketStatusUsed).
			Set("used_at = ?", attempt.ScannedAt).
			Where("ticket_id = ? AND status = ?", ticketID, models.TicketStatusActive).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}

		if _, err := tx.NewInsert().Model(&attempt).Exec(ctx); err != nil {
			return err
		}
		redeemed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return redeemed, nil
}

// RecordAttempt appends one audit row. Attempts are immutable; there is no
// update or delete path.
func (d *DB) RecordAttempt(ctx context.Context, attempt models.ScanAttempt) error {
	_, err := d.Bun.NewInsert().Model(&attempt).Exec(ctx)
	return err
}

// AttemptsByEvent lists the audit trail for an event, newest first.
func (d *DB) AttemptsByEvent(ctx context.Context, eventID string, limit int) ([]models.ScanAttempt, error) {
	var attempts []models.ScanAttempt
	q := d.Bun.NewSelect().
		Model(&attempts).
		Where("event_id = ?", eventID).
		Order("scanned_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return attempts, nil
}

// AttemptsByTicket lists every attempt made against one ticket.
func (d *DB) AttemptsByTicket(ctx context.Context, ticketID string) ([]models.ScanAttempt, error) {
	var attempts []models.ScanAttempt
	err := d.Bun.NewSelect().
		Model(&attempts).
		Where("ticket_id = ?", ticketID).
		Order("scanned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
