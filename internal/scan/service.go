package scan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/utils"
)

var (
	// ErrTicketNotFound is returned by the DB layer when no ticket matches
	// a code. The engine turns it into an invalid outcome, never an error.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrStorageUnavailable wraps transport-level store failures. A scan
	// that fails with it is indeterminate and must be retried by the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ScanDBLayer is the persistence capability the engine needs. RedeemTicket
// must perform the status transition as a single conditional update keyed on
// status = 'active' and report whether it matched, committing the success
// audit row in the same transaction.
type ScanDBLayer interface {
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	RedeemTicket(ctx context.Context, ticketID string, attempt models.ScanAttempt) (bool, error)
	RecordAttempt(ctx context.Context, attempt models.ScanAttempt) error
}

// ScanRequest carries one redemption attempt. Code may be raw scanner input;
// it is normalized before lookup. ScannedBy must already be authenticated
// and authorized by the caller.
type ScanRequest struct {
	Code       string
	EventID    string
	ScannedBy  string
	Location   string
	DeviceInfo string
}

// ScanResult is what every scan call returns: one of the three expected
// outcomes, the ticket payload where one exists, and the audit row that was
// persisted for the attempt.
type ScanResult struct {
	Result  string             `json:"result"`
	Ticket  *models.Ticket     `json:"ticket,omitempty"`
	Attempt models.ScanAttempt `json:"attempt"`
}

type ScanService struct {
	DB     ScanDBLayer
	Logger *logger.Logger
}

func NewScanService(db ScanDBLayer, log *logger.Logger) *ScanService {
	return &ScanService{DB: db, Logger: log}
}

// Scan classifies a presented ticket code and, when the ticket is active,
// transitions it to used. Exactly one ScanAttempt row is persisted per call
// regardless of outcome. Expected outcomes (invalid, already_used) are data;
// only storage failures surface as errors.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	code := utils.NormalizeTicketCode(req.Code)
	now := time.Now()

	ticket, err := s.DB.GetTicketByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrTicketNotFound) {
		return nil, fmt.Errorf("%w: ticket lookup failed: %v", ErrStorageUnavailable, err)
	}

	if ticket == nil {
		return s.record(ctx, req, nil, models.ScanResultInvalid, now)
	}

	// A ticket for a different event is unusable at this gate, whatever its
	// status. The capability check upstream is keyed on the gate's event, so
	// letting a foreign ticket through would sidestep it.
	if req.EventID != "" && ticket.EventID != req.EventID {
		return s.record(ctx, req, ticket, models.ScanResultInvalid, now)
	}

	switch ticket.Status {
	case models.TicketStatusUsed:
		return s.record(ctx, req, ticket, models.ScanResultAlreadyUsed, now)
	case models.TicketStatusActive:
		// fall through to the guarded transition below
	default:
		// cancelled or any unknown state is unusable at the gate
		return s.record(ctx, req, ticket, models.ScanResultInvalid, now)
	}

	attempt := s.newAttempt(req, ticket, models.ScanResultSuccess, now)
	redeemed, err := s.DB.RedeemTicket(ctx, ticket.TicketID, attempt)
	if err != nil {
		return nil, fmt.Errorf("%w: redemption failed: %v", ErrStorageUnavailable, err)
	}

	if !redeemed {
		// Lost the race against a concurrent scan of the same code. The
		// conditional update matched nothing, so re-fetch and classify.
		fresh, err := s.DB.GetTicketByCode(ctx, code)
		if err != nil && !errors.Is(err, ErrTicketNotFound) {
			return nil, fmt.Errorf("%w: ticket re-fetch failed: %v", ErrStorageUnavailable, err)
		}
		if fresh != nil && fresh.Status == models.TicketStatusUsed {
			return s.record(ctx, req, fresh, models.ScanResultAlreadyUsed, now)
		}
		return s.record(ctx, req, fresh, models.ScanResultInvalid, now)
	}

	ticket.Status = models.TicketStatusUsed
	ticket.UsedAt = now
	if s.Logger != nil {
		s.Logger.LogScan(models.ScanResultSuccess, code, req.ScannedBy)
	}
	return &ScanResult{Result: models.ScanResultSuccess, Ticket: ticket, Attempt: attempt}, nil
}

// record persists the audit row for a non-success outcome and builds the
// caller-facing result.
func (s *ScanService) record(ctx context.Context, req ScanRequest, ticket *models.Ticket, result string, at time.Time) (*ScanResult, error) {
	attempt := s.newAttempt(req, ticket, result, at)
	if err := s.DB.RecordAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("%w: audit write failed: %v", ErrStorageUnavailable, err)
	}
	if s.Logger != nil {
		s.Logger.LogScan(result, utils.NormalizeTicketCode(req.Code), req.ScannedBy)
	}
	return &ScanResult{Result: result, Ticket: ticket, Attempt: attempt}, nil
}

func (s *ScanService) newAttempt(req ScanRequest, ticket *models.Ticket, result string, at time.Time) models.ScanAttempt {
	attempt := models.ScanAttempt{
		AttemptID:  utils.GenerateAttemptID(),
		EventID:    req.EventID,
		ScannedBy:  req.ScannedBy,
		ScannedAt:  at,
		Location:   req.Location,
		DeviceInfo: req.DeviceInfo,
		Result:     result,
	}
	if ticket != nil {
		attempt.TicketID = sql.NullString{String: ticket.TicketID, Valid: true}
		if attempt.EventID == "" {
			attempt.EventID = ticket.EventID
		}
	}
	return attempt
}
