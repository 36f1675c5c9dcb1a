package scan_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/scan"
	"ms-gatepass/internal/sse"
	"ms-gatepass/internal/utils"
)

// ScanAuthorizer answers whether an identity may scan tickets for an event.
// The check runs once, here, before the engine is invoked.
type ScanAuthorizer interface {
	CanScan(ctx context.Context, userID, eventID string) (bool, error)
}

// AuditDBLayer exposes the read side of the scan audit trail.
type AuditDBLayer interface {
	AttemptsByEvent(ctx context.Context, eventID string, limit int) ([]models.ScanAttempt, error)
	AttemptsByTicket(ctx context.Context, ticketID string) ([]models.ScanAttempt, error)
}

// ScanEventPublisher streams recorded scans to downstream consumers.
// Publishing is best-effort: a broker outage never blocks the gate.
type ScanEventPublisher interface {
	PublishScanRecorded(attempt models.ScanAttempt) error
}

type Handler struct {
	ScanService *scan.ScanService
	Authorizer  ScanAuthorizer
	AuditDB     AuditDBLayer
	LastCodes   LastCodeStore
	Feed        *sse.ScanFeed
	Publisher   ScanEventPublisher
	Logger      *logger.Logger
}

type scanRequestBody struct {
	Code       string `json:"code"`
	Location   string `json:"location,omitempty"`
	DeviceInfo string `json:"device_info,omitempty"`
}

// RegisterRoutes mounts the scan endpoints under an event-scoped path.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events/{eventID}/scan", func(r chi.Router) {
		r.Post("/", h.Scan)
		r.Post("/stream", h.ScanStream)
	})
	r.Get("/events/{eventID}/scans", h.ListAttempts)
	r.Get("/events/{eventID}/scans/stream", h.StreamScans)
	r.Get("/tickets/{ticketID}/scans", h.ListTicketAttempts)
}

// Scan handles the manual-entry form: staff types or pastes a code.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	h.handleScan(w, r, false)
}

// ScanStream handles camera-decoded QR callbacks. Identical consecutive
// reads from the same scanner are dropped before the engine runs so a code
// sitting in front of the camera is not re-submitted frame after frame.
func (h *Handler) ScanStream(w http.ResponseWriter, r *http.Request) {
	h.handleScan(w, r, true)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request, dedupe bool) {
	eventID := chi.URLParam(r, "eventID")

	var body scanRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	// Caller misuse: blank input never reaches the engine.
	code := utils.NormalizeTicketCode(body.Code)
	if code == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("code is required", "empty ticket code"))
		return
	}

	userID := auth.UserID(r.Context())
	if userID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no user identity in request"))
		return
	}

	allowed, err := h.Authorizer.CanScan(r.Context(), userID, eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("authorization check failed, retry", err.Error()))
		return
	}
	if !allowed {
		if h.Logger != nil {
			h.Logger.LogSecurity("SCAN_DENIED", fmt.Sprintf("user %s lacks scan permission for event %s", userID, eventID))
		}
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("not permitted to scan for this event", "missing scan permission"))
		return
	}

	var prevCode string
	armed := false
	if dedupe {
		prev, err := h.LastCodes.Swap(r.Context(), userID, code)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("SCAN", fmt.Sprintf("dedupe store unavailable, accepting frame: %v", err))
			}
		} else if prev == code {
			utils.WriteJSON(w, http.StatusAccepted, utils.SuccessResponse("duplicate frame ignored", map[string]string{"result": "duplicate_frame"}))
			return
		} else {
			prevCode = prev
			armed = true
		}
	}

	result, err := h.ScanService.Scan(r.Context(), scan.ScanRequest{
		Code:       code,
		EventID:    eventID,
		ScannedBy:  userID,
		Location:   body.Location,
		DeviceInfo: body.DeviceInfo,
	})
	if err != nil {
		// The scan never completed, so the code was not accepted. Put the
		// previous entry back so the retry we are asking for is not dropped
		// as a duplicate frame.
		if armed {
			_, _ = h.LastCodes.Swap(r.Context(), userID, prevCode)
		}
		if errors.Is(err, scan.ErrStorageUnavailable) {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("scan indeterminate, retry", err.Error()))
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("scan failed", err.Error()))
		return
	}

	if h.Feed != nil {
		h.Feed.Publish(eventID, *result)
	}
	if h.Publisher != nil {
		if err := h.Publisher.PublishScanRecorded(result.Attempt); err != nil && h.Logger != nil {
			h.Logger.LogKafka("PUBLISH_FAILED", "scan.recorded", err.Error())
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("scan recorded", result))
}

// ListAttempts returns the audit trail for an event, newest first.
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	attempts, err := h.AuditDB.AttemptsByEvent(r.Context(), eventID, limit)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load scan attempts", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("scan attempts", attempts))
}

// ListTicketAttempts returns every attempt recorded against one ticket.
func (h *Handler) ListTicketAttempts(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	attempts, err := h.AuditDB.AttemptsByTicket(r.Context(), ticketID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load scan attempts", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("scan attempts", attempts))
}

// StreamScans pushes live scan results for an event over SSE.
func (h *Handler) StreamScans(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	resultChan := h.Feed.Subscribe(r.Context(), eventID)
	for result := range resultChan {
		payload, err := json.Marshal(result)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: scan\ndata: %s\n\n", payload)
		flusher.Flush()
	}
}
