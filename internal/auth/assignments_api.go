package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
	"ms-gatepass/internal/utils"
)

// AssignmentManagerDBLayer extends the assignment lookup with the write side
// used by the staff-management endpoint.
type AssignmentManagerDBLayer interface {
	AssignmentDBLayer
	UpsertAssignment(ctx context.Context, assignment models.StaffAssignment) error
}

// AssignmentHandler manages per-event staff roles. Only a coordinator or
// admin of the event may grant roles for it.
type AssignmentHandler struct {
	DB     AssignmentManagerDBLayer
	Logger *logger.Logger
}

type assignmentBody struct {
	Role string `json:"role"`
}

func (h *AssignmentHandler) RegisterRoutes(r chi.Router) {
	r.Put("/events/{eventID}/staff/{userID}", h.AssignStaff)
}

func (h *AssignmentHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	targetID := chi.URLParam(r, "userID")

	callerID := UserID(r.Context())
	if callerID == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", "no user identity in request"))
		return
	}

	caller, err := h.DB.GetAssignment(r.Context(), callerID, eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("assignment lookup failed, retry", err.Error()))
		return
	}
	if caller == nil || !isManageRole(caller.Role) {
		if h.Logger != nil {
			h.Logger.LogSecurity("ASSIGN_DENIED", fmt.Sprintf("user %s may not manage staff for event %s", callerID, eventID))
		}
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("not permitted to manage staff for this event", "missing coordinator role"))
		return
	}

	var body assignmentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if !isScanRole(body.Role) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("unknown role", fmt.Sprintf("role %q is not assignable", body.Role)))
		return
	}

	assignment := models.StaffAssignment{UserID: targetID, EventID: eventID, Role: body.Role}
	if err := h.DB.UpsertAssignment(r.Context(), assignment); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to store assignment", err.Error()))
		return
	}

	if h.Logger != nil {
		h.Logger.Info("AUTH", fmt.Sprintf("User %s assigned role %s for event %s by %s", targetID, body.Role, eventID, callerID))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("assignment stored", assignment))
}

// isManageRole gates staff management. Plain staff can scan but not grant.
func isManageRole(role string) bool {
	return role == models.RoleCoordinator || role == models.RoleAdmin
}
