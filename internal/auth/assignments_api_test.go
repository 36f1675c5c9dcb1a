package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/models"
)

func newAssignmentRouter(db *fakeAssignmentDB) chi.Router {
	handler := &auth.AssignmentHandler{DB: db}
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doAssign(t *testing.T, r chi.Router, callerID, eventID, targetID, role string) *httptest.ResponseRecorder {
	body, err := json.Marshal(map[string]string{"role": role})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/events/"+eventID+"/staff/"+targetID, bytes.NewReader(body))
	if callerID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), callerID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAssignStaff(t *testing.T) {
	db := &fakeAssignmentDB{assignments: map[string]*models.StaffAssignment{
		key("coord-1", "event-1"): {UserID: "coord-1", EventID: "event-1", Role: models.RoleCoordinator},
	}}
	r := newAssignmentRouter(db)

	rec := doAssign(t, r, "coord-1", "event-1", "staff-1", models.RoleStaff)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := db.assignments[key("staff-1", "event-1")]
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleStaff, stored.Role)
}

func TestAssignStaffReplacesRole(t *testing.T) {
	db := &fakeAssignmentDB{assignments: map[string]*models.StaffAssignment{
		key("admin-1", "event-1"): {UserID: "admin-1", EventID: "event-1", Role: models.RoleAdmin},
		key("staff-1", "event-1"): {UserID: "staff-1", EventID: "event-1", Role: models.RoleStaff},
	}}
	r := newAssignmentRouter(db)

	rec := doAssign(t, r, "admin-1", "event-1", "staff-1", models.RoleCoordinator)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleCoordinator, db.assignments[key("staff-1", "event-1")].Role)
}

func TestAssignStaffDeniedForPlainStaff(t *testing.T) {
	db := &fakeAssignmentDB{assignments: map[string]*models.StaffAssignment{
		key("staff-1", "event-1"): {UserID: "staff-1", EventID: "event-1", Role: models.RoleStaff},
	}}
	r := newAssignmentRouter(db)

	rec := doAssign(t, r, "staff-1", "event-1", "staff-2", models.RoleStaff)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, db.assignments[key("staff-2", "event-1")])
}

func TestAssignStaffDeniedOutsideEvent(t *testing.T) {
	db := &fakeAssignmentDB{assignments: map[string]*models.StaffAssignment{
		key("coord-1", "event-1"): {UserID: "coord-1", EventID: "event-1", Role: models.RoleCoordinator},
	}}
	r := newAssignmentRouter(db)

	rec := doAssign(t, r, "coord-1", "event-2", "staff-1", models.RoleStaff)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignStaffRejectsUnknownRole(t *testing.T) {
	db := &fakeAssignmentDB{assignments: map[string]*models.StaffAssignment{
		key("coord-1", "event-1"): {UserID: "coord-1", EventID: "event-1", Role: models.RoleCoordinator},
	}}
	r := newAssignmentRouter(db)

	rec := doAssign(t, r, "coord-1", "event-1", "staff-1", "owner")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignStaffRequiresIdentity(t *testing.T) {
	r := newAssignmentRouter(&fakeAssignmentDB{})

	rec := doAssign(t, r, "", "event-1", "staff-1", models.RoleStaff)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
