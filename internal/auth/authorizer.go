package auth

import (
	"context"
	"fmt"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
)

// AssignmentDBLayer resolves staff assignments. A nil assignment with a nil
// error means the identity holds no role for the event.
type AssignmentDBLayer interface {
	GetAssignment(ctx context.Context, userID, eventID string) (*models.StaffAssignment, error)
}

// CapabilityCache fronts the assignment lookup so the gate does not hit the
// store on every camera frame.
type CapabilityCache interface {
	Get(ctx context.Context, userID, eventID string) (allowed, found bool, err error)
	Set(ctx context.Context, userID, eventID string, allowed bool) error
}

// Authorizer performs the single server-side capability check before the
// scan engine runs: does this identity hold a scanning role for this event.
type Authorizer struct {
	DB     AssignmentDBLayer
	Cache  CapabilityCache
	Logger *logger.Logger
}

func NewAuthorizer(db AssignmentDBLayer, cache CapabilityCache, log *logger.Logger) *Authorizer {
	return &Authorizer{DB: db, Cache: cache, Logger: log}
}

// CanScan reports whether userID may redeem tickets for eventID. All staff
// roles (staff, coordinator, admin) may scan; roles are assigned per event.
func (a *Authorizer) CanScan(ctx context.Context, userID, eventID string) (bool, error) {
	if a.Cache != nil {
		allowed, found, err := a.Cache.Get(ctx, userID, eventID)
		if err != nil && a.Logger != nil {
			a.Logger.Warn("AUTH", fmt.Sprintf("capability cache read failed: %v", err))
		}
		if err == nil && found {
			return allowed, nil
		}
	}

	assignment, err := a.DB.GetAssignment(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve staff assignment: %w", err)
	}

	allowed := assignment != nil && isScanRole(assignment.Role)

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, userID, eventID, allowed); err != nil && a.Logger != nil {
			a.Logger.Warn("AUTH", fmt.Sprintf("capability cache write failed: %v", err))
		}
	}

	return allowed, nil
}

func isScanRole(role string) bool {
	switch role {
	case models.RoleStaff, models.RoleCoordinator, models.RoleAdmin:
		return true
	}
	return false
}
