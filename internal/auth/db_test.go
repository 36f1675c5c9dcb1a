package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-gatepass/internal/auth"
	"ms-gatepass/internal/models"
)

func setupTestDB(t *testing.T) *auth.DB {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.StaffAssignment)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return &auth.DB{Bun: bunDB}
}

func TestGetAssignmentMissing(t *testing.T) {
	store := setupTestDB(t)

	assignment, err := store.GetAssignment(context.Background(), "user-1", "event-1")
	require.NoError(t, err)
	assert.Nil(t, assignment)
}

func TestUpsertAssignment(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.UpsertAssignment(ctx, models.StaffAssignment{UserID: "user-1", EventID: "event-1", Role: models.RoleStaff})
	require.NoError(t, err)

	assignment, err := store.GetAssignment(ctx, "user-1", "event-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, models.RoleStaff, assignment.Role)

	// Re-assigning replaces the role for the same (user, event) pair.
	err = store.UpsertAssignment(ctx, models.StaffAssignment{UserID: "user-1", EventID: "event-1", Role: models.RoleCoordinator})
	require.NoError(t, err)

	assignment, err = store.GetAssignment(ctx, "user-1", "event-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, models.RoleCoordinator, assignment.Role)
}
