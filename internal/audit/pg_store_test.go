package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-booking/internal/db/dbtest"
)

func Test_listQuery_AppliesFilters(t *testing.T) {
	userID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := listQuery(Filter{UserID: &userID, Action: ActionConsultationBooked, From: &from})
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "audit_logs"`)
	assert.Contains(t, query, `"user_id" = $`)
	assert.Contains(t, query, `"action" = $`)
	assert.Contains(t, query, `"created_at" >= $`)
	assert.Contains(t, query, `ORDER BY "created_at" DESC`)
	assert.Contains(t, args, userID.String())
	assert.Contains(t, args, ActionConsultationBooked)
}

func Test_listQuery_Unfiltered(t *testing.T) {
	query, _, err := listQuery(Filter{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
}

func Test_PgStore_WriteAndList(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	store := NewPgStore(pool)

	userID, resourceID := uuid.New(), uuid.New()
	older := Event{
		ID: uuid.New(), UserID: &userID, Action: ActionConsultationBooked, ResourceType: ResourceConsultation,
		ResourceID: &resourceID, Details: map[string]any{"scheduled_at": "2024-01-10T10:00:00Z"},
		IPAddress: "10.0.0.1", CreatedAt: time.Now().Add(-time.Minute).UTC(),
	}
	newer := Event{
		ID: uuid.New(), Action: ActionUnauthorizedAccess, ResourceType: ResourceAPI, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Write(ctx, older))
	require.NoError(t, store.Write(ctx, newer))

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Nil(t, all[0].UserID)

	mine, err := store.List(ctx, Filter{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "2024-01-10T10:00:00Z", mine[0].Details["scheduled_at"])
	assert.Equal(t, "10.0.0.1", mine[0].IPAddress)
	assert.Equal(t, resourceID, *mine[0].ResourceID)
}
