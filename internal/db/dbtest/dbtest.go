// Package dbtest provides a migrated Postgres pool for repository tests.
// Tests using it are skipped unless TEST_POSTGRES_DSN is set.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-booking/internal/db"
)

const EnvDSN = "TEST_POSTGRES_DSN"

// Pool connects, applies the schema and empties every table.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres test", EnvDSN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE audit_logs, payments, consultations, availability_slots, doctors`)
	require.NoError(t, err)

	return pool
}
