package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// embedded migrations. Returns a cleanup function that must be called
// after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the trade_records schema. Inlined rather than
// importing the migrations package, which would create an import cycle
// between it and this package's tests.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trade_records (
			trade_id                TEXT PRIMARY KEY,
			symbol                  TEXT NOT NULL,
			strategy_id             TEXT NOT NULL,
			trade_number            INTEGER NOT NULL,
			position_side           TEXT NOT NULL,
			entry_time              BIGINT NOT NULL,
			entry_price             DOUBLE PRECISION NOT NULL,
			exit_time               BIGINT NOT NULL,
			exit_price              DOUBLE PRECISION NOT NULL,
			exit_reason             TEXT NOT NULL,
			tp_price                DOUBLE PRECISION NOT NULL DEFAULT 0,
			sl_price                DOUBLE PRECISION NOT NULL DEFAULT 0,
			tp_price_hit            BOOLEAN NOT NULL DEFAULT FALSE,
			sl_price_hit            BOOLEAN NOT NULL DEFAULT FALSE,
			max_pos_pct_change      DOUBLE PRECISION NOT NULL,
			max_pos_pct_change_time BIGINT NOT NULL,
			max_neg_pct_change      DOUBLE PRECISION NOT NULL,
			max_neg_pct_change_time BIGINT NOT NULL,
			trade_score             DOUBLE PRECISION NOT NULL,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	require.NoError(t, err, "failed to create trade_records table")
}
