//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/audit"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/database"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/repository"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "kiosk_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/kiosk_test?sslmode=disable", host, port.Port())
}

func assertTableExists(t *testing.T, db *sql.DB, table string, want bool) {
	t.Helper()
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
	require.NoError(t, err)
	assert.Equal(t, want, exists, "table %s", table)
}

func TestMigratorIntegration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := database.NewPool(database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, "kiosk_test")
	require.NoError(t, err)

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Up(), "second Up is a no-op")
	assertTableExists(t, db, "flow_events", true)

	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	t.Run("journal round trip", func(t *testing.T) {
		pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(dsn))
		require.NoError(t, err)
		defer pool.Close()

		repo := repository.NewFlowEventRepository(pool)
		d := 0.31
		err = repo.InsertBatch(ctx, []audit.Event{
			{ID: uuid.New(), Timestamp: time.Now().UTC(), EventType: audit.EventFaceRegistered, Flow: audit.FlowRegister, UserID: "user1", Provider: "mock", Success: true},
			{ID: uuid.New(), Timestamp: time.Now().UTC(), EventType: audit.EventFaceRecognized, Flow: audit.FlowRecognize, UserID: "user1", Distance: &d, Provider: "mock", Success: true, Metadata: map[string]string{"threshold": "0.6"}},
		})
		require.NoError(t, err)

		counts, err := repo.CountSince(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, counts, 2)
	})

	require.NoError(t, migrator.Down())
	assertTableExists(t, db, "flow_events", false)
	require.NoError(t, migrator.Close())
}
