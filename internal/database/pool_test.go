package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://kiosk@localhost/kiosk")

	assert.Equal(t, "postgres://kiosk@localhost/kiosk", cfg.DSN)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.LessOrEqual(t, cfg.MaxIdleConns, cfg.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
}

func TestDatabaseName(t *testing.T) {
	name, err := DatabaseName("postgres://kiosk:secret@db:5432/kiosk_journal?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "kiosk_journal", name)

	_, err = DatabaseName("postgres://%zz")
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_flow_events.up.sql")
	assert.Contains(t, names, "000001_flow_events.down.sql")
}
