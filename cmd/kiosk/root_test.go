package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"models", "verify"},
		{"journal", "stats"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSessionConfig(t *testing.T) {
	sc := sessionConfig(&config.Config{
		FaceProvider:           "deepface",
		DetectorInputSize:      160,
		DetectorScoreThreshold: 0.5,
		MatchThreshold:         0.45,
		FlowTimeout:            5 * time.Second,
	})

	assert.Equal(t, 160, sc.Detection.InputSize)
	assert.Equal(t, 0.5, sc.Detection.ScoreThreshold)
	assert.Equal(t, 0.45, sc.MatchThreshold)
	assert.Equal(t, 5*time.Second, sc.FlowTimeout)
	assert.Equal(t, "deepface", sc.ProviderName)
}

func TestWithMigrator_RequiresDatabaseURL(t *testing.T) {
	err := migrateUp(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestWebhookConfig(t *testing.T) {
	wc := webhookConfig(&config.Config{
		WebhookURL:    "http://door.local/hook",
		WebhookSecret: "s3cret",
		WebhookEvents: []string{"face.recognized"},
	})

	assert.Equal(t, "http://door.local/hook", wc.URL)
	assert.Equal(t, "s3cret", wc.Secret)
	assert.Equal(t, []string{"face.recognized"}, wc.Events)
	assert.Equal(t, 5, wc.MaxAttempts)
}
