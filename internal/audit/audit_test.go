package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distance(v float64) *float64 { return &v }

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantContains  []string
	}{
		{
			name: "models loaded",
			event: Event{
				EventType: EventModelsLoaded,
				Flow:      FlowLoad,
				Provider:  "mock",
				Success:   true,
			},
			wantEventType: string(EventModelsLoaded),
			wantContains:  []string{`"flow":"load"`},
		},
		{
			name: "face registered with user id",
			event: Event{
				EventType: EventFaceRegistered,
				Flow:      FlowRegister,
				UserID:    "user1",
				Provider:  "deepface",
				Success:   true,
			},
			wantEventType: string(EventFaceRegistered),
			wantContains:  []string{"user1", "deepface"},
		},
		{
			name: "face recognized with distance",
			event: Event{
				EventType: EventFaceRecognized,
				Flow:      FlowRecognize,
				UserID:    "user2",
				Distance:  distance(0.42),
				Provider:  "mock",
				Success:   true,
			},
			wantEventType: string(EventFaceRecognized),
			wantContains:  []string{"user2", "0.42"},
		},
		{
			name: "rejected flow carries error",
			event: Event{
				EventType: EventFlowRejected,
				Flow:      FlowRecognize,
				Provider:  "mock",
				Error:     "NO_ENROLLED_USERS",
				IPAddress: "192.168.1.1",
			},
			wantEventType: string(EventFlowRejected),
			wantContains:  []string{"NO_ENROLLED_USERS", "192.168.1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			auditLogger := NewSlogLogger(logger)
			err := auditLogger.Log(context.Background(), tt.event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)
			for _, s := range tt.wantContains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := auditLogger.Log(context.Background(), Event{EventType: EventFaceNotFound, Flow: FlowRegister})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)

	var data Event
	require.NoError(t, json.Unmarshal([]byte(logEntry["event_data"].(string)), &data))
	assert.False(t, data.Timestamp.IsZero())
}

func TestSlogLogger_Log_UsesProvidedID(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	expectedID := uuid.New()
	err := auditLogger.Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		EventType: EventFaceNotRecognized,
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), expectedID.String())
	assert.Contains(t, buf.String(), "2024-01-15T10:30:00Z")
}

func TestEvent_OmitsEmptyDistance(t *testing.T) {
	raw, err := json.Marshal(Event{EventType: EventFaceNotFound})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "distance")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = &NoOpLogger{}
	assert.NoError(t, l.Log(context.Background(), Event{EventType: EventModelsFailed}))
}
