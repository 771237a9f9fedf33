package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Config describes the single endpoint kiosk events are forwarded to.
type Config struct {
	URL         string
	Secret      string
	Events      []string
	MaxAttempts int
	Timeout     time.Duration
	QueueSize   int
	// RetryBase is the first retry delay; each further attempt doubles it.
	RetryBase time.Duration
}

func DefaultConfig() Config {
	return Config{
		Events:      []string{"face.registered", "face.recognized"},
		MaxAttempts: 5,
		Timeout:     10 * time.Second,
		QueueSize:   256,
		RetryBase:   time.Second,
	}
}

// EventPayload is the JSON body POSTed for every event.
type EventPayload struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type job struct {
	id        uuid.UUID
	eventType string
	payload   []byte
	attempts  int
	nextTry   time.Time
}
