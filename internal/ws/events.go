package ws

import (
	"encoding/json"
	"time"
)

// EventType names a kiosk notification pushed to connected screens.
// face.recognized is published only for a match under the threshold;
// other recognitions publish face.not_recognized.
type EventType string

const (
	EventSessionUpdated    EventType = "session.updated"
	EventFaceRegistered    EventType = "face.registered"
	EventFaceRecognized    EventType = "face.recognized"
	EventFaceNotRecognized EventType = "face.not_recognized"
	EventModelsLoaded      EventType = "models.loaded"
	EventModelsFailed      EventType = "models.failed"
)

// Valid reports whether t is one of the kiosk event types.
func (t EventType) Valid() bool {
	switch t {
	case EventSessionUpdated, EventFaceRegistered, EventFaceRecognized,
		EventFaceNotRecognized, EventModelsLoaded, EventModelsFailed:
		return true
	}
	return false
}

// Event is the frame written to every WebSocket client.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func newEvent(eventType EventType, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
