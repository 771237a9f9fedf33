package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

type delivery struct {
	event     EventPayload
	eventType string
	signature string
	timestamp int64
	body      []byte
}

type receiver struct {
	mu     sync.Mutex
	got    []delivery
	fail   atomic.Int32
	server *httptest.Server
}

func newReceiver(t *testing.T) *receiver {
	r := &receiver{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.fail.Load() > 0 {
			r.fail.Add(-1)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		body, _ := io.ReadAll(req.Body)
		var event EventPayload
		_ = json.Unmarshal(body, &event)
		ts, _ := strconv.ParseInt(req.Header.Get(TimestampHeader), 10, 64)

		r.mu.Lock()
		r.got = append(r.got, delivery{
			event:     event,
			eventType: req.Header.Get(EventHeader),
			signature: req.Header.Get(SignatureHeader),
			timestamp: ts,
			body:      body,
		})
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *receiver) received() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.got...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startDispatcher(t *testing.T, config Config) *Dispatcher {
	t.Helper()
	d := NewDispatcher(config, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d
}

func TestDispatcher_DeliversSignedEvent(t *testing.T) {
	r := newReceiver(t)
	d := startDispatcher(t, Config{URL: r.server.URL, Secret: "s3cret", RetryBase: 10 * time.Millisecond})

	d.Broadcast(ws.EventFaceRecognized, map[string]interface{}{"recognized": true, "id": "user1"})

	require.Eventually(t, func() bool { return len(r.received()) == 1 }, time.Second, 5*time.Millisecond)

	got := r.received()[0]
	assert.Equal(t, "face.recognized", got.eventType)
	assert.Equal(t, "face.recognized", got.event.Type)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", got.event.ID.String())
	assert.True(t, Verify("s3cret", got.timestamp, got.body, got.signature))
}

func TestDispatcher_IgnoresUnsubscribedEvents(t *testing.T) {
	r := newReceiver(t)
	d := startDispatcher(t, Config{
		URL:       r.server.URL,
		Events:    []string{"face.registered"},
		RetryBase: 10 * time.Millisecond,
	})

	d.Broadcast(ws.EventSessionUpdated, map[string]string{"message": "Searching..."})
	d.Broadcast(ws.EventFaceRecognized, map[string]string{"id": "user1"})
	d.Broadcast(ws.EventFaceRegistered, map[string]string{"id": "user2"})

	require.Eventually(t, func() bool { return len(r.received()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	got := r.received()
	require.Len(t, got, 1)
	assert.Equal(t, "face.registered", got[0].eventType)
}

func TestDispatcher_DefaultEventsSkipRejections(t *testing.T) {
	r := newReceiver(t)
	d := startDispatcher(t, Config{URL: r.server.URL, RetryBase: 10 * time.Millisecond})

	d.Broadcast(ws.EventFaceNotRecognized, map[string]interface{}{"recognized": false})
	d.Broadcast(ws.EventFaceRecognized, map[string]interface{}{"recognized": true})

	require.Eventually(t, func() bool { return len(r.received()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	got := r.received()
	require.Len(t, got, 1)
	assert.Equal(t, "face.recognized", got[0].eventType)
}

func TestDispatcher_RetriesUntilDelivered(t *testing.T) {
	r := newReceiver(t)
	r.fail.Store(2)
	d := startDispatcher(t, Config{URL: r.server.URL, MaxAttempts: 5, RetryBase: 10 * time.Millisecond})

	d.Broadcast(ws.EventFaceRegistered, map[string]string{"id": "user1"})

	require.Eventually(t, func() bool { return len(r.received()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), r.fail.Load())
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := startDispatcher(t, Config{URL: server.URL, MaxAttempts: 3, RetryBase: 5 * time.Millisecond})
	d.Broadcast(ws.EventFaceRegistered, map[string]string{"id": "user1"})

	require.Eventually(t, func() bool { return attempts.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDispatcher_BroadcastNeverBlocks(t *testing.T) {
	// Not running: the queue fills and further events are dropped
	d := NewDispatcher(Config{URL: "http://127.0.0.1:0", QueueSize: 1}, quietLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Broadcast(ws.EventFaceRegistered, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	assert.Len(t, d.queue, 1)
}

func TestNewDispatcher_SkipsUnknownEvents(t *testing.T) {
	d := NewDispatcher(Config{
		URL:    "http://127.0.0.1:0",
		Events: []string{"face.registered", "user.deleted"},
	}, quietLogger())

	assert.True(t, d.events["face.registered"])
	assert.False(t, d.events["user.deleted"])
}

func TestSender_Send(t *testing.T) {
	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		err := NewSender(server.URL, "", time.Second).Send(context.Background(), "face.registered", []byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 400")
	})

	t.Run("no signature without secret", func(t *testing.T) {
		var header string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header = req.Header.Get(SignatureHeader)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := NewSender(server.URL, "", time.Second).Send(context.Background(), "face.registered", []byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, header)
	})
}
