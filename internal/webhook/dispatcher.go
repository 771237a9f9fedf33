package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

// Dispatcher forwards selected session events to an external endpoint.
// Delivery is asynchronous and retried with exponential backoff; events
// are dropped when the queue is full or attempts run out.
type Dispatcher struct {
	sender *Sender
	config Config
	events map[string]bool
	logger *slog.Logger

	queue chan job
	now   func() time.Time
}

func NewDispatcher(config Config, logger *slog.Logger) *Dispatcher {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.RetryBase <= 0 {
		config.RetryBase = defaults.RetryBase
	}
	if len(config.Events) == 0 {
		config.Events = defaults.Events
	}

	logger = logger.With("component", "webhook")
	events := make(map[string]bool, len(config.Events))
	for _, e := range config.Events {
		if !ws.EventType(e).Valid() {
			logger.Warn("ignoring unknown webhook event", "event_type", e)
			continue
		}
		events[e] = true
	}

	return &Dispatcher{
		sender: NewSender(config.URL, config.Secret, config.Timeout),
		config: config,
		events: events,
		logger: logger,
		queue:  make(chan job, config.QueueSize),
		now:    time.Now,
	}
}

// Broadcast queues the event if it is subscribed. It never blocks.
func (d *Dispatcher) Broadcast(eventType ws.EventType, data interface{}) {
	if !d.events[string(eventType)] {
		return
	}

	event := EventPayload{
		ID:        uuid.New(),
		Type:      string(eventType),
		Data:      data,
		Timestamp: d.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal webhook event", "event_type", eventType, "error", err)
		return
	}

	select {
	case d.queue <- job{id: event.ID, eventType: event.Type, payload: payload}:
	default:
		d.logger.Warn("webhook queue full, dropping event", "event_type", eventType)
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.config.RetryBase)
	defer ticker.Stop()

	var retries []job

	d.logger.Info("webhook dispatcher started", "url", d.config.URL)

	for {
		select {
		case <-ctx.Done():
			if len(retries) > 0 {
				d.logger.Warn("webhook dispatcher stopped with pending retries", "pending", len(retries))
			}
			d.logger.Info("webhook dispatcher stopped")
			return

		case j := <-d.queue:
			if retry, ok := d.deliver(ctx, j); ok {
				retries = append(retries, retry)
			}

		case <-ticker.C:
			now := d.now()
			pending := retries[:0]
			for _, j := range retries {
				if now.Before(j.nextTry) {
					pending = append(pending, j)
					continue
				}
				if retry, ok := d.deliver(ctx, j); ok {
					pending = append(pending, retry)
				}
			}
			retries = pending
		}
	}
}

// deliver sends j once. It returns the job to retry and true when another
// attempt is allowed.
func (d *Dispatcher) deliver(ctx context.Context, j job) (job, bool) {
	j.attempts++

	err := d.sender.Send(ctx, j.eventType, j.payload)
	if err == nil {
		d.logger.Debug("webhook delivered", "event_id", j.id, "event_type", j.eventType, "attempts", j.attempts)
		return job{}, false
	}

	if j.attempts >= d.config.MaxAttempts || ctx.Err() != nil {
		d.logger.Error("webhook delivery failed",
			"event_id", j.id,
			"event_type", j.eventType,
			"attempts", j.attempts,
			"error", err,
		)
		return job{}, false
	}

	delay := d.config.RetryBase << (j.attempts - 1)
	j.nextTry = d.now().Add(delay)

	d.logger.Info("webhook scheduled for retry",
		"event_id", j.id,
		"attempts", j.attempts,
		"next_retry", j.nextTry,
		"error", err,
	)
	return j, true
}
