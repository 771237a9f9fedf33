package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Writer persists a batch of events.
type Writer interface {
	InsertBatch(ctx context.Context, events []Event) error
}

// JournalWorker writes events to a Writer asynchronously in batches.
type JournalWorker struct {
	writer Writer
	logger *slog.Logger

	// Buffered so Enqueue never blocks a flow
	eventCh chan Event

	batchInterval time.Duration
	maxBatchSize  int
	writeTimeout  time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// JournalWorkerConfig holds configuration for the worker
type JournalWorkerConfig struct {
	BufferSize    int           // Channel buffer size (default: 1000)
	BatchInterval time.Duration // Interval to flush a batch (default: 5 seconds)
	MaxBatchSize  int           // Max events per batch (default: 100)
	WriteTimeout  time.Duration // Timeout for one batch insert (default: 10 seconds)
}

// DefaultJournalWorkerConfig returns default configuration
func DefaultJournalWorkerConfig() JournalWorkerConfig {
	return JournalWorkerConfig{
		BufferSize:    1000,
		BatchInterval: 5 * time.Second,
		MaxBatchSize:  100,
		WriteTimeout:  10 * time.Second,
	}
}

// NewJournalWorker creates a new worker
func NewJournalWorker(writer Writer, logger *slog.Logger, config JournalWorkerConfig) *JournalWorker {
	defaults := DefaultJournalWorkerConfig()
	if config.BufferSize == 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.BatchInterval == 0 {
		config.BatchInterval = defaults.BatchInterval
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = defaults.MaxBatchSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	return &JournalWorker{
		writer:        writer,
		logger:        logger,
		eventCh:       make(chan Event, config.BufferSize),
		batchInterval: config.BatchInterval,
		maxBatchSize:  config.MaxBatchSize,
		writeTimeout:  config.WriteTimeout,
		done:          make(chan struct{}),
	}
}

// Start begins the background worker
func (w *JournalWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Info("journal worker started",
		"buffer_size", cap(w.eventCh),
		"batch_interval", w.batchInterval,
	)
}

// Stop flushes pending events and shuts down the worker
func (w *JournalWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		w.logger.Info("journal worker stopped")
	})
}

// Enqueue adds an event for async insertion.
// Non-blocking: if buffer is full, the event is dropped
func (w *JournalWorker) Enqueue(event Event) {
	select {
	case w.eventCh <- event:
	default:
		w.logger.Warn("journal event dropped - buffer full", "event_type", event.EventType)
	}
}

func (w *JournalWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.batchInterval)
	defer ticker.Stop()

	var batch []Event

	for {
		select {
		case <-w.done:
			// Drain whatever is still buffered
			for {
				select {
				case event := <-w.eventCh:
					batch = append(batch, event)
				default:
					w.flush(batch)
					return
				}
			}

		case event := <-w.eventCh:
			batch = append(batch, event)
			if len(batch) >= w.maxBatchSize {
				w.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = nil
			}
		}
	}
}

func (w *JournalWorker) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.writer.InsertBatch(ctx, batch); err != nil {
		w.logger.Error("failed to write journal batch", "count", len(batch), "error", err)
		return
	}

	w.logger.Debug("journal batch written", "count", len(batch))
}

// JournalLogger logs through next and also enqueues every event for the
// journal. Journal failures never reach the caller.
type JournalLogger struct {
	next   Logger
	worker *JournalWorker
}

// NewJournalLogger wraps next with the journal worker.
func NewJournalLogger(next Logger, worker *JournalWorker) *JournalLogger {
	return &JournalLogger{next: next, worker: worker}
}

// Log records the event with next, then enqueues it.
func (l *JournalLogger) Log(ctx context.Context, event Event) error {
	event = prepare(event)
	err := l.next.Log(ctx, event)
	l.worker.Enqueue(event)
	return err
}
