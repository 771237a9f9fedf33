package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

// LoadState is the lifecycle of the model loader.
type LoadState string

const (
	LoadPending LoadState = "pending"
	LoadRunning LoadState = "loading"
	LoadDone    LoadState = "loaded"
	LoadFailed  LoadState = "failed"
)

var errLoadStarted = errors.New("model load already started")

// ModelLoader loads the detector, landmark and recognition models once.
// A failed load is not retried.
type ModelLoader struct {
	provider provider.FaceProvider
	models   []provider.Model
	logger   *slog.Logger

	ready atomic.Bool

	mu       sync.Mutex
	state    LoadState
	err      error
	duration time.Duration
}

func NewModelLoader(faceProvider provider.FaceProvider, models []provider.Model, logger *slog.Logger) *ModelLoader {
	return &ModelLoader{
		provider: faceProvider,
		models:   models,
		logger:   logger.With("component", "model_loader"),
		state:    LoadPending,
	}
}

// Load fetches every model concurrently, waits for all of them and then
// opens the provider. Only the first call does any work.
func (l *ModelLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.state != LoadPending {
		l.mu.Unlock()
		return errLoadStarted
	}
	l.state = LoadRunning
	l.mu.Unlock()

	start := time.Now()
	err := l.load(ctx)
	elapsed := time.Since(start)

	l.mu.Lock()
	l.duration = elapsed
	l.err = err
	if err != nil {
		l.state = LoadFailed
	} else {
		l.state = LoadDone
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("failed to load models", "error", err, "duration", elapsed)
		return err
	}

	l.ready.Store(true)
	l.logger.Info("models loaded", "count", len(l.models), "duration", elapsed)
	return nil
}

func (l *ModelLoader) load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, model := range l.models {
		g.Go(func() error {
			if err := l.provider.LoadModel(gctx, model); err != nil {
				return fmt.Errorf("load %s model %s: %w", model.Kind, model.Name, err)
			}
			l.logger.Debug("model loaded", "kind", model.Kind, "name", model.Name, "uri", model.URI)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := l.provider.Open(ctx); err != nil {
		return fmt.Errorf("open provider: %w", err)
	}

	return nil
}

// Ready reports whether every model loaded and the provider is open.
func (l *ModelLoader) Ready() bool {
	return l.ready.Load()
}

// State returns the lifecycle state and the load error, if any.
func (l *ModelLoader) State() (LoadState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.err
}

// Duration is how long the last load took.
func (l *ModelLoader) Duration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.duration
}

// Models returns the configured model bundles.
func (l *ModelLoader) Models() []provider.Model {
	return append([]provider.Model(nil), l.models...)
}

// Verify loads the models one at a time and reports each result to
// progress, then opens the provider. It does not change readiness.
func (l *ModelLoader) Verify(ctx context.Context, progress func(model provider.Model, err error)) error {
	var failed []error

	for _, model := range l.models {
		err := l.provider.LoadModel(ctx, model)
		if progress != nil {
			progress(model, err)
		}
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", model.Name, err))
		}
	}

	if len(failed) > 0 {
		return errors.Join(failed...)
	}

	if err := l.provider.Open(ctx); err != nil {
		return fmt.Errorf("open provider: %w", err)
	}
	return nil
}
