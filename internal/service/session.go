package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/audit"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/capture"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/enrollment"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

// Notifier pushes session events to connected clients.
type Notifier interface {
	Broadcast(eventType ws.EventType, data interface{})
}

// Notifiers fans each event out to every notifier in order.
type Notifiers []Notifier

func (n Notifiers) Broadcast(eventType ws.EventType, data interface{}) {
	for _, notifier := range n {
		notifier.Broadcast(eventType, data)
	}
}

type noopNotifier struct{}

func (noopNotifier) Broadcast(ws.EventType, interface{}) {}

// SessionConfig holds the tunables of both flows.
type SessionConfig struct {
	Detection      provider.DetectionOptions
	MatchThreshold float64
	FlowTimeout    time.Duration
	ProviderName   string
}

// DefaultSessionConfig: tiny detector at 128px with score 0.3 and a 0.6
// match threshold.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Detection:      provider.DefaultDetectionOptions(),
		MatchThreshold: 0.6,
		FlowTimeout:    30 * time.Second,
	}
}

// Session owns the state both flows share: readiness, the enrollment store
// and the status line. Only one flow runs at a time.
type Session struct {
	loader   *ModelLoader
	store    *enrollment.Store
	provider provider.FaceProvider
	frames   capture.FrameSource
	config   SessionConfig
	notifier Notifier
	audit    audit.Logger
	logger   *slog.Logger

	flow sync.Mutex

	mu      sync.RWMutex
	message string
	busy    bool
}

func NewSession(
	loader *ModelLoader,
	store *enrollment.Store,
	faceProvider provider.FaceProvider,
	frames capture.FrameSource,
	config SessionConfig,
	logger *slog.Logger,
) *Session {
	return &Session{
		loader:   loader,
		store:    store,
		provider: faceProvider,
		frames:   frames,
		config:   config,
		notifier: noopNotifier{},
		audit:    &audit.NoOpLogger{},
		logger:   logger.With("component", "session"),
		message:  domain.MsgLoadingModels,
	}
}

func (s *Session) WithNotifier(n Notifier) *Session {
	s.notifier = n
	return s
}

func (s *Session) WithAudit(a audit.Logger) *Session {
	s.audit = a
	return s
}

// LoadModels runs the model loader and publishes the outcome.
func (s *Session) LoadModels(ctx context.Context) error {
	err := s.loader.Load(ctx)
	if errors.Is(err, errLoadStarted) {
		return nil
	}

	event := audit.Event{
		Flow:     audit.FlowLoad,
		Provider: s.config.ProviderName,
		Duration: s.loader.Duration(),
		Metadata: map[string]string{"models": strconv.Itoa(len(s.loader.Models()))},
	}

	if err != nil {
		s.setMessage(domain.MsgModelsFailed)
		event.EventType = audit.EventModelsFailed
		event.Error = err.Error()
		s.record(ctx, event)
		s.notifier.Broadcast(ws.EventModelsFailed, map[string]string{"error": err.Error()})
		s.publishState()
		return domain.ErrModelLoadFailed.WithError(err)
	}

	s.setMessage(domain.MsgModelsLoaded)
	event.EventType = audit.EventModelsLoaded
	event.Success = true
	s.record(ctx, event)
	s.notifier.Broadcast(ws.EventModelsLoaded, s.loader.Models())
	s.publishState()
	return nil
}

// Register detects a single face in the current frame and enrolls it.
func (s *Session) Register(ctx context.Context, clientIP string) (*domain.EnrolledFace, error) {
	if !s.flow.TryLock() {
		s.reject(ctx, audit.FlowRegister, clientIP, domain.ErrFlowInProgress)
		return nil, domain.ErrFlowInProgress
	}
	defer s.flow.Unlock()

	start := time.Now()

	if !s.loader.Ready() {
		return nil, s.fail(ctx, audit.FlowRegister, clientIP, domain.ErrModelsNotLoaded)
	}

	ctx, cancel := s.flowContext(ctx)
	defer cancel()

	frame, err := s.frames.Frame(ctx)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRegister, clientIP, s.frameError(ctx, err))
	}

	s.begin(domain.MsgSearchingRegister)
	defer s.end()

	face, err := s.provider.DetectSingleFace(ctx, frame, s.config.Detection)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRegister, clientIP, s.detectError(ctx, err))
	}
	if face == nil || len(face.Descriptor) == 0 {
		return nil, s.notFound(ctx, audit.FlowRegister, clientIP, start)
	}

	enrolled, err := s.store.Add(face.Descriptor)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRegister, clientIP, err)
	}

	s.setMessage(domain.RegisteredMessage(enrolled.ID))
	s.record(ctx, audit.Event{
		EventType: audit.EventFaceRegistered,
		Flow:      audit.FlowRegister,
		UserID:    enrolled.ID,
		Provider:  s.config.ProviderName,
		Success:   true,
		IPAddress: clientIP,
		Duration:  time.Since(start),
		Metadata:  map[string]string{"score": strconv.FormatFloat(face.Score, 'f', 3, 64)},
	})
	s.notifier.Broadcast(ws.EventFaceRegistered, map[string]interface{}{
		"id":         enrolled.ID,
		"created_at": enrolled.CreatedAt,
	})
	s.logger.Info("face registered", "id", enrolled.ID, "users", s.store.Len())

	return &enrolled, nil
}

// Recognize detects a single face and compares it to every enrolled face.
// Detection is never invoked when nobody is enrolled.
func (s *Session) Recognize(ctx context.Context, clientIP string) (*domain.Recognition, error) {
	if !s.flow.TryLock() {
		s.reject(ctx, audit.FlowRecognize, clientIP, domain.ErrFlowInProgress)
		return nil, domain.ErrFlowInProgress
	}
	defer s.flow.Unlock()

	start := time.Now()

	if !s.loader.Ready() {
		return nil, s.fail(ctx, audit.FlowRecognize, clientIP, domain.ErrModelsNotLoaded)
	}
	if s.store.Len() == 0 {
		return nil, s.fail(ctx, audit.FlowRecognize, clientIP, domain.ErrNoEnrolledUsers)
	}

	ctx, cancel := s.flowContext(ctx)
	defer cancel()

	frame, err := s.frames.Frame(ctx)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRecognize, clientIP, s.frameError(ctx, err))
	}

	s.begin(domain.MsgSearchingRecognize)
	defer s.end()

	face, err := s.provider.DetectSingleFace(ctx, frame, s.config.Detection)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRecognize, clientIP, s.detectError(ctx, err))
	}
	if face == nil || len(face.Descriptor) == 0 {
		return nil, s.notFound(ctx, audit.FlowRecognize, clientIP, start)
	}

	match, ok, err := s.store.Nearest(face.Descriptor)
	if err != nil {
		return nil, s.fail(ctx, audit.FlowRecognize, clientIP, err)
	}

	result := &domain.Recognition{Message: domain.MsgNotRecognized}
	if ok {
		result.Match = &match
		result.Recognized = match.Distance < s.config.MatchThreshold
	}

	event := audit.Event{
		EventType: audit.EventFaceNotRecognized,
		Flow:      audit.FlowRecognize,
		Provider:  s.config.ProviderName,
		Success:   true,
		IPAddress: clientIP,
		Duration:  time.Since(start),
		Metadata:  map[string]string{"threshold": strconv.FormatFloat(s.config.MatchThreshold, 'f', -1, 64)},
	}
	if ok {
		event.Distance = &match.Distance
		event.Metadata["nearest"] = match.ID
	}

	if result.Recognized {
		result.Message = domain.RecognizedMessage(match)
		event.EventType = audit.EventFaceRecognized
		event.UserID = match.ID
	}

	published := ws.EventFaceNotRecognized
	if result.Recognized {
		published = ws.EventFaceRecognized
	}

	s.setMessage(result.Message)
	s.record(ctx, event)
	s.notifier.Broadcast(published, result)
	s.logger.Info("recognition finished",
		"recognized", result.Recognized,
		"nearest", match.ID,
		"distance", match.DistanceText(),
	)

	return result, nil
}

// State snapshots the session for the presentation layer.
func (s *Session) State() domain.SessionState {
	users := s.store.IDs()
	ready := s.loader.Ready()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.SessionState{
		Message:      s.message,
		ModelsLoaded: ready,
		Users:        users,
		CanRegister:  ready,
		CanRecognize: ready && len(users) > 0,
		Busy:         s.busy,
	}
}

// Users returns the enrolled identifiers in insertion order.
func (s *Session) Users() []string {
	return s.store.IDs()
}

// Message returns the current status line.
func (s *Session) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

func (s *Session) flowContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.FlowTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.FlowTimeout)
}

func (s *Session) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// begin marks detection as running and publishes the searching message.
func (s *Session) begin(msg string) {
	s.mu.Lock()
	s.message = msg
	s.busy = true
	s.mu.Unlock()
	s.publishState()
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	s.publishState()
}

func (s *Session) publishState() {
	s.notifier.Broadcast(ws.EventSessionUpdated, s.State())
}

func (s *Session) frameError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrFlowTimeout.WithError(err)
	}
	return domain.ErrCaptureUnavailable.WithError(err)
}

func (s *Session) detectError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrFlowTimeout.WithError(err)
	}
	return domain.ErrDetectionFailed.WithError(err)
}

func (s *Session) notFound(ctx context.Context, flow, clientIP string, start time.Time) error {
	s.setMessage(domain.MsgFaceNotFound)
	s.record(ctx, audit.Event{
		EventType: audit.EventFaceNotFound,
		Flow:      flow,
		Provider:  s.config.ProviderName,
		Success:   true,
		IPAddress: clientIP,
		Duration:  time.Since(start),
	})
	s.publishState()
	return domain.ErrNoFaceDetected
}

// fail sets the status line from err and records the rejection. Errors
// that are not AppErrors leave the status line alone.
func (s *Session) fail(ctx context.Context, flow, clientIP string, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		s.setMessage(appErr.Message)
	}

	s.reject(ctx, flow, clientIP, err)
	s.publishState()

	if appErr == nil {
		return fmt.Errorf("%s: %w", flow, err)
	}
	return err
}

func (s *Session) reject(ctx context.Context, flow, clientIP string, err error) {
	code := err.Error()
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventFlowRejected,
		Flow:      flow,
		Provider:  s.config.ProviderName,
		Error:     code,
		IPAddress: clientIP,
	})

	if appErr != nil && appErr.StatusCode >= 500 {
		s.logger.Error("flow failed", "flow", flow, "code", code, "error", err)
		return
	}
	s.logger.Debug("flow rejected", "flow", flow, "code", code)
}

func (s *Session) record(ctx context.Context, event audit.Event) {
	// Audit must outlive a timed-out flow context
	if err := s.audit.Log(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to record audit event", "event_type", event.EventType, "error", err)
	}
}
