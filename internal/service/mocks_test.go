package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/audit"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

type MockFaceProvider struct {
	mock.Mock
}

func (m *MockFaceProvider) LoadModel(ctx context.Context, model provider.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockFaceProvider) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockFaceProvider) DetectSingleFace(ctx context.Context, frame []byte, opts provider.DetectionOptions) (*provider.DetectedFace, error) {
	args := m.Called(ctx, frame, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.DetectedFace), args.Error(1)
}

func (m *MockFaceProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockFrameSource struct {
	mock.Mock
}

func (m *MockFrameSource) Frame(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFrameSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.EventType
}

func (n *recordingNotifier) Broadcast(eventType ws.EventType, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func (n *recordingNotifier) has(eventType ws.EventType) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == eventType {
			return true
		}
	}
	return false
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) types() []audit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

func (r *recordingAudit) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
