package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

const (
	// minFaceFrameSize is the smallest frame the mock treats as containing a face.
	minFaceFrameSize = 1000
	// detectionScore is the confidence reported for every mock face.
	detectionScore = 0.99
)

// Provider is a deterministic FaceProvider for tests and local development.
type Provider struct {
	mu         sync.Mutex
	loaded     map[provider.ModelKind]bool
	loadErrors map[provider.ModelKind]error
	opened     bool
	detections atomic.Int64
}

// New returns a provider with no models loaded.
func New() *Provider {
	return &Provider{
		loaded:     make(map[provider.ModelKind]bool),
		loadErrors: make(map[provider.ModelKind]error),
	}
}

// FailLoad makes LoadModel fail for the given model kind.
func (p *Provider) FailLoad(kind provider.ModelKind, err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErrors[kind] = err
	return p
}

// LoadModel marks the model as loaded unless a failure was injected.
func (p *Provider) LoadModel(ctx context.Context, model provider.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.loadErrors[model.Kind]; err != nil {
		return err
	}
	p.loaded[model.Kind] = true
	return nil
}

// Open succeeds once all three model kinds are loaded.
func (p *Provider) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range provider.DefaultModels() {
		if !p.loaded[m.Kind] {
			return provider.ErrProviderUnavailable
		}
	}
	p.opened = true
	return nil
}

// DetectSingleFace derives the descriptor from a hash of the frame, so the
// same frame always yields the same face. Frames below minFaceFrameSize,
// or a ScoreThreshold above detectionScore, yield no face. InputSize is
// ignored.
func (p *Provider) DetectSingleFace(ctx context.Context, frame []byte, opts provider.DetectionOptions) (*provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.detections.Add(1)

	if len(frame) < minFaceFrameSize || opts.ScoreThreshold > detectionScore {
		return nil, nil
	}

	return &provider.DetectedFace{
		BoundingBox: provider.BoundingBox{
			X:      0.1,
			Y:      0.1,
			Width:  0.8,
			Height: 0.8,
		},
		Score:      detectionScore,
		Descriptor: generateDescriptor(frame),
	}, nil
}

// Detections returns how many detection calls were made.
func (p *Provider) Detections() int64 {
	return p.detections.Load()
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}

// generateDescriptor spreads the sha256 of frame over a unit-length descriptor.
func generateDescriptor(frame []byte) []float64 {
	hash := sha256.Sum256(frame)
	descriptor := make([]float64, domain.DescriptorSize)
	hashLen := len(hash)

	for i := 0; i < domain.DescriptorSize; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		descriptor[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range descriptor {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range descriptor {
		descriptor[i] /= norm
	}

	return descriptor
}

var _ provider.FaceProvider = (*Provider)(nil)
