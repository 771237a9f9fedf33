package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

// Provider implements provider.FaceProvider using DeepFace API.
// Model assets are validated from their weights manifests; inference runs
// on the DeepFace server.
type Provider struct {
	client *Client
	logger *slog.Logger

	mu     sync.Mutex
	loaded map[provider.ModelKind]int
	opened bool
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: NewClient(config),
		logger: logger,
		loaded: make(map[provider.ModelKind]int),
	}
}

// LoadModel fetches and validates the weights manifest published for the model.
func (p *Provider) LoadModel(ctx context.Context, model provider.Model) error {
	raw, err := p.client.FetchManifest(ctx, model.URI)
	if err != nil {
		return fmt.Errorf("load %s: %w", model.Name, err)
	}

	tensors, err := validateManifest(raw)
	if err != nil {
		return fmt.Errorf("load %s: %w", model.Name, err)
	}

	p.mu.Lock()
	p.loaded[model.Kind] = tensors
	p.mu.Unlock()

	p.logger.Debug("model manifest validated",
		"model", model.Name,
		"kind", model.Kind,
		"tensors", tensors,
	)
	return nil
}

// Open requires every model kind to be loaded and the DeepFace API to answer.
func (p *Provider) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, kind := range []provider.ModelKind{provider.ModelDetector, provider.ModelLandmarks, provider.ModelRecognition} {
		if _, ok := p.loaded[kind]; !ok {
			return fmt.Errorf("%w: %s", ErrModelsNotLoaded, kind)
		}
	}

	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}

	p.opened = true
	return nil
}

// DetectSingleFace returns the most confident face at or above the score
// threshold, or nil when the frame has none.
func (p *Provider) DetectSingleFace(ctx context.Context, frame []byte, opts provider.DetectionOptions) (*provider.DetectedFace, error) {
	p.mu.Lock()
	opened := p.opened
	p.mu.Unlock()
	if !opened {
		return nil, ErrModelsNotLoaded
	}

	imageBase64 := base64.StdEncoding.EncodeToString(frame)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect face: %w", err)
	}

	var best *RepresentResult
	for i := range resp.Results {
		r := &resp.Results[i]
		if r.FaceConfidence < opts.ScoreThreshold {
			continue
		}
		if best == nil || r.FaceConfidence > best.FaceConfidence {
			best = r
		}
	}

	if best == nil {
		return nil, nil
	}

	if len(best.Embedding) != domain.DescriptorSize {
		return nil, fmt.Errorf("%w: embedding has %d values, want %d",
			ErrInvalidResponse, len(best.Embedding), domain.DescriptorSize)
	}

	return toDetectedFace(best), nil
}

// Close is a no-op; the DeepFace server holds no per-client state.
func (p *Provider) Close() error {
	p.mu.Lock()
	p.opened = false
	p.mu.Unlock()
	return nil
}

func toDetectedFace(r *RepresentResult) *provider.DetectedFace {
	face := &provider.DetectedFace{
		BoundingBox: provider.BoundingBox{
			X:      float64(r.FacialArea.X),
			Y:      float64(r.FacialArea.Y),
			Width:  float64(r.FacialArea.W),
			Height: float64(r.FacialArea.H),
		},
		Score:      r.FaceConfidence,
		Descriptor: append([]float64(nil), r.Embedding...),
	}

	for _, eye := range [][]int{r.FacialArea.LeftEye, r.FacialArea.RightEye} {
		if len(eye) == 2 {
			face.Landmarks = append(face.Landmarks, provider.Point{X: float64(eye[0]), Y: float64(eye[1])})
		}
	}

	return face
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
