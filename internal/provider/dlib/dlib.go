//go:build dlib

package dlib

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

// Provider implements provider.FaceProvider on top of go-face.
type Provider struct {
	config Config
	logger *slog.Logger

	mu         sync.Mutex
	paths      map[provider.ModelKind]string
	stagingDir string
	rec        *face.Recognizer
}

// NewProvider creates a dlib provider. Models are not touched until LoadModel.
func NewProvider(config Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		config: config,
		logger: logger,
		paths:  make(map[provider.ModelKind]string),
	}, nil
}

// LoadModel checks the model file exists locally.
func (p *Provider) LoadModel(ctx context.Context, model provider.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := resolveModel(p.config.ModelsDir, model)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.paths[model.Kind] = path
	p.mu.Unlock()

	p.logger.Debug("model file found", "model", model.Name, "path", path)
	return nil
}

// Open stages the model files and initializes the dlib recognizer.
func (p *Provider) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec != nil {
		return nil
	}

	dir, err := stageModels(p.paths)
	if err != nil {
		return err
	}

	rec, err := face.NewRecognizer(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("init recognizer: %w", err)
	}

	p.rec = rec
	p.stagingDir = dir
	return nil
}

// DetectSingleFace runs go-face on a JPEG frame. go-face reports no score,
// so a returned face always has Score 1.
func (p *Provider) DetectSingleFace(ctx context.Context, frame []byte, _ provider.DetectionOptions) (*provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec == nil {
		return nil, fmt.Errorf("%w: recognizer not open", provider.ErrProviderUnavailable)
	}

	f, err := p.rec.RecognizeSingle(frame)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	descriptor := make([]float64, len(f.Descriptor))
	for i, v := range f.Descriptor {
		descriptor[i] = float64(v)
	}

	landmarks := make([]provider.Point, 0, len(f.Shapes))
	for _, pt := range f.Shapes {
		landmarks = append(landmarks, provider.Point{X: float64(pt.X), Y: float64(pt.Y)})
	}

	return &provider.DetectedFace{
		BoundingBox: provider.BoundingBox{
			X:      float64(f.Rectangle.Min.X),
			Y:      float64(f.Rectangle.Min.Y),
			Width:  float64(f.Rectangle.Dx()),
			Height: float64(f.Rectangle.Dy()),
		},
		Landmarks:  landmarks,
		Score:      1,
		Descriptor: descriptor,
	}, nil
}

// Close frees the recognizer and removes the staging directory.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
	if p.stagingDir != "" {
		err := os.RemoveAll(p.stagingDir)
		p.stagingDir = ""
		return err
	}
	return nil
}

var _ provider.FaceProvider = (*Provider)(nil)
