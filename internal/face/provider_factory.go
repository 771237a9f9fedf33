package face

import (
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/config"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider/mock"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeMock derives descriptors from frame bytes (dev/test)
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeDeepFace delegates inference to a DeepFace server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs dlib in-process (requires -tags dlib)
	ProviderTypeDlib ProviderType = "dlib"
)

// NewFaceProvider creates a FaceProvider instance based on configuration
//
// Environment variables:
//   - FACE_PROVIDER: "mock", "deepface" or "dlib" (default: "mock")
//   - DEEPFACE_URL: DeepFace API URL
//   - MODELS_BASE_URL: where weights manifests are served (deepface)
//   - MODELS_DIR: local model files (dlib)
func NewFaceProvider(cfg *config.Config, logger *slog.Logger) (provider.FaceProvider, error) {
	switch ProviderType(cfg.FaceProvider) {
	case ProviderTypeMock, "":
		return mock.New(), nil

	case ProviderTypeDeepFace:
		return createDeepFaceProvider(cfg, logger), nil

	case ProviderTypeDlib:
		prov, err := dlib.NewProvider(dlib.Config{ModelsDir: cfg.ModelsDir}, logger)
		if err != nil {
			return nil, fmt.Errorf("create dlib provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, ProviderTypeMock, ProviderTypeDeepFace, ProviderTypeDlib)
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config, logger *slog.Logger) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.ModelsBaseURL != "" {
		deepfaceConfig.ModelsBaseURL = cfg.ModelsBaseURL
	}

	return deepface.NewProvider(deepfaceConfig, logger)
}
