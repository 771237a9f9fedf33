// Package dlib runs detection and descriptor extraction in-process with
// dlib through github.com/Kagami/go-face. The cgo-backed provider is only
// compiled with the "dlib" build tag.
package dlib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

// Config for the dlib provider.
type Config struct {
	// ModelsDir is the local root that model URIs are resolved against.
	ModelsDir string
}

// modelFiles maps each model kind to the file go-face expects for it.
var modelFiles = map[provider.ModelKind]string{
	provider.ModelDetector:    "mmod_human_face_detector.dat",
	provider.ModelLandmarks:   "shape_predictor_5_face_landmarks.dat",
	provider.ModelRecognition: "dlib_face_recognition_resnet_model_v1.dat",
}

// resolveModel finds the weights file for a model. It looks under
// ModelsDir/uri first and falls back to a flat ModelsDir layout.
func resolveModel(modelsDir string, model provider.Model) (string, error) {
	file, ok := modelFiles[model.Kind]
	if !ok {
		return "", fmt.Errorf("unknown model kind %q", model.Kind)
	}

	candidates := []string{
		filepath.Join(modelsDir, filepath.FromSlash(strings.TrimPrefix(model.URI, "/")), file),
		filepath.Join(modelsDir, file),
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() || info.Size() == 0 {
			return "", fmt.Errorf("model %s: %s is not a weights file", model.Name, path)
		}
		return path, nil
	}

	return "", fmt.Errorf("model %s: %s not found under %s", model.Name, file, modelsDir)
}

// stageModels links the resolved files into one fresh directory, the layout
// go-face's recognizer loads from.
func stageModels(paths map[provider.ModelKind]string) (string, error) {
	dir, err := os.MkdirTemp("", "kiosk-dlib-models-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	for kind, file := range modelFiles {
		src, ok := paths[kind]
		if !ok {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("model kind %s not loaded", kind)
		}

		abs, err := filepath.Abs(src)
		if err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("resolve %s: %w", src, err)
		}

		if err := os.Symlink(abs, filepath.Join(dir, file)); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("stage %s: %w", file, err)
		}
	}

	return dir, nil
}
