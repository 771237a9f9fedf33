//go:build !dlib

package dlib

import (
	"log/slog"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
)

// NewProvider reports the provider as unavailable; rebuild with -tags dlib.
func NewProvider(_ Config, _ *slog.Logger) (provider.FaceProvider, error) {
	return nil, provider.ErrProviderUnavailable
}
