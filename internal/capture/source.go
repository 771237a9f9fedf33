// Package capture supplies the frames the face flows analyze.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/config"
)

var (
	// ErrNoFrame means no usable frame is available right now.
	ErrNoFrame = errors.New("no frame available")
	// ErrInvalidFrame is returned for uploads that are not a decodable image.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrCameraUnavailable is returned when the camera cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")
)

// FrameSource yields the current frame as JPEG bytes.
type FrameSource interface {
	Frame(ctx context.Context) ([]byte, error)
	Close() error
}

const (
	SourcePush   = "push"
	SourceCamera = "camera"
)

// New builds the frame source selected by CAPTURE_SOURCE.
func New(cfg *config.Config, logger *slog.Logger) (FrameSource, error) {
	switch cfg.CaptureSource {
	case SourcePush, "":
		return NewPushSource(cfg.CaptureWidth, cfg.CaptureHeight, cfg.CaptureMaxFrameAge, logger), nil
	case SourceCamera:
		src, err := NewCameraSource(cfg.CameraDevice, cfg.CaptureWidth, cfg.CaptureHeight)
		if err != nil {
			return nil, err
		}
		logger.Info("camera opened", "device", cfg.CameraDevice)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown capture source: %s (supported: %s, %s)",
			cfg.CaptureSource, SourcePush, SourceCamera)
	}
}
