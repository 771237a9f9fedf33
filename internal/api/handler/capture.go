package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/capture"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

const (
	maxFrameSize = 5 * 1024 * 1024 // 5MB
)

// FrameStore accepts frames pushed by the browser.
type FrameStore interface {
	Push(data []byte) (capture.FrameInfo, error)
}

// CaptureHandler receives webcam frames and serves the latest one back.
type CaptureHandler struct {
	frames capture.FrameSource
	logger *slog.Logger
}

func NewCaptureHandler(frames capture.FrameSource, logger *slog.Logger) *CaptureHandler {
	return &CaptureHandler{
		frames: frames,
		logger: logger,
	}
}

// PutFrame PUT /v1/capture/frame - replace the current frame
func (h *CaptureHandler) PutFrame(c *fiber.Ctx) error {
	store, ok := h.frames.(FrameStore)
	if !ok {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "frames are read from a local camera")
	}

	data, err := extractFrame(c)
	if err != nil {
		return err
	}

	info, err := store.Push(data)
	if err != nil {
		if errors.Is(err, capture.ErrInvalidFrame) {
			return domain.ErrInvalidImage.WithError(err)
		}
		return err
	}

	return c.JSON(info)
}

// GetFrame GET /v1/capture/frame - latest frame as JPEG
func (h *CaptureHandler) GetFrame(c *fiber.Ctx) error {
	frame, err := h.frames.Frame(c.UserContext())
	if err != nil {
		if errors.Is(err, capture.ErrNoFrame) {
			return domain.ErrCaptureUnavailable.WithError(err)
		}
		return err
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(frame)
}

// extractFrame reads the multipart "frame" field, falling back to the raw body.
func extractFrame(c *fiber.Ctx) ([]byte, error) {
	if file, err := c.FormFile("frame"); err == nil {
		if file.Size == 0 || file.Size > maxFrameSize {
			return nil, domain.ErrInvalidImage.WithError(nil)
		}

		f, err := file.Open()
		if err != nil {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		defer func() {
			_ = f.Close()
		}()

		data, err := io.ReadAll(io.LimitReader(f, maxFrameSize))
		if err != nil {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		return data, nil
	}

	body := c.Body()
	if len(body) == 0 || len(body) > maxFrameSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// The request body buffer is reused by fasthttp after the handler returns.
	data := make([]byte, len(body))
	copy(data, body)
	return data, nil
}
