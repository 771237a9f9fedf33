package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
)

const jpegQuality = 85

// maxFramePixels bounds the decoded bitmap of an upload. A small, highly
// compressed PNG can declare dimensions that would need gigabytes to decode.
const maxFramePixels = 4096 * 4096

// FrameInfo describes a stored frame.
type FrameInfo struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Size       int       `json:"size"`
	ReceivedAt time.Time `json:"received_at"`
}

// PushSource keeps the latest frame uploaded by the browser.
type PushSource struct {
	width, height int
	maxAge        time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu    sync.RWMutex
	frame []byte
	info  FrameInfo
}

// NewPushSource creates a source that fits frames into width x height.
// A maxAge of zero keeps frames valid forever.
func NewPushSource(width, height int, maxAge time.Duration, logger *slog.Logger) *PushSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSource{
		width:  width,
		height: height,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

// Push decodes, downscales and stores a frame, replacing the previous one.
func (s *PushSource) Push(data []byte) (FrameInfo, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FrameInfo{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxFramePixels {
		return FrameInfo{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidFrame, cfg.Width, cfg.Height, maxFramePixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return FrameInfo{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	scaled := fit(img, s.width, s.height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return FrameInfo{}, fmt.Errorf("encode frame: %w", err)
	}

	b := scaled.Bounds()
	info := FrameInfo{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Size:       buf.Len(),
		ReceivedAt: s.now(),
	}

	s.mu.Lock()
	s.frame = buf.Bytes()
	s.info = info
	s.mu.Unlock()

	s.logger.Debug("frame received",
		"format", format,
		"upload", humanize.Bytes(uint64(len(data))),
		"stored", humanize.Bytes(uint64(info.Size)),
		"width", info.Width,
		"height", info.Height,
	)

	return info, nil
}

// Frame returns a copy of the latest frame, or ErrNoFrame when none was
// pushed or it is older than maxAge.
func (s *PushSource) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.frame == nil {
		return nil, ErrNoFrame
	}
	if s.maxAge > 0 && s.now().Sub(s.info.ReceivedAt) > s.maxAge {
		return nil, fmt.Errorf("%w: last frame is %s old", ErrNoFrame, s.now().Sub(s.info.ReceivedAt).Round(time.Second))
	}

	return append([]byte(nil), s.frame...), nil
}

// Info returns metadata of the latest frame and whether one exists.
func (s *PushSource) Info() (FrameInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info, s.frame != nil
}

// Close drops the stored frame.
func (s *PushSource) Close() error {
	s.mu.Lock()
	s.frame = nil
	s.info = FrameInfo{}
	s.mu.Unlock()
	return nil
}

// fit downscales img to fit inside maxW x maxH keeping its aspect ratio.
// Smaller images are returned as is.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}

	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var _ FrameSource = (*PushSource)(nil)
