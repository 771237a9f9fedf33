//go:build gocv

package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// CameraSource reads frames from a local camera device.
type CameraSource struct {
	mu     sync.Mutex
	webcam *gocv.VideoCapture
	mat    gocv.Mat
}

// NewCameraSource opens the device once; it stays open until Close.
func NewCameraSource(device, width, height int) (*CameraSource, error) {
	webcam, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, device, err)
	}
	if !webcam.IsOpened() {
		_ = webcam.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrCameraUnavailable, device)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))

	return &CameraSource{webcam: webcam, mat: gocv.NewMat()}, nil
}

// Frame grabs one frame and JPEG-encodes it.
func (c *CameraSource) Frame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil, ErrNoFrame
	}
	if ok := c.webcam.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases the camera.
func (c *CameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.webcam == nil {
		return nil
	}
	_ = c.mat.Close()
	err := c.webcam.Close()
	c.webcam = nil
	return err
}

var _ FrameSource = (*CameraSource)(nil)
