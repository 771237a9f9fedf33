//go:build !gocv

package capture

import "fmt"

// NewCameraSource is unavailable without the gocv build tag.
func NewCameraSource(device, _, _ int) (FrameSource, error) {
	return nil, fmt.Errorf("%w: device %d: built without -tags gocv", ErrCameraUnavailable, device)
}
