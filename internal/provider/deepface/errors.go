package deepface

import (
	"errors"
	"fmt"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrInvalidManifest     = errors.New("invalid model weights manifest")
	ErrModelsNotLoaded     = errors.New("deepface models not loaded")
)

// statusError is returned for non-2xx responses.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.Status, e.Body)
}
