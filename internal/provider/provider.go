package provider

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when a provider was not compiled in
// or cannot reach its backend.
var ErrProviderUnavailable = errors.New("face provider unavailable")

// ModelKind identifies which stage of the pipeline a model serves.
type ModelKind string

const (
	ModelDetector    ModelKind = "detector"
	ModelLandmarks   ModelKind = "landmarks"
	ModelRecognition ModelKind = "recognition"
)

// Model is a pretrained model bundle addressed by a relative URI.
type Model struct {
	Kind ModelKind `json:"kind"`
	Name string    `json:"name"`
	URI  string    `json:"uri"`
}

// DefaultModels are the three bundles the kiosk needs before any flow can run.
func DefaultModels() []Model {
	return []Model{
		{Kind: ModelDetector, Name: "tiny_face_detector", URI: "/models/tiny_face_detector"},
		{Kind: ModelLandmarks, Name: "face_landmark_68", URI: "/models/face_landmark_68"},
		{Kind: ModelRecognition, Name: "face_recognition", URI: "/models/face_recognition"},
	}
}

// DetectionOptions configures single-face detection.
type DetectionOptions struct {
	InputSize      int     `json:"input_size"`
	ScoreThreshold float64 `json:"score_threshold"`
}

// DefaultDetectionOptions matches the tiny detector settings used by the kiosk.
func DefaultDetectionOptions() DetectionOptions {
	return DetectionOptions{
		InputSize:      128,
		ScoreThreshold: 0.3,
	}
}

// FaceProvider is the opaque inference engine behind the flows.
type FaceProvider interface {
	// LoadModel fetches or validates one model bundle. Calls for different
	// models may run concurrently.
	LoadModel(ctx context.Context, model Model) error

	// Open is called once after every model loaded successfully.
	Open(ctx context.Context) error

	// DetectSingleFace runs detection, landmarks and descriptor extraction
	// on a JPEG frame. It returns nil, nil when no face is found.
	DetectSingleFace(ctx context.Context, frame []byte, opts DetectionOptions) (*DetectedFace, error)

	// Close releases model resources.
	Close() error
}

// DetectedFace is the transient result of one detection call.
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Landmarks   []Point     `json:"landmarks,omitempty"`
	Score       float64     `json:"score"`
	Descriptor  []float64   `json:"-"`
}

// BoundingBox represents the face area in the frame
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a landmark position in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
