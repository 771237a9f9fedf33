package domain

import (
	"strconv"
	"time"
)

// DescriptorSize is the length of a face descriptor produced by the
// recognition model.
const DescriptorSize = 128

// Descriptor is a face embedding.
type Descriptor []float64

// Valid reports whether the descriptor has the expected length.
func (d Descriptor) Valid() bool {
	return len(d) == DescriptorSize
}

// Clone returns a copy that does not share the backing array.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// EnrolledFace is an identity recorded by the registration flow.
// It is never mutated after creation.
type EnrolledFace struct {
	ID         string     `json:"id"`
	Descriptor Descriptor `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MatchResult is the enrolled face closest to a query descriptor.
type MatchResult struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// DistanceText renders the distance with three decimals.
func (m MatchResult) DistanceText() string {
	return strconv.FormatFloat(m.Distance, 'f', 3, 64)
}

// Recognition is the outcome of a recognition flow that found a face.
type Recognition struct {
	Recognized bool         `json:"recognized"`
	Match      *MatchResult `json:"match,omitempty"`
	Message    string       `json:"message"`
}

// SessionState is the view rendered by the presentation layer.
type SessionState struct {
	Message      string   `json:"message"`
	ModelsLoaded bool     `json:"models_loaded"`
	Users        []string `json:"users"`
	CanRegister  bool     `json:"can_register"`
	CanRecognize bool     `json:"can_recognize"`
	Busy         bool     `json:"busy"`
}
