package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrNoFaceDetected,
			expected: "Face not found. Please try again.",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrNoEnrolledUsers.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("camera unplugged")
	newErr := ErrCaptureUnavailable.WithError(underlying)

	if newErr.Code != ErrCaptureUnavailable.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrCaptureUnavailable.Code)
	}

	if newErr.StatusCode != ErrCaptureUnavailable.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrCaptureUnavailable.StatusCode)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}

	if !errors.Is(newErr, ErrCaptureUnavailable) {
		t.Errorf("errors.Is should match the pre-defined error by code")
	}
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("register: %w", ErrModelsNotLoaded.WithError(errors.New("loading")))

	if !errors.Is(err, ErrModelsNotLoaded) {
		t.Fatal("errors.Is should see through fmt wrapping")
	}
	if errors.Is(err, ErrNoEnrolledUsers) {
		t.Fatal("different codes must not match")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should match AppError")
	}
	if appErr.Code != "MODELS_NOT_LOADED" {
		t.Errorf("Code = %v, want MODELS_NOT_LOADED", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrInvalidImage, "INVALID_IMAGE", 422},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
		{ErrModelsNotLoaded, "MODELS_NOT_LOADED", 503},
		{ErrModelLoadFailed, "MODEL_LOAD_FAILED", 503},
		{ErrCaptureUnavailable, "CAPTURE_UNAVAILABLE", 503},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrNoEnrolledUsers, "NO_ENROLLED_USERS", 409},
		{ErrFlowInProgress, "FLOW_IN_PROGRESS", 409},
		{ErrFlowTimeout, "FLOW_TIMEOUT", 504},
		{ErrDetectionFailed, "DETECTION_FAILED", 502},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	if got := RegisteredMessage("user3"); got != "Face registered as user3" {
		t.Errorf("RegisteredMessage() = %q", got)
	}

	got := RecognizedMessage(MatchResult{ID: "user1", Distance: 0.42})
	if got != "Recognized face: user1 (distance 0.420)" {
		t.Errorf("RecognizedMessage() = %q", got)
	}
}

func TestMatchResult_DistanceText(t *testing.T) {
	tests := []struct {
		distance float64
		want     string
	}{
		{0.42, "0.420"},
		{0.12345, "0.123"},
		{0.5999, "0.600"},
		{0, "0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := MatchResult{ID: "user1", Distance: tt.distance}
			if got := m.DistanceText(); got != tt.want {
				t.Errorf("DistanceText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	d := make(Descriptor, DescriptorSize)
	if !d.Valid() {
		t.Error("128-length descriptor should be valid")
	}
	if Descriptor(make([]float64, 512)).Valid() {
		t.Error("512-length descriptor should be invalid")
	}

	d[0] = 1
	c := d.Clone()
	c[0] = 2
	if d[0] != 1 {
		t.Error("Clone must not share the backing array")
	}
	if Descriptor(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
