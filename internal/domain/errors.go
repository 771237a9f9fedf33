package domain

import (
	"fmt"
)

// AppError carries an error code, the HTTP status it maps to and the
// status line shown to the kiosk user.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches AppErrors by code so wrapped copies compare equal to the
// pre-defined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Session flow errors. Message is the status line shown to the user.
	ErrModelsNotLoaded = &AppError{
		Code:       "MODELS_NOT_LOADED",
		Message:    MsgModelsNotLoaded,
		StatusCode: 503,
	}

	ErrModelLoadFailed = &AppError{
		Code:       "MODEL_LOAD_FAILED",
		Message:    MsgModelsFailed,
		StatusCode: 503,
	}

	ErrCaptureUnavailable = &AppError{
		Code:       "CAPTURE_UNAVAILABLE",
		Message:    MsgNoCamera,
		StatusCode: 503,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    MsgFaceNotFound,
		StatusCode: 422,
	}

	ErrNoEnrolledUsers = &AppError{
		Code:       "NO_ENROLLED_USERS",
		Message:    MsgNoEnrolledUsers,
		StatusCode: 409,
	}

	ErrFlowInProgress = &AppError{
		Code:       "FLOW_IN_PROGRESS",
		Message:    "Another face search is already running",
		StatusCode: 409,
	}

	ErrFlowTimeout = &AppError{
		Code:       "FLOW_TIMEOUT",
		Message:    MsgFlowTimeout,
		StatusCode: 504,
	}

	ErrDetectionFailed = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    MsgDetectionFailed,
		StatusCode: 502,
	}

	ErrInvalidDescriptor = &AppError{
		Code:       "INVALID_DESCRIPTOR",
		Message:    "Face descriptor has an unexpected length",
		StatusCode: 500,
	}
)
