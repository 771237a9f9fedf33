package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// SessionStateResponse mirrors the session view rendered by the page
type SessionStateResponse struct {
	Message      string   `json:"message" example:"Models loaded. You can register a face."`
	ModelsLoaded bool     `json:"models_loaded" example:"true"`
	Users        []string `json:"users" example:"user1,user2"`
	CanRegister  bool     `json:"can_register" example:"true"`
	CanRecognize bool     `json:"can_recognize" example:"true"`
	Busy         bool     `json:"busy" example:"false"`
}

// UsersResponse lists enrolled identifiers
type UsersResponse struct {
	Users []string `json:"users" example:"user1,user2"`
	Count int      `json:"count" example:"2"`
}

// RegisterFaceResponse represents the response for a successful registration
type RegisterFaceResponse struct {
	ID        string               `json:"id" example:"user1"`
	CreatedAt string               `json:"created_at" example:"2024-01-01T00:00:00Z"`
	Message   string               `json:"message" example:"Face registered as user1"`
	State     SessionStateResponse `json:"state"`
}

// MatchData is the nearest enrolled face
type MatchData struct {
	ID           string  `json:"id" example:"user1"`
	Distance     float64 `json:"distance" example:"0.42"`
	DistanceText string  `json:"distance_text" example:"0.420"`
}

// RecognizeFaceResponse represents the response for a recognition attempt
type RecognizeFaceResponse struct {
	Recognized bool                 `json:"recognized" example:"true"`
	Match      MatchData            `json:"match"`
	Message    string               `json:"message" example:"Recognized face: user1 (distance 0.420)"`
	State      SessionStateResponse `json:"state"`
}

// FrameInfoResponse describes the stored frame
type FrameInfoResponse struct {
	Width      int    `json:"width" example:"320"`
	Height     int    `json:"height" example:"240"`
	Size       int    `json:"size" example:"14230"`
	ReceivedAt string `json:"received_at" example:"2024-01-01T00:00:00Z"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"NO_FACE_DETECTED"`
	Message string `json:"message" example:"Face not found. Please try again."`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Rekko Kiosk API",
		Version:     "v1.0.0",
		Description: "Single-camera face registration and recognition kiosk",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Session endpoints

		// GET /v1/session - Session state
		endpoint.New(
			endpoint.GET,
			"/session",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("Current session state"),
			endpoint.WithDescription("Returns the status line, model readiness, enrolled users and which actions are available."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionStateResponse{}, "200", "Session state"),
			}),
		),

		// GET /v1/session/users - Enrolled users
		endpoint.New(
			endpoint.GET,
			"/session/users",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("List enrolled users"),
			endpoint.WithDescription("Enrolled identifiers in registration order."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UsersResponse{}, "200", "Enrolled users"),
			}),
		),

		// POST /v1/session/register - Register Face
		endpoint.New(
			endpoint.POST,
			"/session/register",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("Register the face in the current frame"),
			endpoint.WithDescription("Detects a single face in the latest frame and enrolls it as the next userN."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RegisterFaceResponse{}, "201", "Face registered"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "FLOW_IN_PROGRESS", Message: "Another face search is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "Face not found. Please try again."}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "MODELS_NOT_LOADED", Message: "Models are not loaded yet!"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "CAPTURE_UNAVAILABLE", Message: "No camera access."}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "FLOW_TIMEOUT", Message: "Face search timed out. Please try again."}, "504", "Gateway Timeout"),
			}),
		),

		// POST /v1/session/recognize - Recognize Face
		endpoint.New(
			endpoint.POST,
			"/session/recognize",
			endpoint.WithTags("Session"),
			endpoint.WithSummary("Recognize the face in the current frame"),
			endpoint.WithDescription("Detects a single face and compares it with every enrolled face. Recognized when the nearest Euclidean distance is below the match threshold."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeFaceResponse{}, "200", "Recognition finished"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_ENROLLED_USERS", Message: "No registered users to compare against."}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "FLOW_IN_PROGRESS", Message: "Another face search is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "Face not found. Please try again."}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "MODELS_NOT_LOADED", Message: "Models are not loaded yet!"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "FLOW_TIMEOUT", Message: "Face search timed out. Please try again."}, "504", "Gateway Timeout"),
			}),
		),

		// Capture endpoints

		// PUT /v1/capture/frame - Upload frame
		endpoint.New(
			endpoint.PUT,
			"/capture/frame",
			endpoint.WithTags("Capture"),
			endpoint.WithSummary("Upload the current webcam frame"),
			endpoint.WithDescription("Accepts a JPEG or PNG as the multipart field 'frame' or as the raw body. The frame is downscaled to the capture resolution."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data"), mime.MIME("image/jpeg"), mime.MIME("image/png")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameInfoResponse{}, "200", "Frame stored"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /v1/capture/frame - Latest frame
		endpoint.New(
			endpoint.GET,
			"/capture/frame",
			endpoint.WithTags("Capture"),
			endpoint.WithSummary("Latest frame"),
			endpoint.WithDescription("Returns the frame the next flow would analyze, as JPEG."),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/jpeg")}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "CAPTURE_UNAVAILABLE", Message: "No camera access."}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
