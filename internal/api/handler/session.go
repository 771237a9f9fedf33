package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

// SessionService is the part of the session the HTTP layer drives.
type SessionService interface {
	Register(ctx context.Context, clientIP string) (*domain.EnrolledFace, error)
	Recognize(ctx context.Context, clientIP string) (*domain.Recognition, error)
	State() domain.SessionState
	Users() []string
}

// SessionHandler exposes the registration and recognition flows.
type SessionHandler struct {
	session SessionService
}

func NewSessionHandler(session SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

// UsersResponse lists enrolled identifiers in insertion order.
type UsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// RegisterResponse response for the register endpoint
type RegisterResponse struct {
	ID        string              `json:"id"`
	CreatedAt string              `json:"created_at"`
	Message   string              `json:"message"`
	State     domain.SessionState `json:"state"`
}

// MatchResponse is the nearest enrolled face.
type MatchResponse struct {
	ID           string  `json:"id"`
	Distance     float64 `json:"distance"`
	DistanceText string  `json:"distance_text"`
}

// RecognizeResponse response for the recognize endpoint
type RecognizeResponse struct {
	Recognized bool                `json:"recognized"`
	Match      *MatchResponse      `json:"match,omitempty"`
	Message    string              `json:"message"`
	State      domain.SessionState `json:"state"`
}

// State GET /v1/session
func (h *SessionHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.session.State())
}

// Users GET /v1/session/users
func (h *SessionHandler) Users(c *fiber.Ctx) error {
	users := h.session.Users()
	if users == nil {
		users = []string{}
	}
	return c.JSON(UsersResponse{Users: users, Count: len(users)})
}

// Register POST /v1/session/register - enroll the face in the current frame
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	face, err := h.session.Register(c.UserContext(), c.IP())
	if err != nil {
		return err
	}

	state := h.session.State()
	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		ID:        face.ID,
		CreatedAt: face.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Message:   state.Message,
		State:     state,
	})
}

// Recognize POST /v1/session/recognize - match the face in the current frame
func (h *SessionHandler) Recognize(c *fiber.Ctx) error {
	result, err := h.session.Recognize(c.UserContext(), c.IP())
	if err != nil {
		return err
	}

	resp := RecognizeResponse{
		Recognized: result.Recognized,
		Message:    result.Message,
		State:      h.session.State(),
	}
	if result.Match != nil {
		resp.Match = &MatchResponse{
			ID:           result.Match.ID,
			Distance:     result.Match.Distance,
			DistanceText: result.Match.DistanceText(),
		}
	}
	return c.JSON(resp)
}
