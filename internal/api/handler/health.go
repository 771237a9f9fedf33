package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Version is reported by /health.
const Version = "0.1.0"

// ReadyChecker reports whether the models finished loading.
type ReadyChecker interface {
	Ready() bool
}

type HealthHandler struct {
	ready ReadyChecker
}

func NewHealthHandler(ready ReadyChecker) *HealthHandler {
	return &HealthHandler{ready: ready}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.ready == nil || !h.ready.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "loading",
		})
	}
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
