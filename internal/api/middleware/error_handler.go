package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

// StateFunc returns the session snapshot attached to error responses.
type StateFunc func() domain.SessionState

// ErrorHandler renders every error as {"error":{code,message},"state":...}
// so the page can always show the current status line.
func ErrorHandler(logger *slog.Logger, state StateFunc) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := fiber.Map{}
		if state != nil {
			body["state"] = state()
		}

		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			body["error"] = fiber.Map{
				"code":    "HTTP_ERROR",
				"message": fiberErr.Message,
			}
			return c.Status(fiberErr.Code).JSON(body)
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			// Log internal errors
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
					slog.String("path", c.Path()),
				)
			}

			body["error"] = fiber.Map{
				"code":    appErr.Code,
				"message": appErr.Message,
			}
			return c.Status(appErr.StatusCode).JSON(body)
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		body["error"] = fiber.Map{
			"code":    domain.ErrInternal.Code,
			"message": domain.ErrInternal.Message,
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}
