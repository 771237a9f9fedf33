package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

// Recover converts a handler panic into domain.ErrInternal so the
// ErrorHandler renders the usual JSON body with the session state.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			attrs := []any{
				slog.String("panic", fmt.Sprint(r)),
				slog.String("route", c.Method()+" "+c.Path()),
				slog.String("stack", string(debug.Stack())),
			}
			if id, ok := c.Locals("requestid").(string); ok {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.Error("handler panicked", attrs...)
			err = domain.ErrInternal
		}()
		return c.Next()
	}
}
