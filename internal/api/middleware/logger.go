package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by the kiosk page or by probes; successful hits
// are logged at debug so they do not drown the register/recognize lines.
var quietPaths = map[string]bool{
	"/v1/capture/frame": true,
	"/health":           true,
	"/ready":            true,
}

// Logger writes one structured line per request.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}

		logger.LogAttrs(c.UserContext(), requestLevel(c.Path(), status), "http request", attrs...)
		return err
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return slog.LevelError
	case status >= fiber.StatusBadRequest:
		return slog.LevelWarn
	case quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
