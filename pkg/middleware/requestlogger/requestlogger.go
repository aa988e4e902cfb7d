package requestlogger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
)

type Config struct {
	// Disable drops the INFO-level request logs; errors still log.
	Disable bool `mapstructure:"disable"`

	WithRequestQuery bool `mapstructure:"request_query"`
}

// New logs one line per completed request.
func New(config Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()

		attrs := []any{
			slog.String("event", "api_request"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.String("ip", c.IP()),
			slog.Int("status", status),
			slog.Int64("latency", latency.Milliseconds()),
			slog.String("latencyHuman", latency.String()),
		}
		if config.WithRequestQuery {
			attrs = append(attrs, slog.String("query", string(c.Request().URI().QueryString())))
		}

		msg := http.StatusText(status)
		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(c.UserContext(), msg, attrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(c.UserContext(), msg, attrs...)
		case !config.Disable:
			logger.InfoContext(c.UserContext(), msg, attrs...)
		}
		return errors.WithStack(err)
	}
}
