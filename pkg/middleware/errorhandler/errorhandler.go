package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
)

// New sets up the error handler middleware. Public errors surface
// verbatim; everything else is logged and masked.
func New() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		if e := new(errs.PublicError); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": e.Message(),
			}))
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return errors.WithStack(ctx.Status(e.Code).JSON(fiber.Map{
				"error": e.Error(),
			}))
		}
		logger.ErrorContext(ctx.UserContext(), "Something went wrong, api error",
			slogx.String("event", "api_error"),
			slogx.Error(err),
		)
		return errors.WithStack(ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		}))
	}
}
