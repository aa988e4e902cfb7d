package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

type getOrderRequest struct {
	Cid string `params:"cid"`
}

func (r getOrderRequest) Validate() error {
	var errList []error
	if r.Cid == "" {
		errList = append(errList, errors.New("'cid' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getOrderResponse = HttpResponse[entity.Order]

func (h *HttpHandler) GetOrder(ctx *fiber.Ctx) (err error) {
	var req getOrderRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	order, err := h.usecase.GetOrder(ctx.UserContext(), req.Cid)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("order not found")
		}
		return errors.Wrap(err, "error during GetOrder")
	}

	return errors.WithStack(ctx.JSON(getOrderResponse{
		Result: order,
	}))
}
