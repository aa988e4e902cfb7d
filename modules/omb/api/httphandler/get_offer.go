package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

type getOfferRequest struct {
	Cid string `params:"cid"`
}

func (r getOfferRequest) Validate() error {
	var errList []error
	if r.Cid == "" {
		errList = append(errList, errors.New("'cid' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getOfferResponse = HttpResponse[entity.Offer]

func (h *HttpHandler) GetOffer(ctx *fiber.Ctx) (err error) {
	var req getOfferRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	offer, err := h.usecase.GetOffer(ctx.UserContext(), req.Cid)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("offer not found")
		}
		return errors.Wrap(err, "error during GetOffer")
	}

	return errors.WithStack(ctx.JSON(getOfferResponse{
		Result: offer,
	}))
}
