package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
)

type getOrderbookRequest struct {
	Address string `params:"address"`
}

func (r getOrderbookRequest) Validate(h *HttpHandler) error {
	var errList []error
	if !h.isValidAddress(r.Address) {
		errList = append(errList, errors.Errorf("address '%s' is not a valid address on network %s", r.Address, h.network))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type getOrderbookResponse = HttpResponse[entity.Orderbook]

// GetOrderbook serves the latest persisted snapshot without touching
// the ledger.
func (h *HttpHandler) GetOrderbook(ctx *fiber.Ctx) (err error) {
	var req getOrderbookRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(h); err != nil {
		return errors.WithStack(err)
	}

	orderbook, err := h.usecase.GetOrderbook(ctx.UserContext(), req.Address)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("orderbook not found, resolve it first")
		}
		return errors.Wrap(err, "error during GetOrderbook")
	}

	return errors.WithStack(ctx.JSON(getOrderbookResponse{
		Result: orderbook,
	}))
}

type resolveOrderbookResult struct {
	Orderbook *entity.Orderbook      `json:"orderbook"`
	Skipped   []omb.DiscoveryFailure `json:"skipped,omitempty"`
}

type resolveOrderbookResponse = HttpResponse[resolveOrderbookResult]

// ResolveOrderbook rebuilds the orderbook from the current ledger
// state and returns the fresh aggregate.
func (h *HttpHandler) ResolveOrderbook(ctx *fiber.Ctx) (err error) {
	var req getOrderbookRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(h); err != nil {
		return errors.WithStack(err)
	}

	orderbook, skipped, err := h.usecase.ResolveOrderbook(ctx.UserContext(), req.Address)
	if err != nil {
		return errors.Wrap(err, "error during ResolveOrderbook")
	}

	return errors.WithStack(ctx.JSON(resolveOrderbookResponse{
		Result: &resolveOrderbookResult{
			Orderbook: orderbook,
			Skipped:   skipped,
		},
	}))
}
