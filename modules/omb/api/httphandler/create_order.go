package httphandler

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
	"github.com/ordmarket/orderbook-engine/modules/omb/usecase"
)

type createOrderRequest struct {
	Content          json.RawMessage     `json:"content"`
	OrderbookAddress string              `json:"orderbookAddress"`
	ListingOutputs   []omb.ListingOutput `json:"listingOutputs"`
	FeeRate          int64               `json:"feeRate"`
}

func (r createOrderRequest) Validate(h *HttpHandler) error {
	var errList []error
	if len(r.Content) == 0 {
		errList = append(errList, errors.New("'content' is required"))
	}
	if len(r.ListingOutputs) == 0 && !h.isValidAddress(r.OrderbookAddress) {
		errList = append(errList, errors.Errorf("orderbookAddress '%s' is not a valid address on network %s", r.OrderbookAddress, h.network))
	}
	for _, listing := range r.ListingOutputs {
		if !h.isValidAddress(listing.Address) {
			errList = append(errList, errors.Errorf("listing output address '%s' is not a valid address on network %s", listing.Address, h.network))
		}
	}
	if r.FeeRate < 0 {
		errList = append(errList, errors.New("'feeRate' must not be negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type createOrderResponse = HttpResponse[usecase.CreateOrderResult]

// CreateOrder validates and publishes an order document and returns
// the unsigned listing transaction for the maker to sign.
func (h *HttpHandler) CreateOrder(ctx *fiber.Ctx) (err error) {
	var req createOrderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(h); err != nil {
		return errors.WithStack(err)
	}

	content, err := entity.ParseOrderContent(req.Content)
	if err != nil {
		return errs.WithPublicMessage(err, "malformed order content")
	}

	result, err := h.usecase.CreateOrder(ctx.UserContext(), usecase.CreateOrderParams{
		Content:          content,
		OrderbookAddress: req.OrderbookAddress,
		ListingOutputs:   req.ListingOutputs,
		FeeRate:          req.FeeRate,
	})
	if err != nil {
		if errors.Is(err, errs.InvalidSignature) {
			return errs.NewPublicError("order signature verification failed")
		}
		if errors.Is(err, errs.InsufficientFunds) {
			return errs.NewPublicError("maker address cannot fund the listing transaction")
		}
		if errors.Is(err, errs.NoSpendableUTXO) {
			return errs.NewPublicError("maker address has no spendable outputs")
		}
		return errors.Wrap(err, "error during CreateOrder")
	}

	return errors.WithStack(ctx.JSON(createOrderResponse{
		Result: result,
	}))
}
