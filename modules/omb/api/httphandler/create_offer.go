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

type createOfferRequest struct {
	Content          json.RawMessage     `json:"content"`
	OrderbookAddress string              `json:"orderbookAddress"`
	ListingOutputs   []omb.ListingOutput `json:"listingOutputs"`
	FeeRate          int64               `json:"feeRate"`
}

func (r createOfferRequest) Validate(h *HttpHandler) error {
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

type createOfferResponse = HttpResponse[usecase.CreateOfferResult]

// CreateOffer validates and publishes an offer document and returns
// the unsigned tagging transaction for the taker to sign.
func (h *HttpHandler) CreateOffer(ctx *fiber.Ctx) (err error) {
	var req createOfferRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(h); err != nil {
		return errors.WithStack(err)
	}

	content, err := entity.ParseOfferContent(req.Content)
	if err != nil {
		return errs.WithPublicMessage(err, "malformed offer content")
	}

	result, err := h.usecase.CreateOffer(ctx.UserContext(), usecase.CreateOfferParams{
		Content:          content,
		OrderbookAddress: req.OrderbookAddress,
		ListingOutputs:   req.ListingOutputs,
		FeeRate:          req.FeeRate,
	})
	if err != nil {
		if errors.Is(err, errs.ContentMalformed) {
			return errs.NewPublicError("origin order content is missing or malformed")
		}
		if errors.Is(err, errs.InvalidSignature) {
			return errs.NewPublicError("offer transaction verification failed")
		}
		if errors.Is(err, errs.InsufficientFunds) {
			return errs.NewPublicError("taker address cannot fund the listing transaction")
		}
		if errors.Is(err, errs.NoSpendableUTXO) {
			return errs.NewPublicError("taker address has no spendable outputs")
		}
		return errors.Wrap(err, "error during CreateOffer")
	}

	return errors.WithStack(ctx.JSON(createOfferResponse{
		Result: result,
	}))
}
