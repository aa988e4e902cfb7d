package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
)

type CreateOfferParams struct {
	Content entity.OfferContent

	OrderbookAddress string
	ListingOutputs   []omb.ListingOutput
	FeeRate          int64
}

type CreateOfferResult struct {
	Cid    string `json:"cid"`
	Psbt   string `json:"psbt"`
	Fee    int64  `json:"fee"`
	Change int64  `json:"change"`
}

// CreateOffer checks the taker's encoded transaction against the
// origin order, publishes the offer document, and builds the unsigned
// transaction that tags it on the ledger, funded by the taker.
func (u *Usecase) CreateOffer(ctx context.Context, params CreateOfferParams) (*CreateOfferResult, error) {
	origin, err := omb.NewContentResolver(u.storage).Order(ctx, params.Content.Origin)
	if err != nil {
		return nil, errors.Wrapf(err, "origin order %q", params.Content.Origin)
	}
	if err := u.validator.VerifyOfferCreation(params.Content, origin); err != nil {
		return nil, errors.WithStack(err)
	}

	cid, err := u.storage.Publish(ctx, params.Content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to publish offer content")
	}

	built, err := u.buildListing(ctx, params.Content.Taker, omb.Tag{Kind: omb.TagOffer, Cid: cid}, params.OrderbookAddress, params.ListingOutputs, params.FeeRate)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	psbtB64, err := built.Packet.B64Encode()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode listing PSBT")
	}
	return &CreateOfferResult{
		Cid:    cid,
		Psbt:   psbtB64,
		Fee:    built.Fee,
		Change: built.Change,
	}, nil
}
