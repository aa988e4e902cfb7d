package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
)

type CreateOrderParams struct {
	Content entity.OrderContent

	// OrderbookAddress receives the listing fee when ListingOutputs
	// is empty.
	OrderbookAddress string
	ListingOutputs   []omb.ListingOutput
	FeeRate          int64
}

type CreateOrderResult struct {
	Cid    string `json:"cid"`
	Psbt   string `json:"psbt"`
	Fee    int64  `json:"fee"`
	Change int64  `json:"change"`
}

// CreateOrder verifies the maker's authorization proof, publishes the
// order document, and builds the unsigned listing transaction that
// tags it on the ledger. Nothing is broadcast; the caller signs and
// broadcasts the returned PSBT.
func (u *Usecase) CreateOrder(ctx context.Context, params CreateOrderParams) (*CreateOrderResult, error) {
	if err := u.validator.VerifyOrder(params.Content); err != nil {
		return nil, errors.WithStack(err)
	}

	cid, err := u.storage.Publish(ctx, params.Content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to publish order content")
	}

	built, err := u.buildListing(ctx, params.Content.Maker, omb.Tag{Kind: omb.TagOrder, Cid: cid}, params.OrderbookAddress, params.ListingOutputs, params.FeeRate)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	psbtB64, err := built.Packet.B64Encode()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode listing PSBT")
	}
	return &CreateOrderResult{
		Cid:    cid,
		Psbt:   psbtB64,
		Fee:    built.Fee,
		Change: built.Change,
	}, nil
}

// buildListing assembles the unsigned tagging transaction funded by
// the acting address.
func (u *Usecase) buildListing(ctx context.Context, actingAddress string, tag omb.Tag, orderbookAddress string, listings []omb.ListingOutput, feeRate int64) (*omb.BuiltTransaction, error) {
	if len(listings) == 0 {
		listings = []omb.ListingOutput{{Address: orderbookAddress, Value: omb.DefaultListingValue}}
	}
	if feeRate <= 0 {
		feeRate = u.feeRate
	}
	builder := omb.NewTransactionBuilder(u.network.ChainParams(), omb.NewLedgerView(u.lookup))
	built, err := builder.Build(ctx, omb.BuildParams{
		Address:        actingAddress,
		Tag:            tag,
		ListingOutputs: listings,
		FeeRate:        feeRate,
		NetworkFee:     u.networkFee,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return built, nil
}
