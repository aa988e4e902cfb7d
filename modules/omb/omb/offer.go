package omb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

// resolveOffer runs the offer checks in their fixed order. The offer's
// origin order content is already attached; only transport failures
// return an error.
func (r *Resolver) resolveOffer(ctx context.Context, offer *entity.Offer) error {
	// listing fee, same rule as orders
	offer.Value = listingValue(offer.BoundTx, r.address)
	if offer.Value <= 0 {
		offer.Reject(entity.NewRejection(entity.RejectInsufficientFunds, "bound transaction pays no listing fee to the orderbook address"))
		return nil
	}

	// owner validity: the origin order's location must belong to the
	// order's maker (still listed) or the offer's taker (already
	// acted on)
	tx, err := r.ledger.Transaction(ctx, offer.Order.Location.TxHash)
	if err != nil {
		return errors.WithStack(err)
	}
	if tx == nil {
		offer.Reject(entity.NewRejection(entity.RejectInvalidOwnerLocation, "origin order location does not resolve to a confirmed transaction"))
		return nil
	}
	out := tx.Output(offer.Order.Location.Index)
	if out == nil {
		offer.Reject(entity.NewRejection(entity.RejectVoutOutOfRange, "origin order location output index is out of range"))
		return nil
	}
	if out.Address != offer.Order.Maker && out.Address != offer.Content.Taker {
		offer.Reject(entity.NewRejection(entity.RejectInvalidOfferOwner, "origin order location is owned by neither maker nor taker").
			WithData(map[string]string{"owner": out.Address, "maker": offer.Order.Maker, "taker": offer.Content.Taker}))
		return nil
	}
	offer.ResolvedOutput = out

	// signature presence on the taker's encoded transaction. This is
	// a weak structural check, not ledger-rule validation.
	decoded, err := DecodeEncodedTransaction(offer.Content.Transaction)
	if err != nil {
		offer.Reject(entity.NewRejection(entity.RejectMalformedTransaction, "offer transaction cannot be decoded"))
		return nil
	}
	if !decoded.HasSignedInput() {
		offer.Reject(entity.NewRejection(entity.RejectSignatureMissing, "offer transaction carries no unlocking script on any input"))
		return nil
	}

	return r.fulfillOffer(ctx, offer, out)
}

// fulfillOffer decides whether the offer has been acted on. While the
// origin location still shows its assets the offer simply waits; once
// they are gone the taker's own history must contain the spending
// transaction, which becomes the fulfillment proof.
func (r *Resolver) fulfillOffer(ctx context.Context, offer *entity.Offer, out *types.TxOut) error {
	if !out.Spent && out.HasAssets() {
		// not yet acted on
		return nil
	}

	takerTxs, err := r.ledger.TransactionsForAddress(ctx, offer.Content.Taker)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, tx := range takerTxs {
		if tx.SpendsOutpoint(offer.Order.Location) {
			offer.Complete(tx.TxHash.String())
			return nil
		}
	}
	offer.Reject(entity.NewRejection(entity.RejectOrdinalsMoved, "origin order assets moved outside the taker's history"))
	return nil
}
