package omb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

// resolveOrder runs the creation-time checks in their fixed order,
// short-circuiting into rejected on the first failure. Only transport
// failures return an error; every rule failure is a state transition.
func (r *Resolver) resolveOrder(ctx context.Context, order *entity.Order) error {
	// listing fee: the bound transaction must pay the orderbook
	// address for the listing
	order.Value = listingValue(order.BoundTx, r.address)
	if order.Value <= 0 {
		order.Reject(entity.NewRejection(entity.RejectInsufficientFunds, "bound transaction pays no listing fee to the orderbook address"))
		return nil
	}

	// owner validity: dereference the order's location
	tx, err := r.ledger.Transaction(ctx, order.Content.Location.TxHash)
	if err != nil {
		return errors.WithStack(err)
	}
	if tx == nil {
		order.Reject(entity.NewRejection(entity.RejectInvalidOwnerLocation, "order location does not resolve to a confirmed transaction"))
		return nil
	}
	out := tx.Output(order.Content.Location.Index)
	if out == nil {
		order.Reject(entity.NewRejection(entity.RejectVoutOutOfRange, "order location output index is out of range"))
		return nil
	}
	if order.Content.Side == entity.SideSell && out.Address != order.Content.Maker {
		order.Reject(entity.NewRejection(entity.RejectInvalidOrderMaker, "order location is not owned by the declared maker").
			WithData(map[string]string{"owner": out.Address, "maker": order.Content.Maker}))
		return nil
	}
	order.ResolvedOutput = out

	// asset presence at creation time. A spent output is not a
	// creation failure: whether the assets moved through the protocol
	// is decided by the fulfillment pass.
	if !out.Spent && !out.HasAssets() {
		order.Reject(entity.NewRejection(entity.RejectOrdinalNotFound, "no ordinal or inscription attached to the order location"))
		return nil
	}
	order.Ordinals = out.Ordinals
	order.Inscriptions = out.Inscriptions
	return nil
}

// fulfillOrder re-checks asset presence after all offers are resolved
// and linked. An order whose assets left its location completes only
// when a linked offer proves the movement; otherwise the asset moved
// outside the protocol.
func (r *Resolver) fulfillOrder(order *entity.Order) {
	if order.Status != entity.StatusPending {
		return
	}
	out := order.ResolvedOutput
	if out != nil && out.HasAssets() && !out.Spent {
		// still listed
		return
	}

	for _, offerCid := range order.Offers {
		offer, ok := r.offers[offerCid]
		if !ok {
			continue
		}
		if offer.Status == entity.StatusCompleted && offer.ProofTxHash != "" {
			order.Complete()
			return
		}
	}
	order.Reject(entity.NewRejection(entity.RejectOrderResolvedExternally, "assets left the order location without a proven offer"))
}

// listingValue sums the outputs of tx paid to the given address.
func listingValue(tx *types.Transaction, address string) int64 {
	var value int64
	for _, out := range tx.TxOut {
		if out.Address == address {
			value += out.Value
		}
	}
	return value
}
