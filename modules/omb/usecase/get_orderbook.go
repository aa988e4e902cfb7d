package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
)

// ResolveOrderbook rebuilds the orderbook for the given address from
// the current ledger snapshot, persists the result, and registers the
// address for scheduled re-resolution. Returns the fresh aggregate and
// any discovery-level failures.
func (u *Usecase) ResolveOrderbook(ctx context.Context, address string) (*entity.Orderbook, []omb.DiscoveryFailure, error) {
	resolver := omb.NewResolver(address, u.network, u.lookup, u.storage)
	orderbook, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to resolve orderbook for %s", address)
	}

	if err := u.ombDg.PutOrderbook(ctx, orderbook); err != nil {
		return nil, nil, errors.Wrap(err, "failed to persist orderbook snapshot")
	}
	if err := u.ombDg.RegisterAddress(ctx, address, u.network); err != nil {
		return nil, nil, errors.Wrap(err, "failed to register address for scheduled resolution")
	}
	return orderbook, resolver.Failures(), nil
}

// GetOrderbook returns the latest persisted snapshot without touching
// the ledger. Returns errs.NotFound when the address has never been
// resolved.
func (u *Usecase) GetOrderbook(ctx context.Context, address string) (*entity.Orderbook, error) {
	orderbook, err := u.ombDg.GetOrderbook(ctx, address, u.network)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return orderbook, nil
}
