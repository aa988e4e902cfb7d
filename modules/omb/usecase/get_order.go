package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

// GetOrder returns the latest persisted projection of an order.
func (u *Usecase) GetOrder(ctx context.Context, cid string) (*entity.Order, error) {
	order, err := u.ombDg.GetOrder(ctx, cid)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return order, nil
}

// GetOffer returns the latest persisted projection of an offer.
func (u *Usecase) GetOffer(ctx context.Context, cid string) (*entity.Offer, error) {
	offer, err := u.ombDg.GetOffer(ctx, cid)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return offer, nil
}
