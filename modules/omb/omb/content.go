package omb

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

// ContentStorage fetches and publishes content-addressed documents.
// Fetch must return (nil, nil) for unknown content ids and an error
// only on transport failure.
type ContentStorage interface {
	Fetch(ctx context.Context, cid string) ([]byte, error)
	Publish(ctx context.Context, document any) (string, error)
}

// ContentResolver fetches order and offer documents by content id and
// validates them against their required-field schemas before any field
// access. Fetched documents are memoized per resolution run; the cache
// is safe for the resolver's bounded fetch fan-out.
type ContentResolver struct {
	storage ContentStorage

	mu     sync.Mutex
	orders map[string]entity.OrderContent
	offers map[string]entity.OfferContent
}

func NewContentResolver(storage ContentStorage) *ContentResolver {
	return &ContentResolver{
		storage: storage,
		orders:  make(map[string]entity.OrderContent),
		offers:  make(map[string]entity.OfferContent),
	}
}

// Order fetches and validates the order document at the given content
// id. Missing and malformed content both surface as ContentMalformed;
// neither is retryable within a run.
func (r *ContentResolver) Order(ctx context.Context, cid string) (entity.OrderContent, error) {
	r.mu.Lock()
	content, ok := r.orders[cid]
	r.mu.Unlock()
	if ok {
		return content, nil
	}
	raw, err := r.storage.Fetch(ctx, cid)
	if err != nil {
		return entity.OrderContent{}, errors.Wrapf(err, "failed to fetch order content %q", cid)
	}
	if raw == nil {
		return entity.OrderContent{}, errors.Wrapf(errs.ContentMalformed, "order content %q not found", cid)
	}
	content, err = entity.ParseOrderContent(raw)
	if err != nil {
		return entity.OrderContent{}, errors.WithStack(err)
	}
	r.mu.Lock()
	r.orders[cid] = content
	r.mu.Unlock()
	return content, nil
}

// Offer fetches and validates the offer document at the given content
// id.
func (r *ContentResolver) Offer(ctx context.Context, cid string) (entity.OfferContent, error) {
	r.mu.Lock()
	content, ok := r.offers[cid]
	r.mu.Unlock()
	if ok {
		return content, nil
	}
	raw, err := r.storage.Fetch(ctx, cid)
	if err != nil {
		return entity.OfferContent{}, errors.Wrapf(err, "failed to fetch offer content %q", cid)
	}
	if raw == nil {
		return entity.OfferContent{}, errors.Wrapf(errs.ContentMalformed, "offer content %q not found", cid)
	}
	content, err = entity.ParseOfferContent(raw)
	if err != nil {
		return entity.OfferContent{}, errors.WithStack(err)
	}
	r.mu.Lock()
	r.offers[cid] = content
	r.mu.Unlock()
	return content, nil
}
