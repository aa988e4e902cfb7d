package omb

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/core/datasources"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
	"golang.org/x/sync/errgroup"
)

// contentFetchWidth bounds the concurrent content fetches during the
// discovery pass.
const contentFetchWidth = 10

// DiscoveryFailure records a tag whose referenced content could not be
// fetched or validated. The item is skipped; the run continues.
type DiscoveryFailure struct {
	Cid    string  `json:"cid"`
	Kind   TagKind `json:"kind"`
	TxHash string  `json:"txid"`
	Reason string  `json:"reason"`
}

// Resolver rebuilds the orderbook projection for one address on one
// network. A Resolver owns its ledger view and content caches and must
// not be reused across runs.
type Resolver struct {
	address string
	network common.Network
	ledger  *LedgerView
	content *ContentResolver

	orders    map[string]*entity.Order
	offers    map[string]*entity.Offer
	orderCids []string
	offerCids []string

	failures []DiscoveryFailure
}

func NewResolver(address string, network common.Network, lookup datasources.LookupService, storage ContentStorage) *Resolver {
	return &Resolver{
		address: address,
		network: network,
		ledger:  NewLedgerView(lookup),
		content: NewContentResolver(storage),
		orders:  make(map[string]*entity.Order),
		offers:  make(map[string]*entity.Offer),
	}
}

// taggedRef is one tag discovered in the address's history, bound to
// the transaction carrying it.
type taggedRef struct {
	tag Tag
	tx  *types.Transaction
}

// discovered is the outcome of fetching one tag's content: exactly one
// of order, offer, or failure is set. Offers also carry their origin
// order's content.
type discovered struct {
	ref     taggedRef
	order   *entity.OrderContent
	offer   *entity.OfferContent
	origin  *entity.OrderContent
	failure *DiscoveryFailure
}

// Resolve rebuilds the full orderbook aggregate. Discovery fans out
// content fetches with bounded width and joins before anything is
// linked or fulfilled; linking and fulfillment are strictly
// sequential. Only ledger transport failures abort the run.
func (r *Resolver) Resolve(ctx context.Context) (*entity.Orderbook, error) {
	book := entity.NewOrderbook(r.address, r.network)

	txs, err := r.ledger.TransactionsForAddress(ctx, r.address)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(txs) == 0 {
		book.Finalize(time.Now())
		return book, nil
	}

	// Address history order is not guaranteed by the lookup service.
	// Fix it here so reruns over the same snapshot produce identical
	// output.
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].BlockHeight != txs[j].BlockHeight {
			return txs[i].BlockHeight < txs[j].BlockHeight
		}
		return txs[i].TxHash.String() < txs[j].TxHash.String()
	})

	var refs []taggedRef
	for _, tx := range txs {
		for _, tag := range ExtractTags(tx) {
			refs = append(refs, taggedRef{tag: tag, tx: tx})
		}
	}

	results := make([]discovered, len(refs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(contentFetchWidth)
	for i, ref := range refs {
		i, ref := i, ref
		group.Go(func() error {
			results[i] = r.discover(groupCtx, ref)
			return nil
		})
	}
	// Join barrier: content failures are recorded per item, never
	// returned, so the wait cannot fail.
	_ = group.Wait()

	if err := r.admit(ctx, results); err != nil {
		return nil, errors.WithStack(err)
	}

	r.linkOffers()

	for _, cid := range r.orderCids {
		r.fulfillOrder(r.orders[cid])
	}

	for _, cid := range r.orderCids {
		book.AddOrder(r.orders[cid])
	}
	for _, cid := range r.offerCids {
		book.AddOffer(r.offers[cid])
	}
	book.Finalize(time.Now())
	return book, nil
}

// Failures returns the discovery-level rejections recorded during the
// last run.
func (r *Resolver) Failures() []DiscoveryFailure {
	return r.failures
}

// discover fetches and validates the content behind one tag. Fetch and
// validation failures become failure records, not errors.
func (r *Resolver) discover(ctx context.Context, ref taggedRef) discovered {
	result := discovered{ref: ref}
	switch ref.tag.Kind {
	case TagOrder:
		content, err := r.content.Order(ctx, ref.tag.Cid)
		if err != nil {
			result.failure = r.failRef(ref, err)
			return result
		}
		result.order = &content
	case TagOffer:
		content, err := r.content.Offer(ctx, ref.tag.Cid)
		if err != nil {
			result.failure = r.failRef(ref, err)
			return result
		}
		origin, err := r.content.Order(ctx, content.Origin)
		if err != nil {
			result.failure = r.failRef(ref, errors.Wrapf(err, "origin order %q", content.Origin))
			return result
		}
		result.offer = &content
		result.origin = &origin
	}
	return result
}

func (r *Resolver) failRef(ref taggedRef, err error) *DiscoveryFailure {
	return &DiscoveryFailure{
		Cid:    ref.tag.Cid,
		Kind:   ref.tag.Kind,
		TxHash: ref.tx.TxHash.String(),
		Reason: err.Error(),
	}
}

// admit promotes discovery results to Order/Offer projections in
// deterministic discovery order and runs the creation-time checks. A
// content id already admitted in this run keeps its first binding.
func (r *Resolver) admit(ctx context.Context, results []discovered) error {
	for _, result := range results {
		switch {
		case result.failure != nil:
			r.failures = append(r.failures, *result.failure)
			logger.WarnContext(ctx, "skipped unresolvable content",
				slogx.String("cid", result.failure.Cid),
				slogx.String("kind", string(result.failure.Kind)),
				slogx.String("txid", result.failure.TxHash),
				slogx.String("reason", result.failure.Reason),
			)
		case result.order != nil:
			if _, ok := r.orders[result.ref.tag.Cid]; ok {
				continue
			}
			order := entity.NewOrder(result.ref.tag.Cid, *result.order, result.ref.tx)
			if err := r.resolveOrder(ctx, order); err != nil {
				return errors.WithStack(err)
			}
			r.orders[order.Cid] = order
			r.orderCids = append(r.orderCids, order.Cid)
		case result.offer != nil:
			if _, ok := r.offers[result.ref.tag.Cid]; ok {
				continue
			}
			offer := entity.NewOffer(result.ref.tag.Cid, *result.offer, *result.origin, result.ref.tx)
			if err := r.resolveOffer(ctx, offer); err != nil {
				return errors.WithStack(err)
			}
			r.offers[offer.Cid] = offer
			r.offerCids = append(r.offerCids, offer.Cid)
		}
	}
	return nil
}

// linkOffers attaches each offer to the order listing the same
// location.
func (r *Resolver) linkOffers() {
	for _, offerCid := range r.offerCids {
		offer := r.offers[offerCid]
		for _, orderCid := range r.orderCids {
			order := r.orders[orderCid]
			if order.Content.Location == offer.Order.Location {
				order.LinkOffer(offer.Cid)
				break
			}
		}
	}
}
