package entity

import (
	"time"

	"github.com/ordmarket/orderbook-engine/common"
	"github.com/shopspring/decimal"
)

// Bucket partitions orders and offers sharing a lifecycle state.
type Bucket struct {
	Orders []*Order `json:"orders"`
	Offers []*Offer `json:"offers"`
}

// BucketAnalytics summarizes one bucket: entry counts and listing
// price totals in both satoshi and bitcoin denominations.
type BucketAnalytics struct {
	OrderCount int             `json:"orderCount"`
	OfferCount int             `json:"offerCount"`
	TotalSats  int64           `json:"totalSats"`
	TotalBTC   decimal.Decimal `json:"totalBtc"`
}

type Analytics struct {
	Pending   BucketAnalytics `json:"pending"`
	Rejected  BucketAnalytics `json:"rejected"`
	Completed BucketAnalytics `json:"completed"`
}

// Orderbook is the aggregate view for one address on one network,
// rebuilt from scratch on every resolution run.
type Orderbook struct {
	Address string         `json:"address"`
	Network common.Network `json:"network"`

	Pending   Bucket `json:"pending"`
	Rejected  Bucket `json:"rejected"`
	Completed Bucket `json:"completed"`

	Analytics Analytics `json:"analytics"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewOrderbook(address string, network common.Network) *Orderbook {
	return &Orderbook{
		Address: address,
		Network: network,
		Pending: Bucket{
			Orders: []*Order{},
			Offers: []*Offer{},
		},
		Rejected: Bucket{
			Orders: []*Order{},
			Offers: []*Offer{},
		},
		Completed: Bucket{
			Orders: []*Order{},
			Offers: []*Offer{},
		},
	}
}

// AddOrder places an order into the bucket matching its status.
// Pending orders sharing a location are deduplicated: a second order
// tagged against an already-occupied location merges its listing value
// into the first instead of creating a second pending entry.
func (b *Orderbook) AddOrder(order *Order) {
	switch order.Status {
	case StatusPending:
		for _, existing := range b.Pending.Orders {
			if existing.Content.Location == order.Content.Location {
				existing.Value += order.Value
				return
			}
		}
		b.Pending.Orders = append(b.Pending.Orders, order)
	case StatusRejected:
		b.Rejected.Orders = append(b.Rejected.Orders, order)
	case StatusCompleted:
		b.Completed.Orders = append(b.Completed.Orders, order)
	}
}

func (b *Orderbook) AddOffer(offer *Offer) {
	switch offer.Status {
	case StatusPending:
		b.Pending.Offers = append(b.Pending.Offers, offer)
	case StatusRejected:
		b.Rejected.Offers = append(b.Rejected.Offers, offer)
	case StatusCompleted:
		b.Completed.Offers = append(b.Completed.Offers, offer)
	}
}

// Finalize computes analytics from the filled buckets and stamps the
// aggregate. Must be called exactly once, after all orders and offers
// are placed.
func (b *Orderbook) Finalize(now time.Time) {
	b.Analytics = Analytics{
		Pending:   summarizeBucket(b.Pending),
		Rejected:  summarizeBucket(b.Rejected),
		Completed: summarizeBucket(b.Completed),
	}
	b.UpdatedAt = now.UTC()
}

func summarizeBucket(bucket Bucket) BucketAnalytics {
	var totalSats int64
	for _, order := range bucket.Orders {
		totalSats += order.Content.Satoshis
	}
	return BucketAnalytics{
		OrderCount: len(bucket.Orders),
		OfferCount: len(bucket.Offers),
		TotalSats:  totalSats,
		TotalBTC:   decimal.New(totalSats, -8),
	}
}
