package entity

import (
	"github.com/ordmarket/orderbook-engine/core/types"
)

// Status is the lifecycle state of an order or offer projection.
// Terminal states are final within a resolution run; a later run
// rebuilds fresh projections from the same ledger facts.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Order is the mutable projection of an order document bound to the
// transaction that tagged it. Owned by the resolver for one
// address/network pair.
type Order struct {
	Cid     string       `json:"cid"`
	Content OrderContent `json:"content"`
	Status  Status       `json:"status"`

	// BoundTx is the transaction whose tag output referenced this
	// order's content id.
	BoundTx *types.Transaction `json:"-"`
	TxHash  string             `json:"txid"`

	// Value is the sum of the bound transaction's outputs paid to the
	// orderbook address: the listing fee.
	Value int64 `json:"value"`

	// ResolvedOutput is the output at the order's location at
	// resolution time. Nil when the location could not be resolved.
	ResolvedOutput *types.TxOut `json:"-"`

	Ordinals     []types.Ordinal     `json:"ordinals"`
	Inscriptions []types.Inscription `json:"inscriptions"`

	// Offers lists the content ids of linked offers.
	Offers []string `json:"offers"`

	Reason *Rejection `json:"reason,omitempty"`
}

func NewOrder(cid string, content OrderContent, boundTx *types.Transaction) *Order {
	return &Order{
		Cid:     cid,
		Content: content,
		Status:  StatusPending,
		BoundTx: boundTx,
		TxHash:  boundTx.TxHash.String(),
		Offers:  []string{},
	}
}

// Reject transitions the order to the rejected state. The first
// rejection wins; later calls are ignored.
func (o *Order) Reject(reason *Rejection) {
	if o.Status != StatusPending {
		return
	}
	o.Status = StatusRejected
	o.Reason = reason
}

// Complete transitions the order to the completed state.
func (o *Order) Complete() {
	if o.Status != StatusPending {
		return
	}
	o.Status = StatusCompleted
}

// LinkOffer appends an offer's content id to the order.
func (o *Order) LinkOffer(offerCid string) {
	o.Offers = append(o.Offers, offerCid)
}
