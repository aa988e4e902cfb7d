package entity

import (
	"github.com/ordmarket/orderbook-engine/core/types"
)

// Offer is the mutable projection of an offer document, carrying a
// back-reference to its origin order's content.
type Offer struct {
	Cid     string       `json:"cid"`
	Content OfferContent `json:"content"`

	// Order is the content of the origin order this offer targets.
	Order OrderContent `json:"order"`

	Status Status `json:"status"`

	BoundTx *types.Transaction `json:"-"`
	TxHash  string             `json:"txid"`

	// Value is the listing fee paid by the offer's bound transaction
	// to the orderbook address.
	Value int64 `json:"value"`

	ResolvedOutput *types.TxOut `json:"-"`

	// ProofTxHash is set when a transaction spending the origin
	// order's outpoint is found in the taker's history.
	ProofTxHash string `json:"fulfillmentProofTxid,omitempty"`

	Reason *Rejection `json:"reason,omitempty"`
}

func NewOffer(cid string, content OfferContent, order OrderContent, boundTx *types.Transaction) *Offer {
	return &Offer{
		Cid:     cid,
		Content: content,
		Order:   order,
		Status:  StatusPending,
		BoundTx: boundTx,
		TxHash:  boundTx.TxHash.String(),
	}
}

// Reject transitions the offer to the rejected state. The first
// rejection wins; later calls are ignored.
func (o *Offer) Reject(reason *Rejection) {
	if o.Status != StatusPending {
		return
	}
	o.Status = StatusRejected
	o.Reason = reason
}

// Complete transitions the offer to the completed state with the given
// fulfillment proof.
func (o *Offer) Complete(proofTxHash string) {
	if o.Status != StatusPending {
		return
	}
	o.Status = StatusCompleted
	o.ProofTxHash = proofTxHash
}
