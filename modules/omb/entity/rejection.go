package entity

import "encoding/json"

// RejectionCode identifies why an order or offer reached the rejected
// state. Rejections are terminal state transitions, not errors; a
// rejected entity only changes status on a fresh full rebuild.
type RejectionCode string

const (
	RejectInsufficientFunds       RejectionCode = "INSUFFICIENT_FUNDS"
	RejectInvalidOwnerLocation    RejectionCode = "INVALID_OWNER_LOCATION"
	RejectInvalidOrderMaker       RejectionCode = "INVALID_ORDER_MAKER"
	RejectOrdinalNotFound         RejectionCode = "ORDINAL_NOT_FOUND"
	RejectVoutOutOfRange          RejectionCode = "VOUT_OUT_OF_RANGE"
	RejectOrderResolvedExternally RejectionCode = "ORDER_RESOLVED_EXTERNALLY"
	RejectOrdinalsMoved           RejectionCode = "ORDINALS_MOVED"
	RejectInvalidOfferOwner       RejectionCode = "INVALID_OFFER_OWNER"
	RejectSignatureMissing        RejectionCode = "SIGNATURE_MISSING"
	RejectMalformedTransaction    RejectionCode = "MALFORMED_TRANSACTION"
)

// Rejection is the structured reason attached to a rejected entity and
// persisted with it.
type Rejection struct {
	Code    RejectionCode   `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func NewRejection(code RejectionCode, message string) *Rejection {
	return &Rejection{
		Code:    code,
		Message: message,
	}
}

func (r *Rejection) WithData(data any) *Rejection {
	encoded, err := json.Marshal(data)
	if err != nil {
		return r
	}
	r.Data = encoded
	return r
}
