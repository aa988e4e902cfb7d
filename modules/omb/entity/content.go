package entity

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/core/types"
)

// Side is the direction of an order.
type Side string

const (
	SideSell Side = "sell"
	SideBuy  Side = "buy"
)

func (s Side) IsValid() bool {
	return s == SideSell || s == SideBuy
}

// OrderContent is the off-chain order document, immutable once
// published to content-addressed storage. All exported accessors may
// assume the document passed ParseOrderContent; never construct one
// from unvalidated bytes.
type OrderContent struct {
	Timestamp  int64          `json:"ts"`
	Side       Side           `json:"type"`
	Location   types.Location `json:"location"`
	Maker      string         `json:"maker"`
	Satoshis   int64          `json:"satoshis"`
	Expiry     *int64         `json:"expiry,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	Orderbooks []string       `json:"orderbooks,omitempty"`
	Signature  string         `json:"signature"`
}

// SigningPayload is the canonical byte-encoding of the order fields
// covered by a message-signature proof. Field order is fixed; changing
// it invalidates every existing signature.
func (c OrderContent) SigningPayload() string {
	return fmt.Sprintf("%d|%s|%s|%s|%d", c.Timestamp, c.Side, c.Location.String(), c.Maker, c.Satoshis)
}

// ParseOrderContent decodes and structurally validates an order
// document. Malformed content is a terminal error, never retryable.
func ParseOrderContent(raw []byte) (OrderContent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return OrderContent{}, errors.Wrap(errs.ContentMalformed, "order content is not a JSON object")
	}
	for _, required := range []string{"ts", "type", "location", "maker", "satoshis", "signature"} {
		if _, ok := fields[required]; !ok {
			return OrderContent{}, errors.Wrapf(errs.ContentMalformed, "order content is missing required field %q", required)
		}
	}

	var content OrderContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return OrderContent{}, errors.Wrapf(errs.ContentMalformed, "invalid order content: %s", err)
	}
	if !content.Side.IsValid() {
		return OrderContent{}, errors.Wrapf(errs.ContentMalformed, "invalid order side %q", content.Side)
	}
	if content.Satoshis <= 0 {
		return OrderContent{}, errors.Wrap(errs.ContentMalformed, "order price must be positive")
	}
	return content, nil
}

// OfferContent is the off-chain offer document, immutable once
// published. Transaction holds the taker's encoded transaction (PSBT,
// hex or base64).
type OfferContent struct {
	Timestamp   int64   `json:"ts"`
	Origin      string  `json:"origin"`
	Transaction string  `json:"offer"`
	Taker       string  `json:"taker"`
	Signature   *string `json:"signature,omitempty"`
}

// ParseOfferContent decodes and structurally validates an offer
// document.
func ParseOfferContent(raw []byte) (OfferContent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return OfferContent{}, errors.Wrap(errs.ContentMalformed, "offer content is not a JSON object")
	}
	for _, required := range []string{"ts", "origin", "offer", "taker"} {
		if _, ok := fields[required]; !ok {
			return OfferContent{}, errors.Wrapf(errs.ContentMalformed, "offer content is missing required field %q", required)
		}
	}

	var content OfferContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return OfferContent{}, errors.Wrapf(errs.ContentMalformed, "invalid offer content: %s", err)
	}
	if content.Origin == "" {
		return OfferContent{}, errors.Wrap(errs.ContentMalformed, "offer origin must not be empty")
	}
	if content.Transaction == "" {
		return OfferContent{}, errors.Wrap(errs.ContentMalformed, "offer transaction must not be empty")
	}
	return content, nil
}
