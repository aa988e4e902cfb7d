package omb

import (
	"strings"

	"github.com/ordmarket/orderbook-engine/core/types"
)

// TagKind is the marketplace intent kind carried by a protocol tag.
type TagKind string

const (
	TagOrder TagKind = "order"
	TagOffer TagKind = "offer"
)

// Tag is a protocol marker extracted from a transaction output's
// decoded payload, matching the literal grammar "omb=kind:contentId".
type Tag struct {
	Kind TagKind
	Cid  string
}

// Payload renders the tag in its on-ledger form.
func (t Tag) Payload() string {
	return ProtocolID + "=" + string(t.Kind) + ":" + t.Cid
}

// ParseTag extracts a protocol tag from an output payload. A
// non-matching payload yields no tag, never an error.
func ParseTag(payload string) (Tag, bool) {
	rest, ok := strings.CutPrefix(payload, ProtocolID+"=")
	if !ok {
		return Tag{}, false
	}
	kind, cid, ok := strings.Cut(rest, ":")
	if !ok || cid == "" {
		return Tag{}, false
	}
	switch TagKind(kind) {
	case TagOrder, TagOffer:
		return Tag{Kind: TagKind(kind), Cid: cid}, true
	}
	return Tag{}, false
}

// ExtractTags scans a transaction's outputs left-to-right and returns
// at most one tag per kind: the first match wins, later duplicates in
// the same transaction are ignored.
func ExtractTags(tx *types.Transaction) []Tag {
	seen := make(map[TagKind]struct{}, 2)
	tags := make([]Tag, 0, 1)
	for _, out := range tx.TxOut {
		if out.Payload == "" {
			continue
		}
		tag, ok := ParseTag(out.Payload)
		if !ok {
			continue
		}
		if _, dup := seen[tag.Kind]; dup {
			continue
		}
		seen[tag.Kind] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
