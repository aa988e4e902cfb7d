package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Transaction is a confirmed ledger transaction as returned by the
// lookup service. Immutable once confirmed.
type Transaction struct {
	TxHash      chainhash.Hash
	BlockHeight int64
	BlockTime   time.Time
	Version     int32
	LockTime    uint32
	TxIn        []*TxIn
	TxOut       []*TxOut
}

type TxIn struct {
	SignatureScript   []byte
	Witness           [][]byte
	Sequence          uint32
	PreviousOutIndex  uint32
	PreviousOutTxHash chainhash.Hash
}

// TxOut carries the decoded owner address and UTF-8 payload when the
// lookup service can resolve them, plus asset annotations supplied by
// the external annotation service.
type TxOut struct {
	PkScript []byte
	Value    int64

	// Address is the decoded owner address, empty when the script is
	// non-standard.
	Address string

	// Payload is the decoded UTF-8 data of an OP_RETURN output, empty
	// when absent or not valid UTF-8.
	Payload string

	// Spent reports whether this output has been consumed by a later
	// confirmed transaction.
	Spent bool

	Ordinals     []Ordinal
	Inscriptions []Inscription
}

// HasAssets reports whether any ordinal or inscription is currently
// attached to the output.
func (o *TxOut) HasAssets() bool {
	return len(o.Ordinals) > 0 || len(o.Inscriptions) > 0
}

// Output returns the output at the given index, or nil when the index
// is out of range.
func (t *Transaction) Output(index uint32) *TxOut {
	if int(index) >= len(t.TxOut) {
		return nil
	}
	return t.TxOut[index]
}

// SpendsOutpoint reports whether any input of the transaction consumes
// the given location's outpoint.
func (t *Transaction) SpendsOutpoint(loc Location) bool {
	for _, in := range t.TxIn {
		if in.PreviousOutTxHash.IsEqual(&loc.TxHash) && in.PreviousOutIndex == loc.Index {
			return true
		}
	}
	return false
}
