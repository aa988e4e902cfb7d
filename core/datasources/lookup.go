package datasources

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ordmarket/orderbook-engine/core/types"
)

// LookupService answers read-only questions about confirmed ledger
// data. Implementations must distinguish "not found" (nil result, nil
// error) from transport failure (non-nil error); callers treat the
// latter as fatal for a whole resolution run.
type LookupService interface {
	Name() string

	// GetTransaction returns the confirmed transaction with the given
	// id, or nil when unknown.
	GetTransaction(ctx context.Context, txHash chainhash.Hash) (*types.Transaction, error)

	// GetTransactionsByAddress returns every confirmed transaction that
	// pays to or spends from the given address, ordered by block height
	// then txid.
	GetTransactionsByAddress(ctx context.Context, address string) ([]*types.Transaction, error)

	// GetUnspentOutputs returns the currently unspent outputs owned by
	// the given address.
	GetUnspentOutputs(ctx context.Context, address string) ([]*types.UnspentOutput, error)
}
