package omb

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/core/datasources"
	"github.com/ordmarket/orderbook-engine/core/types"
)

// LedgerView is a memoizing read-only accessor over the lookup
// service, scoped to a single resolution run. It guarantees that
// repeated lookups within a run observe one consistent snapshot.
// Never share a LedgerView across runs.
type LedgerView struct {
	lookup datasources.LookupService

	txs       map[chainhash.Hash]*types.Transaction
	addresses map[string][]*types.Transaction
	unspents  map[string][]*types.UnspentOutput
}

func NewLedgerView(lookup datasources.LookupService) *LedgerView {
	return &LedgerView{
		lookup:    lookup,
		txs:       make(map[chainhash.Hash]*types.Transaction),
		addresses: make(map[string][]*types.Transaction),
		unspents:  make(map[string][]*types.UnspentOutput),
	}
}

// Transaction returns the confirmed transaction with the given id, or
// nil when unknown. Not-found results are memoized like any other.
func (v *LedgerView) Transaction(ctx context.Context, txHash chainhash.Hash) (*types.Transaction, error) {
	if tx, ok := v.txs[txHash]; ok {
		return tx, nil
	}
	tx, err := v.lookup.GetTransaction(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "ledger lookup failed")
	}
	v.txs[txHash] = tx
	return tx, nil
}

// TransactionsForAddress returns every confirmed transaction touching
// the given address. An unknown address yields an empty slice.
func (v *LedgerView) TransactionsForAddress(ctx context.Context, address string) ([]*types.Transaction, error) {
	if txs, ok := v.addresses[address]; ok {
		return txs, nil
	}
	txs, err := v.lookup.GetTransactionsByAddress(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "ledger lookup failed")
	}
	v.addresses[address] = txs
	for _, tx := range txs {
		v.txs[tx.TxHash] = tx
	}
	return txs, nil
}

// UnspentOutputs returns the currently unspent outputs owned by the
// given address.
func (v *LedgerView) UnspentOutputs(ctx context.Context, address string) ([]*types.UnspentOutput, error) {
	if utxos, ok := v.unspents[address]; ok {
		return utxos, nil
	}
	utxos, err := v.lookup.GetUnspentOutputs(ctx, address)
	if err != nil {
		return nil, errors.Wrap(err, "ledger lookup failed")
	}
	v.unspents[address] = utxos
	return utxos, nil
}

// Output dereferences a location to its output. Returns nil when the
// transaction is unknown or the index is out of range.
func (v *LedgerView) Output(ctx context.Context, location types.Location) (*types.TxOut, error) {
	tx, err := v.Transaction(ctx, location.TxHash)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if tx == nil {
		return nil, nil
	}
	return tx.Output(location.Index), nil
}
