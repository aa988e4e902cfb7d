package omb

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bookAddress  = "bc1qbook"
	makerAddress = "bc1qmaker"
	takerAddress = "bc1qtaker"
)

type fakeLookup struct {
	txs       map[chainhash.Hash]*types.Transaction
	addresses map[string][]*types.Transaction
	unspents  map[string][]*types.UnspentOutput

	txCalls      int
	addressCalls int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		txs:       make(map[chainhash.Hash]*types.Transaction),
		addresses: make(map[string][]*types.Transaction),
		unspents:  make(map[string][]*types.UnspentOutput),
	}
}

func (f *fakeLookup) Name() string {
	return "fake"
}

func (f *fakeLookup) GetTransaction(_ context.Context, txHash chainhash.Hash) (*types.Transaction, error) {
	f.txCalls++
	return f.txs[txHash], nil
}

func (f *fakeLookup) GetTransactionsByAddress(_ context.Context, address string) ([]*types.Transaction, error) {
	f.addressCalls++
	return f.addresses[address], nil
}

func (f *fakeLookup) GetUnspentOutputs(_ context.Context, address string) ([]*types.UnspentOutput, error) {
	return f.unspents[address], nil
}

func (f *fakeLookup) addTransaction(tx *types.Transaction, addresses ...string) {
	f.txs[tx.TxHash] = tx
	for _, address := range addresses {
		f.addresses[address] = append(f.addresses[address], tx)
	}
}

type fakeStorage struct {
	docs map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{docs: make(map[string][]byte)}
}

func (f *fakeStorage) Fetch(_ context.Context, cid string) ([]byte, error) {
	return f.docs[cid], nil
}

func (f *fakeStorage) Publish(_ context.Context, document any) (string, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return "", err
	}
	cid := fmt.Sprintf("bafy%d", len(f.docs))
	f.docs[cid] = raw
	return cid, nil
}

func (f *fakeStorage) putOrder(cid string, location types.Location, satoshis int64) {
	f.docs[cid] = []byte(fmt.Sprintf(
		`{"ts":1700000000,"type":"sell","location":"%s","maker":"%s","satoshis":%d,"signature":"aa"}`,
		location.String(), makerAddress, satoshis,
	))
}

func (f *fakeStorage) putOffer(cid, origin, encodedTx string) {
	f.docs[cid] = []byte(fmt.Sprintf(
		`{"ts":1700000001,"origin":"%s","offer":"%s","taker":"%s"}`,
		origin, encodedTx, takerAddress,
	))
}

func hashN(n byte) chainhash.Hash {
	return chainhash.Hash{n}
}

// assetTx builds the transaction holding the listed asset at output 0.
func assetTx(hash chainhash.Hash, spent bool, withAsset bool) *types.Transaction {
	out := &types.TxOut{
		Value:   10000,
		Address: makerAddress,
		Spent:   spent,
	}
	if withAsset {
		out.Ordinals = []types.Ordinal{{Number: 1, Rarity: types.RarityCommon}}
	}
	return &types.Transaction{
		TxHash:      hash,
		BlockHeight: 100,
		TxOut:       []*types.TxOut{out},
	}
}

// tagTx builds a transaction tagging the given payload, paying the
// listing fee to the orderbook address when fee > 0.
func tagTx(hash chainhash.Hash, height int64, payload string, fee int64) *types.Transaction {
	outs := []*types.TxOut{}
	if fee > 0 {
		outs = append(outs, &types.TxOut{Value: fee, Address: bookAddress})
	}
	outs = append(outs, &types.TxOut{Payload: payload})
	return &types.Transaction{
		TxHash:      hash,
		BlockHeight: height,
		TxOut:       outs,
	}
}

// signedSpendHex serializes a raw transaction spending the given
// outpoint with a non-empty signature script.
func signedSpendHex(t *testing.T, location types.Location) string {
	t.Helper()
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&location.TxHash, location.Index), []byte{0x01, 0x02}, nil))
	tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func resolve(t *testing.T, lookup *fakeLookup, storage *fakeStorage) (*entity.Orderbook, *Resolver) {
	t.Helper()
	resolver := NewResolver(bookAddress, common.NetworkMainnet, lookup, storage)
	book, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	return book, resolver
}

func TestResolveEmptyAddress(t *testing.T) {
	book, resolver := resolve(t, newFakeLookup(), newFakeStorage())

	assert.Empty(t, book.Pending.Orders)
	assert.Empty(t, book.Rejected.Orders)
	assert.Empty(t, book.Completed.Orders)
	assert.Empty(t, resolver.Failures())
	assert.False(t, book.UpdatedAt.IsZero())
}

func TestResolvePendingOrder(t *testing.T) {
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), false, true)
	location := types.NewLocation(asset.TxHash, 0)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
	storage.putOrder("orderX", location, 50000)

	book, _ := resolve(t, lookup, storage)

	require.Len(t, book.Pending.Orders, 1)
	order := book.Pending.Orders[0]
	assert.Equal(t, "orderX", order.Cid)
	assert.Equal(t, entity.StatusPending, order.Status)
	assert.Equal(t, int64(600), order.Value)
	assert.Len(t, order.Ordinals, 1)
	assert.Empty(t, book.Rejected.Orders)
}

func TestResolveRejectionPrecedence(t *testing.T) {
	// The order fails both the listing-fee check and the maker check;
	// the listing-fee code must win.
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), false, true)
	asset.TxOut[0].Address = "bc1qsomeoneelse"
	location := types.NewLocation(asset.TxHash, 0)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 0), bookAddress)
	storage.putOrder("orderX", location, 50000)

	book, _ := resolve(t, lookup, storage)

	require.Len(t, book.Rejected.Orders, 1)
	require.NotNil(t, book.Rejected.Orders[0].Reason)
	assert.Equal(t, entity.RejectInsufficientFunds, book.Rejected.Orders[0].Reason.Code)
}

func TestResolveOrderRejections(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(lookup *fakeLookup, storage *fakeStorage)
		expected entity.RejectionCode
	}{
		{
			name: "unknown location transaction",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				storage.putOrder("orderX", types.NewLocation(hashN(9), 0), 50000)
			},
			expected: entity.RejectInvalidOwnerLocation,
		},
		{
			name: "output index out of range",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				asset := assetTx(hashN(1), false, true)
				lookup.addTransaction(asset)
				storage.putOrder("orderX", types.NewLocation(asset.TxHash, 5), 50000)
			},
			expected: entity.RejectVoutOutOfRange,
		},
		{
			name: "maker does not own the location",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				asset := assetTx(hashN(1), false, true)
				asset.TxOut[0].Address = "bc1qsomeoneelse"
				lookup.addTransaction(asset)
				storage.putOrder("orderX", types.NewLocation(asset.TxHash, 0), 50000)
			},
			expected: entity.RejectInvalidOrderMaker,
		},
		{
			name: "no assets at the location",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				asset := assetTx(hashN(1), false, false)
				lookup.addTransaction(asset)
				storage.putOrder("orderX", types.NewLocation(asset.TxHash, 0), 50000)
			},
			expected: entity.RejectOrdinalNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := newFakeLookup()
			storage := newFakeStorage()
			lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
			tt.prepare(lookup, storage)

			book, _ := resolve(t, lookup, storage)

			require.Len(t, book.Rejected.Orders, 1)
			require.NotNil(t, book.Rejected.Orders[0].Reason)
			assert.Equal(t, tt.expected, book.Rejected.Orders[0].Reason.Code)
		})
	}
}

func TestResolveFulfillmentRequiresProof(t *testing.T) {
	// Assets left the location and no offer proves the movement, so
	// the order must reject, never complete.
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), true, false)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
	storage.putOrder("orderX", types.NewLocation(asset.TxHash, 0), 50000)

	book, _ := resolve(t, lookup, storage)

	assert.Empty(t, book.Completed.Orders)
	require.Len(t, book.Rejected.Orders, 1)
	require.NotNil(t, book.Rejected.Orders[0].Reason)
	assert.Equal(t, entity.RejectOrderResolvedExternally, book.Rejected.Orders[0].Reason.Code)
}

func TestResolveCompletedOrderAndOffer(t *testing.T) {
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), true, false)
	location := types.NewLocation(asset.TxHash, 0)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
	lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
	storage.putOrder("orderX", location, 50000)
	storage.putOffer("offerY", "orderX", signedSpendHex(t, location))

	// the taker's history contains the transaction spending the
	// order's outpoint
	proof := &types.Transaction{
		TxHash:      hashN(4),
		BlockHeight: 103,
		TxIn: []*types.TxIn{{
			PreviousOutTxHash: location.TxHash,
			PreviousOutIndex:  location.Index,
		}},
	}
	lookup.addTransaction(proof, takerAddress)

	book, _ := resolve(t, lookup, storage)

	require.Len(t, book.Completed.Orders, 1)
	require.Len(t, book.Completed.Offers, 1)
	order := book.Completed.Orders[0]
	offer := book.Completed.Offers[0]
	assert.Equal(t, entity.StatusCompleted, order.Status)
	assert.Equal(t, []string{"offerY"}, order.Offers)
	assert.Equal(t, entity.StatusCompleted, offer.Status)
	assert.Equal(t, proof.TxHash.String(), offer.ProofTxHash)
}

func TestResolveOfferRejections(t *testing.T) {
	location := types.NewLocation(hashN(1), 0)
	tests := []struct {
		name     string
		prepare  func(lookup *fakeLookup, storage *fakeStorage)
		expected entity.RejectionCode
	}{
		{
			name: "no listing fee",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				lookup.addTransaction(assetTx(hashN(1), false, true))
				lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 0), bookAddress)
				storage.putOffer("offerY", "orderX", "00")
			},
			expected: entity.RejectInsufficientFunds,
		},
		{
			name: "location owned by neither maker nor taker",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				asset := assetTx(hashN(1), false, true)
				asset.TxOut[0].Address = "bc1qsomeoneelse"
				lookup.addTransaction(asset)
				lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
				storage.putOffer("offerY", "orderX", "00")
			},
			expected: entity.RejectInvalidOfferOwner,
		},
		{
			name: "undecodable encoded transaction",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				lookup.addTransaction(assetTx(hashN(1), false, true))
				lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
				storage.putOffer("offerY", "orderX", "zz")
			},
			expected: entity.RejectMalformedTransaction,
		},
		{
			name: "no signed input",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				lookup.addTransaction(assetTx(hashN(1), false, true))
				lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
				tx := wire.NewMsgTx(wire.TxVersion)
				outpoint := wire.NewOutPoint(&location.TxHash, location.Index)
				tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
				tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))
				var buf bytes.Buffer
				if err := tx.Serialize(&buf); err != nil {
					panic(err)
				}
				storage.putOffer("offerY", "orderX", hex.EncodeToString(buf.Bytes()))
			},
			expected: entity.RejectSignatureMissing,
		},
		{
			name: "assets moved outside the taker's history",
			prepare: func(lookup *fakeLookup, storage *fakeStorage) {
				lookup.addTransaction(assetTx(hashN(1), true, false))
				lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
				stub := wire.NewMsgTx(wire.TxVersion)
				outpoint := wire.NewOutPoint(&location.TxHash, location.Index)
				stub.AddTxIn(wire.NewTxIn(outpoint, []byte{0x01}, nil))
				stub.AddTxOut(wire.NewTxOut(1, []byte{0x51}))
				var buf bytes.Buffer
				if err := stub.Serialize(&buf); err != nil {
					panic(err)
				}
				storage.putOffer("offerY", "orderX", hex.EncodeToString(buf.Bytes()))
			},
			expected: entity.RejectOrdinalsMoved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := newFakeLookup()
			storage := newFakeStorage()
			storage.putOrder("orderX", location, 50000)
			tt.prepare(lookup, storage)

			book, _ := resolve(t, lookup, storage)

			require.Len(t, book.Rejected.Offers, 1)
			require.NotNil(t, book.Rejected.Offers[0].Reason)
			assert.Equal(t, tt.expected, book.Rejected.Offers[0].Reason.Code)
		})
	}
}

func TestResolvePendingOfferWhileAssetsPresent(t *testing.T) {
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), false, true)
	location := types.NewLocation(asset.TxHash, 0)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
	lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
	storage.putOrder("orderX", location, 50000)
	storage.putOffer("offerY", "orderX", signedSpendHex(t, location))

	book, _ := resolve(t, lookup, storage)

	require.Len(t, book.Pending.Orders, 1)
	require.Len(t, book.Pending.Offers, 1)
	assert.Equal(t, []string{"offerY"}, book.Pending.Orders[0].Offers)
	assert.Empty(t, book.Pending.Offers[0].ProofTxHash)
}

func TestResolveDuplicateLocationMerge(t *testing.T) {
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), false, true)
	location := types.NewLocation(asset.TxHash, 0)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderA", 600), bookAddress)
	lookup.addTransaction(tagTx(hashN(3), 102, "omb=order:orderB", 700), bookAddress)
	storage.putOrder("orderA", location, 50000)
	storage.putOrder("orderB", location, 50000)

	book, _ := resolve(t, lookup, storage)

	require.Len(t, book.Pending.Orders, 1)
	assert.Equal(t, int64(1300), book.Pending.Orders[0].Value)
}

func TestResolveSkipsUnresolvableContent(t *testing.T) {
	lookup := newFakeLookup()
	storage := newFakeStorage()

	asset := assetTx(hashN(1), false, true)
	lookup.addTransaction(asset)
	lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:missing", 600), bookAddress)
	lookup.addTransaction(tagTx(hashN(3), 102, "omb=order:orderX", 600), bookAddress)
	storage.putOrder("orderX", types.NewLocation(asset.TxHash, 0), 50000)

	book, resolver := resolve(t, lookup, storage)

	// one bad reference never aborts the run
	require.Len(t, book.Pending.Orders, 1)
	assert.Equal(t, "orderX", book.Pending.Orders[0].Cid)
	require.Len(t, resolver.Failures(), 1)
	assert.Equal(t, "missing", resolver.Failures()[0].Cid)
}

func TestResolveIdempotent(t *testing.T) {
	build := func() (*fakeLookup, *fakeStorage) {
		lookup := newFakeLookup()
		storage := newFakeStorage()
		asset := assetTx(hashN(1), false, true)
		location := types.NewLocation(asset.TxHash, 0)
		lookup.addTransaction(asset)
		lookup.addTransaction(tagTx(hashN(2), 101, "omb=order:orderX", 600), bookAddress)
		lookup.addTransaction(tagTx(hashN(3), 102, "omb=offer:offerY", 700), bookAddress)
		storage.putOrder("orderX", location, 50000)
		storage.putOffer("offerY", "orderX", signedSpendHex(t, location))
		return lookup, storage
	}

	lookup1, storage1 := build()
	lookup2, storage2 := build()
	book1, _ := resolve(t, lookup1, storage1)
	book2, _ := resolve(t, lookup2, storage2)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	book1.UpdatedAt = now
	book2.UpdatedAt = now
	json1, err := json.Marshal(book1)
	require.NoError(t, err)
	json2, err := json.Marshal(book2)
	require.NoError(t, err)
	assert.Equal(t, string(json1), string(json2))
}

func TestLedgerViewMemoizes(t *testing.T) {
	lookup := newFakeLookup()
	asset := assetTx(hashN(1), false, true)
	lookup.addTransaction(asset, makerAddress)
	view := NewLedgerView(lookup)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx, err := view.Transaction(ctx, asset.TxHash)
		require.NoError(t, err)
		require.NotNil(t, tx)
		_, err = view.TransactionsForAddress(ctx, makerAddress)
		require.NoError(t, err)
	}
	// unknown results are memoized too
	for i := 0; i < 3; i++ {
		tx, err := view.Transaction(ctx, hashN(9))
		require.NoError(t, err)
		assert.Nil(t, tx)
	}

	assert.Equal(t, 2, lookup.txCalls)
	assert.Equal(t, 1, lookup.addressCalls)
}
