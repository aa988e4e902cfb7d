package omb

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/pkg/btcutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// BIP-173 reference P2WPKH address
	fundingAddress = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	// genesis P2PKH address
	listingAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

func fundingUTXO(t *testing.T, n byte, value int64) *types.UnspentOutput {
	t.Helper()
	pkScript, err := btcutils.PkScriptFromAddress(fundingAddress, &chaincfg.MainNetParams)
	require.NoError(t, err)
	return &types.UnspentOutput{
		Location: types.NewLocation(hashN(n), 0),
		Output: &types.TxOut{
			PkScript: pkScript,
			Value:    value,
			Address:  fundingAddress,
		},
	}
}

func newBuilder(utxos ...*types.UnspentOutput) *TransactionBuilder {
	lookup := newFakeLookup()
	lookup.unspents[fundingAddress] = utxos
	return NewTransactionBuilder(&chaincfg.MainNetParams, NewLedgerView(lookup))
}

func buildParams(listings ...ListingOutput) BuildParams {
	return BuildParams{
		Address:        fundingAddress,
		Tag:            Tag{Kind: TagOrder, Cid: "bafyorder"},
		ListingOutputs: listings,
		FeeRate:        2,
	}
}

func TestBuildListingTransaction(t *testing.T) {
	builder := newBuilder(fundingUTXO(t, 1, 10000))
	params := buildParams(ListingOutput{Address: listingAddress, Value: 600})

	built, err := builder.Build(context.Background(), params)
	require.NoError(t, err)

	expectedFee, err := btcutils.EstimateFee(btcutils.TxShape{
		WitnessInputs:  1,
		Outputs:        2,
		HasNullDataOut: true,
		NullDataBytes:  len(params.Tag.Payload()),
	}, params.FeeRate, 0)
	require.NoError(t, err)
	assert.Equal(t, expectedFee, built.Fee)

	require.Len(t, built.Inputs, 1)
	assert.Equal(t, int64(10000), built.Inputs[0].Output.Value)
	assert.Equal(t, 10000-expectedFee-600, built.Change)

	// listing output, tag output, change output
	require.Len(t, built.Tx.TxOut, 3)
	assert.Equal(t, int64(600), built.Tx.TxOut[0].Value)

	tagOut := built.Tx.TxOut[1]
	assert.Equal(t, int64(0), tagOut.Value)
	assert.Equal(t, txscript.NullDataTy, txscript.GetScriptClass(tagOut.PkScript))
	assert.Contains(t, string(tagOut.PkScript), "omb=order:bafyorder")

	changeOut := built.Tx.TxOut[2]
	assert.Equal(t, built.Change, changeOut.Value)
	assert.Equal(t, built.Inputs[0].Output.PkScript, changeOut.PkScript)

	// inputs cover outputs plus fee exactly
	var outTotal int64
	for _, out := range built.Tx.TxOut {
		outTotal += out.Value
	}
	assert.Equal(t, int64(10000), outTotal+built.Fee)

	require.Len(t, built.Packet.Inputs, 1)
	require.NotNil(t, built.Packet.Inputs[0].WitnessUtxo)
	assert.Equal(t, int64(10000), built.Packet.Inputs[0].WitnessUtxo.Value)
}

func TestBuildAppliesDefaultListingValue(t *testing.T) {
	builder := newBuilder(fundingUTXO(t, 1, 10000))

	built, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 100}))
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultListingValue), built.Tx.TxOut[0].Value)
}

func TestBuildSelectsSmallestSufficientInput(t *testing.T) {
	builder := newBuilder(
		fundingUTXO(t, 1, 20000),
		fundingUTXO(t, 2, 1000),
		fundingUTXO(t, 3, 5000),
	)

	built, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 600}))
	require.NoError(t, err)

	require.Len(t, built.Inputs, 1)
	assert.Equal(t, int64(1000), built.Inputs[0].Output.Value)
}

func TestBuildAccumulatesInputs(t *testing.T) {
	builder := newBuilder(
		fundingUTXO(t, 1, 700),
		fundingUTXO(t, 2, 800),
	)

	built, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 600}))
	require.NoError(t, err)

	require.Len(t, built.Inputs, 2)
	assert.Greater(t, built.Change, int64(0))
}

func TestBuildNeverSelectsAssetBearingOutputs(t *testing.T) {
	inscribed := fundingUTXO(t, 1, 50000)
	inscribed.Output.Inscriptions = []types.Inscription{{Id: "insc0"}}
	rare := fundingUTXO(t, 2, 50000)
	rare.Output.Ordinals = []types.Ordinal{{Number: 1, Rarity: types.RarityUncommon}}
	builder := newBuilder(inscribed, rare, fundingUTXO(t, 3, 10000))

	built, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 600}))
	require.NoError(t, err)

	require.Len(t, built.Inputs, 1)
	assert.Equal(t, hashN(3), built.Inputs[0].Location.TxHash)
}

func TestBuildNoSpendableUTXO(t *testing.T) {
	inscribed := fundingUTXO(t, 1, 50000)
	inscribed.Output.Inscriptions = []types.Inscription{{Id: "insc0"}}

	tests := []struct {
		name  string
		utxos []*types.UnspentOutput
	}{
		{name: "no outputs at all"},
		{name: "only asset-bearing outputs", utxos: []*types.UnspentOutput{inscribed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := newBuilder(tt.utxos...)
			_, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 600}))
			assert.ErrorIs(t, err, errs.NoSpendableUTXO)
		})
	}
}

func TestBuildInsufficientFunds(t *testing.T) {
	builder := newBuilder(fundingUTXO(t, 1, 700))

	_, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: listingAddress, Value: 600}))
	assert.ErrorIs(t, err, errs.InsufficientFunds)
}

func TestBuildRejectsInvalidListingAddress(t *testing.T) {
	builder := newBuilder(fundingUTXO(t, 1, 10000))

	_, err := builder.Build(context.Background(), buildParams(ListingOutput{Address: "not-an-address", Value: 600}))
	assert.ErrorIs(t, err, errs.InvalidArgument)
}
