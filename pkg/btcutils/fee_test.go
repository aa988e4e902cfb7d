package btcutils

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualSize(t *testing.T) {
	tests := []struct {
		name     string
		shape    TxShape
		expected int64
	}{
		{
			name:     "one witness input two outputs",
			shape:    TxShape{WitnessInputs: 1, Outputs: 2},
			expected: 141,
		},
		{
			name:     "one legacy input two outputs",
			shape:    TxShape{LegacyInputs: 1, Outputs: 2},
			expected: 221,
		},
		{
			name:     "witness input with null data output",
			shape:    TxShape{WitnessInputs: 1, Outputs: 1, HasNullDataOut: true, NullDataBytes: 16},
			expected: 137,
		},
		{
			name:     "two witness inputs two outputs",
			shape:    TxShape{WitnessInputs: 2, Outputs: 2},
			expected: 209,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VirtualSize(tt.shape))
		})
	}
}

func TestVirtualSizeMonotonic(t *testing.T) {
	shape := TxShape{Outputs: 2}
	prev := VirtualSize(shape)
	for i := 0; i < 5; i++ {
		shape.WitnessInputs++
		next := VirtualSize(shape)
		assert.Greater(t, next, prev)
		prev = next
	}
	shape.LegacyInputs++
	assert.Greater(t, VirtualSize(shape), prev)
}

func TestEstimateFee(t *testing.T) {
	shape := TxShape{WitnessInputs: 1, Outputs: 2}

	fee, err := EstimateFee(shape, 5, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(141*5+100), fee)

	_, err = EstimateFee(shape, 0, 0)
	assert.ErrorIs(t, err, errs.InvalidArgument)
}

func TestGetAddressScriptType(t *testing.T) {
	tests := []struct {
		address  string
		expected ScriptType
		witness  bool
	}{
		{address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", expected: ScriptP2PKH},
		{address: "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy", expected: ScriptP2SH},
		{address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", expected: ScriptP2WPKH, witness: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			scriptType, err := GetAddressScriptType(tt.address, &chaincfg.MainNetParams)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scriptType)
			assert.Equal(t, tt.witness, scriptType.IsWitness())
		})
	}
}

func TestGetAddressScriptTypeInvalid(t *testing.T) {
	_, err := GetAddressScriptType("not-an-address", &chaincfg.MainNetParams)
	assert.Error(t, err)
}
