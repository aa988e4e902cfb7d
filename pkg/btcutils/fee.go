package btcutils

import (
	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
)

// Weight-unit costs for fee estimation, before the witness discount.
// Reference: https://bitcoinops.org/en/tools/calc-size/
const (
	txOverheadWeight       = 42  // version + locktime + io counts
	segwitMarkerFlagWeight = 2   // marker + flag, once any witness input is present
	outputWeight           = 124 // 31 vbytes
	nullDataOutputBase     = 44  // 11 vbytes before the payload itself

	witnessInputBaseWeight    = 164 // outpoint + sequence + empty script len
	witnessInputWitnessWeight = 108 // signature + pubkey, witness-discounted by the caller
	legacyInputWeight         = 592 // outpoint + sequence + signature script, no discount
)

// TxShape describes a transaction being assembled, for fee purposes.
// Payload sizes of null-data outputs are counted at full weight.
type TxShape struct {
	WitnessInputs  int
	LegacyInputs   int
	Outputs        int
	NullDataBytes  int
	HasNullDataOut bool
}

// VirtualSize estimates the virtual size in vbytes of a fully signed
// transaction of the given shape: base weight plus one quarter of
// witness weight, rounded up. The estimate grows monotonically with
// each added input, so it must be recomputed after every addition.
func VirtualSize(shape TxShape) int64 {
	baseWeight := int64(txOverheadWeight)
	baseWeight += int64(shape.Outputs) * outputWeight
	if shape.HasNullDataOut {
		baseWeight += nullDataOutputBase + int64(shape.NullDataBytes)*4
	}
	baseWeight += int64(shape.WitnessInputs) * witnessInputBaseWeight
	baseWeight += int64(shape.LegacyInputs) * legacyInputWeight

	witnessWeight := int64(0)
	if shape.WitnessInputs > 0 {
		witnessWeight = segwitMarkerFlagWeight + int64(shape.WitnessInputs)*witnessInputWitnessWeight
	}

	totalWeight := baseWeight + witnessWeight
	// vsize is weight/4, a fraction of a vbyte counts as a whole vbyte
	vsize := totalWeight / 4
	if totalWeight%4 > 0 {
		vsize++
	}
	return vsize
}

// EstimateFee returns the estimated fee for a transaction of the given
// shape at the given fee rate (sat/vB), plus a flat network surcharge.
func EstimateFee(shape TxShape, feeRate int64, networkFee int64) (int64, error) {
	if feeRate <= 0 {
		return 0, errors.Wrap(errs.InvalidArgument, "fee rate must be positive")
	}
	return VirtualSize(shape)*feeRate + networkFee, nil
}
