package omb

import (
	"context"
	"sort"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/pkg/btcutils"
)

// DefaultListingValue is the minimum value of a listing output when
// the caller does not specify one.
const DefaultListingValue = 600

// ListingOutput is one marketplace cut or referral fee output required
// by a listing.
type ListingOutput struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// BuildParams describes one unsigned listing transaction to build.
type BuildParams struct {
	// Address acts as funding source and change destination.
	Address string

	// Tag is embedded as a zero-value null-data output.
	Tag Tag

	// ListingOutputs are appended in order before the tag output.
	ListingOutputs []ListingOutput

	// FeeRate is the fee rate in satoshi per virtual byte.
	FeeRate int64

	// NetworkFee is a flat surcharge added on top of the size fee.
	NetworkFee int64
}

// BuiltTransaction is an unsigned listing transaction with its funding
// summary. The PSBT carries witness utxo data for the signer.
type BuiltTransaction struct {
	Tx     *wire.MsgTx
	Packet *psbt.Packet

	Inputs []*types.UnspentOutput
	Fee    int64
	Change int64
}

// TransactionBuilder assembles unsigned transactions that tag order
// and offer content on the ledger.
type TransactionBuilder struct {
	net    *chaincfg.Params
	ledger *LedgerView
}

func NewTransactionBuilder(net *chaincfg.Params, ledger *LedgerView) *TransactionBuilder {
	return &TransactionBuilder{net: net, ledger: ledger}
}

// Build selects funding inputs for the given listing and returns the
// unsigned result. Inputs carrying rare ordinals or inscriptions are
// never selected. Fails with InsufficientFunds rather than producing a
// transaction that cannot cover its own fee.
func (b *TransactionBuilder) Build(ctx context.Context, params BuildParams) (*BuiltTransaction, error) {
	utxos, err := b.ledger.UnspentOutputs(ctx, params.Address)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	candidates := make([]*types.UnspentOutput, 0, len(utxos))
	for _, utxo := range utxos {
		if utxo.IsSafeToSpend() {
			candidates = append(candidates, utxo)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.Wrapf(errs.NoSpendableUTXO, "address %s has no spendable outputs", params.Address)
	}

	// Smallest-first favors consolidation and keeps change
	// predictable. Location breaks value ties so selection is stable.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Output.Value != candidates[j].Output.Value {
			return candidates[i].Output.Value < candidates[j].Output.Value
		}
		return candidates[i].Location.String() < candidates[j].Location.String()
	})

	outputs, required, err := b.listingOutputs(params.ListingOutputs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	payload := params.Tag.Payload()
	tagScript, err := txscript.NullDataScript([]byte(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build tag output script")
	}
	outputs = append(outputs, wire.NewTxOut(0, tagScript))

	shape := btcutils.TxShape{
		// listing outputs plus change; the tag output is counted via
		// the null-data fields
		Outputs:        len(params.ListingOutputs) + 1,
		HasNullDataOut: true,
		NullDataBytes:  len(payload),
	}

	var (
		selected []*types.UnspentOutput
		total    int64
		fee      int64
	)
	for _, utxo := range candidates {
		scriptType, err := btcutils.GetScriptType(utxo.Output.PkScript)
		if err != nil {
			continue
		}
		if scriptType.IsWitness() {
			shape.WitnessInputs++
		} else {
			shape.LegacyInputs++
		}
		selected = append(selected, utxo)
		total += utxo.Output.Value

		fee, err = btcutils.EstimateFee(shape, params.FeeRate, params.NetworkFee)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if total-fee-required > 0 {
			break
		}
	}
	change := total - fee - required
	if change <= 0 {
		return nil, errors.Wrapf(errs.InsufficientFunds,
			"address %s cannot fund listing: total %d, required %d, fee %d", params.Address, total, required, fee)
	}

	changeScript, err := btcutils.PkScriptFromAddress(params.Address, b.net)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid change address %s", params.Address)
	}
	outputs = append(outputs, wire.NewTxOut(change, changeScript))

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, utxo := range selected {
		outpoint := wire.NewOutPoint(&utxo.Location.TxHash, utxo.Location.Index)
		tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wrap transaction as PSBT")
	}
	for i, utxo := range selected {
		scriptType, err := btcutils.GetScriptType(utxo.Output.PkScript)
		if err != nil || !scriptType.IsWitness() {
			continue
		}
		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(utxo.Output.Value, utxo.Output.PkScript)
	}

	return &BuiltTransaction{
		Tx:     tx,
		Packet: packet,
		Inputs: selected,
		Fee:    fee,
		Change: change,
	}, nil
}

// listingOutputs materializes the requested listing outputs, applying
// the default minimum value, and returns them with their total.
func (b *TransactionBuilder) listingOutputs(listings []ListingOutput) ([]*wire.TxOut, int64, error) {
	outputs := make([]*wire.TxOut, 0, len(listings))
	var required int64
	for _, listing := range listings {
		value := listing.Value
		if value < DefaultListingValue {
			value = DefaultListingValue
		}
		pkScript, err := btcutils.PkScriptFromAddress(listing.Address, b.net)
		if err != nil {
			return nil, 0, errors.Wrapf(errs.InvalidArgument, "invalid listing output address %s", listing.Address)
		}
		outputs = append(outputs, wire.NewTxOut(value, pkScript))
		required += value
	}
	return outputs, required, nil
}
