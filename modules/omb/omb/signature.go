package omb

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"

	verifier "github.com/bitonicnl/verify-signed-message/pkg"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
	"github.com/ordmarket/orderbook-engine/pkg/btcutils"
)

// DecodedTransaction is a taker's encoded transaction: a PSBT while
// signatures are still being collected, or a finalized raw
// transaction.
type DecodedTransaction struct {
	Packet *psbt.Packet
	Tx     *wire.MsgTx
}

// DecodeEncodedTransaction decodes a hex or base64 encoded PSBT, or
// failing that a raw wire transaction.
func DecodeEncodedTransaction(encoded string) (*DecodedTransaction, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(errs.InvalidArgument, "transaction is neither hex nor base64")
		}
	}

	if packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false); err == nil {
		return &DecodedTransaction{Packet: packet, Tx: packet.UnsignedTx}, nil
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(errs.InvalidArgument, "transaction is neither a PSBT nor a wire transaction")
	}
	return &DecodedTransaction{Tx: &tx}, nil
}

// HasSignedInput reports whether at least one input carries a
// non-empty unlocking script or signature. Weak presence check only.
func (d *DecodedTransaction) HasSignedInput() bool {
	if d.Packet != nil {
		for _, in := range d.Packet.Inputs {
			if len(in.FinalScriptSig) > 0 || len(in.FinalScriptWitness) > 0 ||
				len(in.PartialSigs) > 0 || len(in.TaprootKeySpendSig) > 0 {
				return true
			}
		}
		return false
	}
	for _, in := range d.Tx.TxIn {
		if len(in.SignatureScript) > 0 || (len(in.Witness) > 0 && len(in.Witness[0]) > 0) {
			return true
		}
	}
	return false
}

// FirstInputOutpoint returns the location consumed by the first input.
func (d *DecodedTransaction) FirstInputOutpoint() (types.Location, bool) {
	if len(d.Tx.TxIn) == 0 {
		return types.Location{}, false
	}
	first := d.Tx.TxIn[0]
	return types.NewLocation(first.PreviousOutPoint.Hash, first.PreviousOutPoint.Index), true
}

// firstInputSigned reports whether the first input of a PSBT carries
// any signature material.
func (d *DecodedTransaction) firstInputSigned() bool {
	if d.Packet == nil || len(d.Packet.Inputs) == 0 {
		return false
	}
	in := d.Packet.Inputs[0]
	return len(in.FinalScriptSig) > 0 || len(in.FinalScriptWitness) > 0 ||
		len(in.PartialSigs) > 0 || len(in.TaprootKeySpendSig) > 0
}

// firstInputFinalized reports whether the first input is fully signed.
func (d *DecodedTransaction) firstInputFinalized() bool {
	if d.Packet == nil || len(d.Packet.Inputs) == 0 {
		return false
	}
	in := d.Packet.Inputs[0]
	return len(in.FinalScriptSig) > 0 || len(in.FinalScriptWitness) > 0
}

// SignatureValidator verifies maker and taker authorization proofs.
// Verification never silently downgrades: a failed proof is always a
// returned error.
type SignatureValidator struct {
	net *chaincfg.Params
}

func NewSignatureValidator(net *chaincfg.Params) *SignatureValidator {
	return &SignatureValidator{net: net}
}

// VerifyOrder checks the maker's authorization on an order. A
// signature that decodes as a PSBT is treated as a ledger-native
// proof; anything else as a message signature over the order's
// canonical signing payload.
func (v *SignatureValidator) VerifyOrder(content entity.OrderContent) error {
	if content.Signature == "" {
		return errors.Wrap(errs.InvalidSignature, "order carries no signature")
	}
	if decoded, err := DecodeEncodedTransaction(content.Signature); err == nil && decoded.Packet != nil {
		return errors.WithStack(v.verifyOrderPSBT(content, decoded))
	}
	return errors.WithStack(v.verifyOrderMessage(content))
}

// verifyOrderMessage verifies a signed message against the claimed
// maker address.
func (v *SignatureValidator) verifyOrderMessage(content entity.OrderContent) error {
	ok, err := verifier.VerifyWithChain(verifier.SignedMessage{
		Address:   content.Maker,
		Message:   content.SigningPayload(),
		Signature: content.Signature,
	}, v.net)
	if err != nil {
		return errors.Wrapf(errs.InvalidSignature, "message signature verification failed: %s", err)
	}
	if !ok {
		return errors.Wrap(errs.InvalidSignature, "message signature does not match the maker address")
	}
	return nil
}

// verifyOrderPSBT verifies a ledger-native proof: the order is bound
// to a finalized input at the order's location, and that input spends
// a script owned by the maker under the maker's script type.
func (v *SignatureValidator) verifyOrderPSBT(content entity.OrderContent, decoded *DecodedTransaction) error {
	outpoint, ok := decoded.FirstInputOutpoint()
	if !ok {
		return errors.Wrap(errs.InvalidSignature, "ledger-native proof has no inputs")
	}
	if outpoint != content.Location {
		return errors.Wrap(errs.InvalidSignature, "ledger-native proof does not spend the order location")
	}
	if !decoded.firstInputFinalized() {
		return errors.Wrap(errs.InvalidSignature, "ledger-native proof input is not finalized")
	}

	makerPkScript, err := btcutils.PkScriptFromAddress(content.Maker, v.net)
	if err != nil {
		return errors.Wrapf(errs.InvalidSignature, "invalid maker address: %s", err)
	}
	in := decoded.Packet.Inputs[0]
	if in.WitnessUtxo == nil || !bytes.Equal(in.WitnessUtxo.PkScript, makerPkScript) {
		return errors.Wrap(errs.InvalidSignature, "ledger-native proof does not spend a maker-owned output")
	}
	return nil
}

// VerifyOfferCreation checks a taker's encoded transaction at offer
// creation time: it must spend the origin order's location as its
// first input, and that input must still be unsigned, awaiting the
// taker.
func (v *SignatureValidator) VerifyOfferCreation(content entity.OfferContent, order entity.OrderContent) error {
	decoded, err := DecodeEncodedTransaction(content.Transaction)
	if err != nil {
		return errors.Wrap(errs.InvalidSignature, "offer transaction cannot be decoded")
	}
	if decoded.Packet == nil {
		return errors.Wrap(errs.InvalidSignature, "offer transaction must be a PSBT at creation time")
	}
	outpoint, ok := decoded.FirstInputOutpoint()
	if !ok {
		return errors.Wrap(errs.InvalidSignature, "offer transaction has no inputs")
	}
	if outpoint != order.Location {
		return errors.Wrap(errs.InvalidSignature, "offer transaction does not spend the order location first")
	}
	if decoded.firstInputSigned() {
		return errors.Wrap(errs.InvalidSignature, "offer transaction input must be unsigned at creation time")
	}
	return nil
}
