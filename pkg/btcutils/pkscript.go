package btcutils

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
)

// ScriptType is the standard script class of an address or output.
type ScriptType string

const (
	ScriptP2PKH  ScriptType = "p2pkh"
	ScriptP2SH   ScriptType = "p2sh"
	ScriptP2WPKH ScriptType = "p2wpkh"
	ScriptP2WSH  ScriptType = "p2wsh"
	ScriptP2TR   ScriptType = "p2tr"
)

// IsWitness reports whether inputs spending this script type carry
// their unlocking data in the witness.
func (t ScriptType) IsWitness() bool {
	switch t {
	case ScriptP2WPKH, ScriptP2WSH, ScriptP2TR:
		return true
	}
	return false
}

// PkScriptFromAddress returns the pay-to script for the given address.
func PkScriptFromAddress(address string, net *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse address")
	}
	pkScript, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, errors.Wrap(err, "can't get script pubkey")
	}
	return pkScript, nil
}

// AddressFromPkScript returns the encoded address for a standard
// pkScript, or empty string for non-standard scripts.
func AddressFromPkScript(pkScript []byte, net *chaincfg.Params) string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, net)
	if err != nil || len(addrs) != 1 {
		return ""
	}
	return addrs[0].EncodeAddress()
}

// GetScriptType returns the standard script class of the given pkScript.
func GetScriptType(pkScript []byte) (ScriptType, error) {
	switch txscript.GetScriptClass(pkScript) {
	case txscript.PubKeyHashTy:
		return ScriptP2PKH, nil
	case txscript.ScriptHashTy:
		return ScriptP2SH, nil
	case txscript.WitnessV0PubKeyHashTy:
		return ScriptP2WPKH, nil
	case txscript.WitnessV0ScriptHashTy:
		return ScriptP2WSH, nil
	case txscript.WitnessV1TaprootTy:
		return ScriptP2TR, nil
	}
	return "", errors.Errorf("unsupported script class %q", txscript.GetScriptClass(pkScript))
}

// GetAddressScriptType returns the standard script class of the given
// address.
func GetAddressScriptType(address string, net *chaincfg.Params) (ScriptType, error) {
	pkScript, err := PkScriptFromAddress(address, net)
	if err != nil {
		return "", errors.WithStack(err)
	}
	scriptType, err := GetScriptType(pkScript)
	return scriptType, errors.WithStack(err)
}
