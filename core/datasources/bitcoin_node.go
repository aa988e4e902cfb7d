package datasources

import (
	"context"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/core/types"
	"github.com/ordmarket/orderbook-engine/pkg/btcutils"
)

// Make sure to implement the LookupService interface
var _ LookupService = (*BitcoinNodeDatasource)(nil)

// Annotator attaches externally-tracked ordinal and inscription facts
// to a transaction output. Implementations are expected to be pure
// lookups; a nil Annotator leaves outputs unannotated.
type Annotator interface {
	Annotate(ctx context.Context, location types.Location, out *types.TxOut) error
}

// BitcoinNodeDatasource answers ledger lookups from a Bitcoin node
// with transaction and address indexing enabled.
type BitcoinNodeDatasource struct {
	btcclient *rpcclient.Client
	params    *chaincfg.Params
	annotator Annotator
}

func NewBitcoinNode(btcclient *rpcclient.Client, params *chaincfg.Params, annotator Annotator) *BitcoinNodeDatasource {
	return &BitcoinNodeDatasource{
		btcclient: btcclient,
		params:    params,
		annotator: annotator,
	}
}

func (d *BitcoinNodeDatasource) Name() string {
	return "bitcoin_node"
}

func (d *BitcoinNodeDatasource) GetTransaction(ctx context.Context, txHash chainhash.Hash) (*types.Transaction, error) {
	raw, err := d.btcclient.GetRawTransactionVerbose(&txHash)
	if err != nil {
		if isNotFoundRPCError(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get raw transaction")
	}

	txIns, err := parseTxIns(raw.Vin)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	txOuts, err := d.parseTxOuts(ctx, txHash, raw.Vout)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	height, err := d.blockHeight(raw.BlockHash)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &types.Transaction{
		TxHash:      txHash,
		BlockHeight: height,
		BlockTime:   time.Unix(raw.Blocktime, 0).UTC(),
		Version:     int32(raw.Version),
		LockTime:    raw.LockTime,
		TxIn:        txIns,
		TxOut:       txOuts,
	}, nil
}

func (d *BitcoinNodeDatasource) GetTransactionsByAddress(ctx context.Context, address string) ([]*types.Transaction, error) {
	addr, err := btcutil.DecodeAddress(address, d.params)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}

	// 10000 entries is far beyond any single marketplace address seen
	// in practice; paging can be added when one overflows it.
	raws, err := d.btcclient.SearchRawTransactionsVerbose(addr, 0, 10000, true, false, nil)
	if err != nil {
		if isNotFoundRPCError(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to search raw transactions")
	}

	txs := make([]*types.Transaction, 0, len(raws))
	heights := make(map[string]int64)
	for _, raw := range raws {
		txHash, err := chainhash.NewHashFromStr(raw.Txid)
		if err != nil {
			return nil, errors.Wrap(err, "invalid txid")
		}
		height, ok := heights[raw.BlockHash]
		if !ok {
			height, err = d.blockHeight(raw.BlockHash)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			heights[raw.BlockHash] = height
		}

		txIns, err := parseTxIns(plainVins(raw.Vin))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		txOuts, err := d.parseTxOuts(ctx, *txHash, raw.Vout)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		txs = append(txs, &types.Transaction{
			TxHash:      *txHash,
			BlockHeight: height,
			BlockTime:   time.Unix(raw.Blocktime, 0).UTC(),
			Version:     int32(raw.Version),
			LockTime:    raw.LockTime,
			TxIn:        txIns,
			TxOut:       txOuts,
		})
	}
	return txs, nil
}

func (d *BitcoinNodeDatasource) GetUnspentOutputs(ctx context.Context, address string) ([]*types.UnspentOutput, error) {
	addr, err := btcutil.DecodeAddress(address, d.params)
	if err != nil {
		return nil, errors.Wrap(err, "invalid address")
	}

	unspents, err := d.btcclient.ListUnspentMinMaxAddresses(1, 9999999, []btcutil.Address{addr})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list unspent outputs")
	}

	utxos := make([]*types.UnspentOutput, 0, len(unspents))
	for _, unspent := range unspents {
		utxo, err := parseUnspentOutput(unspent)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if d.annotator != nil {
			if err := d.annotator.Annotate(ctx, utxo.Location, utxo.Output); err != nil {
				return nil, errors.Wrap(err, "failed to annotate unspent output")
			}
		}
		utxos = append(utxos, utxo)
	}
	return utxos, nil
}

func (d *BitcoinNodeDatasource) parseTxOuts(ctx context.Context, txHash chainhash.Hash, vouts []btcjson.Vout) ([]*types.TxOut, error) {
	txOuts := make([]*types.TxOut, 0, len(vouts))
	for i, vout := range vouts {
		out, err := parseTxOut(vout)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		// gettxout answers from the utxo set, so a missing entry means
		// the output was spent (or was never spendable, as with
		// null-data outputs)
		utxo, err := d.btcclient.GetTxOut(&txHash, uint32(i), false)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get output spend status")
		}
		out.Spent = utxo == nil
		if d.annotator != nil {
			location := types.NewLocation(txHash, uint32(i))
			if err := d.annotator.Annotate(ctx, location, out); err != nil {
				return nil, errors.Wrap(err, "failed to annotate output")
			}
		}
		txOuts = append(txOuts, out)
	}
	return txOuts, nil
}

// blockHeight resolves a block hash to its height. An empty hash means
// the transaction is unconfirmed and maps to height zero.
func (d *BitcoinNodeDatasource) blockHeight(blockHash string) (int64, error) {
	if blockHash == "" {
		return 0, nil
	}
	hash, err := chainhash.NewHashFromStr(blockHash)
	if err != nil {
		return 0, errors.Wrap(err, "invalid block hash")
	}
	header, err := d.btcclient.GetBlockHeaderVerbose(hash)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get block header")
	}
	return int64(header.Height), nil
}

// plainVins strips the prevout enrichment searchrawtransactions adds
// so both lookup paths share one vin mapping.
func plainVins(vins []btcjson.VinPrevOut) []btcjson.Vin {
	plain := make([]btcjson.Vin, 0, len(vins))
	for _, vin := range vins {
		plain = append(plain, btcjson.Vin{
			Coinbase:  vin.Coinbase,
			Txid:      vin.Txid,
			Vout:      vin.Vout,
			ScriptSig: vin.ScriptSig,
			Sequence:  vin.Sequence,
			Witness:   vin.Witness,
		})
	}
	return plain
}

func parseTxIns(vins []btcjson.Vin) ([]*types.TxIn, error) {
	txIns := make([]*types.TxIn, 0, len(vins))
	for _, vin := range vins {
		if vin.IsCoinBase() {
			txIns = append(txIns, &types.TxIn{Sequence: vin.Sequence})
			continue
		}
		txIn, err := parseTxIn(vin.Txid, vin.Vout, scriptSigHex(vin.ScriptSig), vin.Witness, vin.Sequence)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		txIns = append(txIns, txIn)
	}
	return txIns, nil
}

func parseTxOut(vout btcjson.Vout) (*types.TxOut, error) {
	pkScript, err := hex.DecodeString(vout.ScriptPubKey.Hex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode pkScript")
	}
	return &types.TxOut{
		PkScript: pkScript,
		Value:    btcutils.BitcoinToSatoshi(vout.Value),
		Address:  firstOrEmpty(vout.ScriptPubKey.Addresses),
		Payload:  decodeNullDataPayload(pkScript),
	}, nil
}

func parseUnspentOutput(unspent btcjson.ListUnspentResult) (*types.UnspentOutput, error) {
	txHash, err := chainhash.NewHashFromStr(unspent.TxID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid txid in unspent output")
	}
	pkScript, err := hex.DecodeString(unspent.ScriptPubKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode pkScript")
	}
	return &types.UnspentOutput{
		Location: types.NewLocation(*txHash, unspent.Vout),
		Output: &types.TxOut{
			PkScript: pkScript,
			Value:    btcutils.BitcoinToSatoshi(unspent.Amount),
			Address:  unspent.Address,
		},
	}, nil
}

func parseTxIn(txid string, voutIdx uint32, scriptSig string, witness []string, sequence uint32) (*types.TxIn, error) {
	prevHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, errors.Wrap(err, "invalid input txid")
	}
	var sigScript []byte
	if scriptSig != "" {
		sigScript, err = hex.DecodeString(scriptSig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode scriptSig")
		}
	}
	witnessItems := make([][]byte, 0, len(witness))
	for _, item := range witness {
		w, err := hex.DecodeString(item)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode witness item")
		}
		witnessItems = append(witnessItems, w)
	}
	return &types.TxIn{
		SignatureScript:   sigScript,
		Witness:           witnessItems,
		Sequence:          sequence,
		PreviousOutIndex:  voutIdx,
		PreviousOutTxHash: *prevHash,
	}, nil
}

// decodeNullDataPayload extracts the UTF-8 data pushed by an OP_RETURN
// script. Returns empty string when the script is not null-data or the
// data is not valid UTF-8.
func decodeNullDataPayload(pkScript []byte) string {
	if txscript.GetScriptClass(pkScript) != txscript.NullDataTy {
		return ""
	}
	pushed, err := txscript.PushedData(pkScript)
	if err != nil || len(pushed) == 0 {
		return ""
	}
	data := pushed[0]
	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}

func isNotFoundRPCError(err error) bool {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == btcjson.ErrRPCNoTxInfo || rpcErr.Code == btcjson.ErrRPCInvalidAddressOrKey
	}
	return strings.Contains(err.Error(), "No such mempool or blockchain transaction.")
}

func scriptSigHex(s *btcjson.ScriptSig) string {
	if s == nil {
		return ""
	}
	return s.Hex
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
