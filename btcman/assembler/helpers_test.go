package assembler

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

const (
	// testnet/regtest keys and their P2PKH addresses
	p1_legacy_priv_key_str = "cNSHjGk52rQ6iya8jdNT9VJ8dvvQ8kPAq5pcFHsYBYdDqahWuneH"
	p1_legacy_addr_str     = "mkVXZnqaaKt4puQNr4ovPHYg48mjguFCnT"

	p2_legacy_priv_key_str = "cQthTMaKUU9f6br1hMXdGFXHwGaAfFFerNkn632BpGE6KXhTMmGY"
	p2_legacy_addr_str     = "moHYHpgk4YgTCeLBmDE2teQ3qVLUtM95Fn"

	// BIP173/BIP350 vectors
	mainnet_p2tr_addr_str   = "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0"
	testnet_p2tr_addr_str   = "tb1pqqqqp399et2xygdj5xreqhjjvcmzhxw4aywxecjdzew6hylgvsesf3hn0c"
	mainnet_p2wpkh_addr_str = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testnet_p2wpkh_addr_str = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	mainnet_p2pkh_addr_str  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	// 1x1 png
	pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

	fixtureTxID1 = "7f1f7a3cf695a8a96dce1df2566f7dc5f5bfbb954ff18e1bbc9595c156693fc5"
	fixtureTxID2 = "8d23e94b3940af53b2b8e31c1236d439ca42e26914ee890fb1e885bc5ac2c29e"
)

// newTestOperator returns a fresh key's operator and its WIF.
func newTestOperator(t *testing.T, net network.Network) (*TaprootOperator, string) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	wif, err := btcutil.NewWIF(privKey, net.Params(), true)
	require.NoError(t, err)
	op, err := NewTaprootOperator(wif.String(), net)
	require.NoError(t, err)
	return op, wif.String()
}

// utxosFor makes outputs paying addr, one per amount.
func utxosFor(t *testing.T, addr string, net network.Network, amounts ...int64) []*utxo.UTXO {
	pkScript, err := AddressScript(addr, net)
	require.NoError(t, err)
	ids := []string{fixtureTxID1, fixtureTxID2}
	var out []*utxo.UTXO
	for i, amount := range amounts {
		u, err := utxo.NewUTXO(ids[i%len(ids)], uint32(i), amount, pkScript)
		require.NoError(t, err)
		out = append(out, u)
	}
	return out
}

// verifyTx runs every input of tx through the script engine.
func verifyTx(t *testing.T, tx *wire.MsgTx, prevOuts map[wire.OutPoint]*wire.TxOut) {
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for i, in := range tx.TxIn {
		prev := fetcher.FetchPrevOutput(in.PreviousOutPoint)
		require.NotNil(t, prev, "missing prevout of input %d", i)
		vm, err := txscript.NewEngine(
			prev.PkScript, tx, i, txscript.StandardVerifyFlags, nil, sigHashes, prev.Value, fetcher,
		)
		require.NoError(t, err)
		require.NoError(t, vm.Execute(), "input %d", i)
	}
}
