// Implements the Unlocker interface with a single local key,
// spending Taproot outputs either by key path (BIP86) or by script path.
// The private key never leaves this struct.

package assembler

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// A schnorr signature is 64 bytes, plus one sighash byte when not SigHashDefault.
const taprootSigSize = schnorr.SignatureSize + 1

var sigHashType = txscript.SigHashAll

type TaprootOperator struct {
	ChainConfig *chaincfg.Params        // which BTC chain it is on. (mainnet, testnet, regtest)
	P2TR        *btcutil.AddressTaproot // key path address of the key, no script tree
	privKey     *btcec.PrivateKey
}

// ScriptCommitment is a P2TR output committing to a single tapscript leaf.
type ScriptCommitment struct {
	Leaf         txscript.TapLeaf
	Address      *btcutil.AddressTaproot
	PkScript     []byte
	ControlBlock []byte
}

func NewTaprootOperator(privKeyStr string, net network.Network) (*TaprootOperator, error) {
	wif, err := DecodeWIFForNetwork(privKeyStr, net)
	if err != nil {
		return nil, err
	}
	return newTaprootOperator(wif.PrivKey, net.Params())
}

func newTaprootOperator(privKey *btcec.PrivateKey, params *chaincfg.Params) (*TaprootOperator, error) {
	tapKey := txscript.ComputeTaprootKeyNoScript(privKey.PubKey())
	p2trAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(tapKey), params)
	if err != nil {
		return nil, err
	}
	return &TaprootOperator{ChainConfig: params, P2TR: p2trAddr, privKey: privKey}, nil
}

func (op *TaprootOperator) PubKey() *btcec.PublicKey {
	return op.privKey.PubKey()
}

// XOnlyPubKey is the 32 byte internal key.
func (op *TaprootOperator) XOnlyPubKey() []byte {
	return schnorr.SerializePubKey(op.privKey.PubKey())
}

// NewScriptCommitment builds the single leaf tree of script
// on top of the operator's internal key.
func (op *TaprootOperator) NewScriptCommitment(script []byte) (*ScriptCommitment, error) {
	leaf := txscript.NewBaseTapLeaf(script)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	rootHash := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(op.PubKey(), rootHash[:])
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), op.ChainConfig)
	if err != nil {
		return nil, err
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	controlBlock := tree.LeafMerkleProofs[0].ToControlBlock(op.PubKey())
	ctrlBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, err
	}
	return &ScriptCommitment{
		Leaf:         leaf,
		Address:      addr,
		PkScript:     pkScript,
		ControlBlock: ctrlBytes,
	}, nil
}

// Unlock adds one input per previous output and signs each by key path.
// Outputs shall be on tx already, the sighash covers them.
func (op *TaprootOperator) Unlock(tx *wire.MsgTx, prevOutputs []*utxo.UTXO) (*wire.MsgTx, error) {
	appendInputs(tx, prevOutputs)

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for _, item := range prevOutputs {
		fetcher.AddPrevOut(*item.OutPoint(), wire.NewTxOut(item.Amount, item.PkScript))
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for idx, item := range prevOutputs {
		witness, err := txscript.TaprootWitnessSignature(
			tx, sigHashes, idx, item.Amount, item.PkScript, sigHashType, op.privKey,
		)
		if err != nil {
			return nil, fmt.Errorf("sign input %d: %w", idx, err)
		}
		tx.TxIn[idx].Witness = witness
	}
	return tx, nil
}

// UnlockScriptPath signs input idx, which spends the commitment output prevOut,
// through the commitment's leaf.
func (op *TaprootOperator) UnlockScriptPath(tx *wire.MsgTx, idx int, prevOut *wire.TxOut, c *ScriptCommitment) (*wire.MsgTx, error) {
	fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	sig, err := txscript.RawTxInTapscriptSignature(
		tx, sigHashes, idx, prevOut.Value, prevOut.PkScript, c.Leaf, sigHashType, op.privKey,
	)
	if err != nil {
		return nil, fmt.Errorf("sign script path input %d: %w", idx, err)
	}
	tx.TxIn[idx].Witness = wire.TxWitness{sig, c.Leaf.Script, c.ControlBlock}
	return tx, nil
}

func appendInputs(tx *wire.MsgTx, prevOutputs []*utxo.UTXO) {
	for _, item := range prevOutputs {
		tx.AddTxIn(wire.NewTxIn(item.OutPoint(), nil, nil))
	}
}

// dummyKeyPathWitness has the size of a real key path witness.
func dummyKeyPathWitness() wire.TxWitness {
	return wire.TxWitness{make([]byte, taprootSigSize)}
}

// dummyScriptPathWitness has the size of a real script path witness for c.
func dummyScriptPathWitness(c *ScriptCommitment) wire.TxWitness {
	return wire.TxWitness{make([]byte, taprootSigSize), c.Leaf.Script, c.ControlBlock}
}
