/*
Locker and Unlocker are the basic interfaces
that a tx assembler relies on.

Locking adds outputs, see locker_impl.go.

By implementing Unlocker, an operator
can unlock UTXOs (inputs) previously received.

Remember:
Always create the "lock" part firstly on Tx, then create the "unlock" part on Tx.
Taproot sighashes commit to every output, a later output breaks the signatures.
*/
package assembler

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// Unlocker defines the actions
// that produce the "unlocking" part of a Tx (aka the inputs).
type Unlocker interface {
	// Given a list of UTXO(s), add one input per UTXO and sign it.
	Unlock(tx *wire.MsgTx, prevOutputs []*utxo.UTXO) (*wire.MsgTx, error)
}

// ScriptPathUnlocker can commit to a tapscript leaf and later spend it.
type ScriptPathUnlocker interface {
	Unlocker
	XOnlyPubKey() []byte
	NewScriptCommitment(script []byte) (*ScriptCommitment, error)
	UnlockScriptPath(tx *wire.MsgTx, idx int, prevOut *wire.TxOut, c *ScriptCommitment) (*wire.MsgTx, error)
}

var _ ScriptPathUnlocker = (*TaprootOperator)(nil)
