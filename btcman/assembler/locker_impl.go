package assembler

/*
This file implements the "Locker" side of a tx.

Locking scripts do not require any knowledge of private keys,
so they are shared by every operator.
*/

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/ordinals-go/btcman/network"
)

// AppendPayToAddress adds an output paying amount satoshi to dst_addr.
func AppendPayToAddress(tx *wire.MsgTx, net network.Network, dst_addr string, amount int64) (*wire.MsgTx, error) {
	txOutScript, err := AddressScript(dst_addr, net)
	if err != nil {
		return nil, err
	}
	return AppendPayToScript(tx, txOutScript, amount), nil
}

// AppendPayToScript adds an output locked by pkScript.
func AppendPayToScript(tx *wire.MsgTx, pkScript []byte, amount int64) *wire.MsgTx {
	tx.AddTxOut(wire.NewTxOut(amount, pkScript))
	return tx
}
