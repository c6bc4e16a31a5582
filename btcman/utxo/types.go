/*
This file contains the UTXO representation shared by the node client
and the inscription assembler.
*/
package utxo

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/ordinals-go/btcman/utils"
)

// Represents the unspent transaction output (UTXO)
// in our program
type UTXO struct {
	TxID     string          // Identifier, human readable
	TxHash   *chainhash.Hash // Identifier, used for tx building
	Vout     uint32          // exact index of the Tx's outputs to be spent
	Amount   int64           // in satoshi
	PkScript []byte          // Locking Script itself, may be empty if the source didn't report it
	Height   int64           // block height the output was mined at, 0 if unknown
}

// NewUTXO parses the hex txid and builds a UTXO.
func NewUTXO(txID string, vout uint32, amount int64, pkScript []byte) (*UTXO, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative utxo amount %d for %s:%d", amount, txID, vout)
	}
	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, fmt.Errorf("invalid utxo txid %q: %w", txID, err)
	}
	return &UTXO{
		TxID:     txID,
		TxHash:   hash,
		Vout:     vout,
		Amount:   amount,
		PkScript: pkScript,
	}, nil
}

// OutPoint referenced by an input spending this UTXO.
func (u *UTXO) OutPoint() *wire.OutPoint {
	return wire.NewOutPoint(u.TxHash, u.Vout)
}

// Return a human-readable amount in BTC
// eg. 1e8 (satoshi) = 1.0 (BTC)
func (u *UTXO) AmountHuman() float64 {
	return utils.SatoshiToBtc(u.Amount)
}

func (u *UTXO) String() string {
	return fmt.Sprintf("%s:%d(%d)", u.TxID, u.Vout, u.Amount)
}
