package assembler

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Rough per-part sizes, in bytes, used when only counts are known.
const (
	txOverheadSize   = 10  // version, locktime, in/out counts
	inputBaseSize    = 41  // outpoint, empty script, sequence
	outputSize       = 32  // value, script length, short script
	witnessFlagSize  = 2   // segwit marker and flag
	inputWitnessSize = 108 // signature and key worth of witness
)

// EstimateVirtualSize estimates the vsize of a tx from its input and output counts.
func EstimateVirtualSize(inputs, outputs int, hasWitness bool) int64 {
	base := int64(txOverheadSize + inputBaseSize*inputs + outputSize*outputs)
	var witness int64
	if hasWitness {
		witness = int64(witnessFlagSize + inputWitnessSize*inputs)
	}
	return VirtualSize(base, witness)
}

// VirtualSize is ceil((4*base + witness) / 4).
func VirtualSize(baseSize, witnessSize int64) int64 {
	weight := blockchain.WitnessScaleFactor*baseSize + witnessSize
	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}

// TxVirtualSize measures the vsize of a built tx.
func TxVirtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}

// CalculateFee returns ceil(vsize * feeRate) satoshi. feeRate is sat/vB.
func CalculateFee(vsize int64, feeRate int64) int64 {
	if vsize <= 0 || feeRate <= 0 {
		return 0
	}
	return vsize * feeRate
}
