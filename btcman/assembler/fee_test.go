package assembler

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func TestEstimateVirtualSize(t *testing.T) {
	// base 10+41+32*2 = 115, witness 2+108 = 110, (460+110)/4 = 142.5
	assert.Equal(t, int64(143), EstimateVirtualSize(1, 2, true))
	assert.Equal(t, int64(115), EstimateVirtualSize(1, 2, false))

	for in := 0; in < 10; in++ {
		for out := 0; out < 10; out++ {
			v := EstimateVirtualSize(in, out, true)
			assert.GreaterOrEqual(t, EstimateVirtualSize(in+1, out, true), v)
			assert.GreaterOrEqual(t, EstimateVirtualSize(in, out+1, true), v)
			assert.GreaterOrEqual(t, v, EstimateVirtualSize(in, out, false))
		}
	}
}

func TestVirtualSize(t *testing.T) {
	assert.Equal(t, int64(100), VirtualSize(100, 0))
	assert.Equal(t, int64(101), VirtualSize(100, 1))
	assert.Equal(t, int64(101), VirtualSize(100, 4))
	assert.Equal(t, int64(102), VirtualSize(100, 5))
}

func TestCalculateFee(t *testing.T) {
	for v := int64(0); v < 50; v++ {
		for r := int64(0); r < 50; r++ {
			assert.Equal(t, v*r, CalculateFee(v, r))
			assert.GreaterOrEqual(t, CalculateFee(v, r+1), CalculateFee(v, r))
		}
	}
}

func TestTxVirtualSize(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, make([]byte, 34)))
	// no witness: vsize equals the serialized size
	assert.Equal(t, int64(tx.SerializeSize()), TxVirtualSize(tx))

	tx.TxIn[0].Witness = dummyKeyPathWitness()
	stripped := int64(tx.SerializeSizeStripped())
	witness := int64(tx.SerializeSize()) - stripped
	assert.Equal(t, VirtualSize(stripped, witness), TxVirtualSize(tx))
}
