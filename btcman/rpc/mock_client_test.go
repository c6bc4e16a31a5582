package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

func sampleTx(t *testing.T) *wire.MsgTx {
	prev, err := chainhash.NewHashFromStr(testTxid)
	require.NoError(t, err)
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prev, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(10000, []byte{0x51}))
	return tx
}

func TestMockNodeClientUtxos(t *testing.T) {
	mock := NewMockNodeClient(network.Testnet)
	utxos, err := mock.GetUtxos(context.Background(), "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx")
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	assert.Equal(t, "7f1f7a3cf695a8a96dce1df2566f7dc5f5bfbb954ff18e1bbc9595c156693fc5", utxos[0].TxID)
	assert.Equal(t, uint32(0), utxos[0].Vout)
	assert.Equal(t, int64(50000), utxos[0].Amount)
	assert.Equal(t, "8d23e94b3940af53b2b8e31c1236d439ca42e26914ee890fb1e885bc5ac2c29e", utxos[1].TxID)
	assert.Equal(t, uint32(1), utxos[1].Vout)
	assert.Equal(t, int64(100000), utxos[1].Amount)
	assert.Equal(t, int64(150000), utxo.Sum(utxos))
	assert.Nil(t, utxos[0].PkScript)
}

func TestMockNodeClientBroadcast(t *testing.T) {
	mock := NewMockNodeClient(network.Mainnet)
	ctx := context.Background()
	tx := sampleTx(t)
	txHex, err := SerializeTx(tx)
	require.NoError(t, err)

	_, err = mock.GetTxStatus(ctx, tx.TxHash().String())
	assert.True(t, errors.Is(err, ErrTxNotFound))

	txid, err := mock.Broadcast(ctx, txHex)
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash().String(), txid)

	status, err := mock.GetTxStatus(ctx, txid)
	require.NoError(t, err)
	assert.True(t, status.InMempool)

	_, err = mock.Broadcast(ctx, "zz")
	var rpcErr *RPCError
	assert.True(t, errors.As(err, &rpcErr))
}

func TestMockNodeClientChainInfo(t *testing.T) {
	mock := NewMockNodeClient(network.Testnet)
	ctx := context.Background()
	assert.True(t, mock.CheckConnection(ctx))
	assert.True(t, mock.GetHeight(ctx).Approximate)
	assert.Equal(t, DefaultFeeEstimates(), mock.GetFeeEstimates(ctx))

	info, err := mock.GetBlockchainInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "testnet3", info.Chain)
	assert.Greater(t, info.Blocks, int64(0))
}

func TestSerializeTxRoundTrip(t *testing.T) {
	tx := sampleTx(t)
	txHex, err := SerializeTx(tx)
	require.NoError(t, err)
	back, err := DeserializeTx(txHex)
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash(), back.TxHash())

	_, err = DeserializeTx("0102")
	assert.Error(t, err)
}
