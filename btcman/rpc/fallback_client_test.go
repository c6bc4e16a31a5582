package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// downNode fails every call with err.
type downNode struct {
	MockNodeClient
	err error
}

func (d *downNode) GetUtxos(ctx context.Context, address string) ([]*utxo.UTXO, error) {
	return nil, d.err
}

func (d *downNode) Broadcast(ctx context.Context, txHex string) (string, error) {
	return "", d.err
}

func (d *downNode) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	return nil, d.err
}

func (d *downNode) GetBlockchainInfo(ctx context.Context) (*ChainInfo, error) {
	return nil, d.err
}

func TestFallbackOnUnavailable(t *testing.T) {
	primary := &downNode{err: fmt.Errorf("%w: dial tcp: connection refused", ErrNodeUnavailable)}
	client := NewFallbackNodeClient(primary, NewMockNodeClient(network.Mainnet))
	ctx := context.Background()

	utxos, err := client.GetUtxos(ctx, testAddr)
	require.NoError(t, err)
	assert.Len(t, utxos, len(MockUtxoFixture))

	txHex, err := SerializeTx(sampleTx(t))
	require.NoError(t, err)
	txid, err := client.Broadcast(ctx, txHex)
	require.NoError(t, err)
	assert.Len(t, txid, 64)

	info, err := client.GetBlockchainInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", info.Chain)
}

func TestNoFallbackOnRejection(t *testing.T) {
	primary := &downNode{err: &RPCError{Method: "sendrawtransaction", Code: -26, Message: "dust"}}
	client := NewFallbackNodeClient(primary, NewMockNodeClient(network.Mainnet))

	_, err := client.Broadcast(context.Background(), "00")
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -26, rpcErr.Code)

	_, err = client.GetUtxos(context.Background(), testAddr)
	assert.Error(t, err)
}
