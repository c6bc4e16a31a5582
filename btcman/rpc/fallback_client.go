package rpc

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// FallbackNodeClient serves from Primary and turns to Fallback only when
// Primary is unreachable. Answers of the node, rejections included, are final.
type FallbackNodeClient struct {
	Primary  NodeClient
	Fallback NodeClient
}

var _ NodeClient = (*FallbackNodeClient)(nil)

func NewFallbackNodeClient(primary, fallback NodeClient) *FallbackNodeClient {
	return &FallbackNodeClient{Primary: primary, Fallback: fallback}
}

func shouldFallback(method string, err error) bool {
	if !errors.Is(err, ErrNodeUnavailable) {
		return false
	}
	logger.WithField("method", method).Warnf("node unavailable, falling back: %v", err)
	return true
}

// Endpoint names the primary node.
func (f *FallbackNodeClient) Endpoint() string {
	return EndpointOf(f.Primary)
}

func (f *FallbackNodeClient) CheckConnection(ctx context.Context) bool {
	return f.Primary.CheckConnection(ctx)
}

func (f *FallbackNodeClient) GetUtxos(ctx context.Context, address string) ([]*utxo.UTXO, error) {
	utxos, err := f.Primary.GetUtxos(ctx, address)
	if shouldFallback("GetUtxos", err) {
		return f.Fallback.GetUtxos(ctx, address)
	}
	return utxos, err
}

func (f *FallbackNodeClient) Broadcast(ctx context.Context, txHex string) (string, error) {
	txid, err := f.Primary.Broadcast(ctx, txHex)
	if shouldFallback("Broadcast", err) {
		return f.Fallback.Broadcast(ctx, txHex)
	}
	return txid, err
}

func (f *FallbackNodeClient) GetHeight(ctx context.Context) BlockHeight {
	return f.Primary.GetHeight(ctx)
}

func (f *FallbackNodeClient) GetFeeEstimates(ctx context.Context) FeeEstimates {
	return f.Primary.GetFeeEstimates(ctx)
}

func (f *FallbackNodeClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	status, err := f.Primary.GetTxStatus(ctx, txid)
	if shouldFallback("GetTxStatus", err) {
		return f.Fallback.GetTxStatus(ctx, txid)
	}
	return status, err
}

func (f *FallbackNodeClient) GetBlockchainInfo(ctx context.Context) (*ChainInfo, error) {
	info, err := f.Primary.GetBlockchainInfo(ctx)
	if shouldFallback("GetBlockchainInfo", err) {
		return f.Fallback.GetBlockchainInfo(ctx)
	}
	return info, err
}
