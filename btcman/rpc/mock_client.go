package rpc

import (
	"context"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

// Fixture utxos served by MockNodeClient for any address.
var MockUtxoFixture = []struct {
	TxID   string
	Vout   uint32
	Amount int64
}{
	{"7f1f7a3cf695a8a96dce1df2566f7dc5f5bfbb954ff18e1bbc9595c156693fc5", 0, 50000},
	{"8d23e94b3940af53b2b8e31c1236d439ca42e26914ee890fb1e885bc5ac2c29e", 1, 100000},
}

// MockNodeClient stands in for a node during development.
// Nothing it returns comes from a chain and nothing is ever submitted.
// Never enable it in production.
type MockNodeClient struct {
	Network network.Network
	now     func() time.Time

	mu        sync.Mutex
	broadcast map[string]struct{}
}

var _ NodeClient = (*MockNodeClient)(nil)

func NewMockNodeClient(net network.Network) *MockNodeClient {
	return &MockNodeClient{
		Network:   net,
		now:       time.Now,
		broadcast: make(map[string]struct{}),
	}
}

func (m *MockNodeClient) Endpoint() string {
	return "mock"
}

func (m *MockNodeClient) CheckConnection(ctx context.Context) bool {
	return true
}

// GetUtxos returns the fixture. The locking scripts are unknown.
func (m *MockNodeClient) GetUtxos(ctx context.Context, address string) ([]*utxo.UTXO, error) {
	utxos := make([]*utxo.UTXO, 0, len(MockUtxoFixture))
	for _, f := range MockUtxoFixture {
		u, err := utxo.NewUTXO(f.TxID, f.Vout, f.Amount, nil)
		if err != nil {
			return nil, err
		}
		utxos = append(utxos, u)
	}
	logger.WithFields(logger.Fields{
		"address": address,
		"network": m.Network.String(),
	}).Warn("Serving mock utxos, no node involved")
	return utxos, nil
}

// Broadcast only parses the tx and returns its id.
func (m *MockNodeClient) Broadcast(ctx context.Context, txHex string) (string, error) {
	tx, err := DeserializeTx(txHex)
	if err != nil {
		return "", &RPCError{Method: "sendrawtransaction", Code: -22, Message: err.Error()}
	}
	txid := tx.TxHash().String()

	m.mu.Lock()
	m.broadcast[txid] = struct{}{}
	m.mu.Unlock()

	logger.WithField("txid", txid).Warn("Mock broadcast, tx NOT sent to the network")
	return txid, nil
}

func (m *MockNodeClient) GetHeight(ctx context.Context) BlockHeight {
	return BlockHeight{Height: m.Network.EstimateHeight(m.now()), Approximate: true}
}

func (m *MockNodeClient) GetFeeEstimates(ctx context.Context) FeeEstimates {
	return DefaultFeeEstimates()
}

// GetTxStatus knows the txs it was handed, and only as unmined.
func (m *MockNodeClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	m.mu.Lock()
	_, ok := m.broadcast[txid]
	m.mu.Unlock()
	if !ok {
		return nil, ErrTxNotFound
	}
	return &TxStatus{Txid: txid, InMempool: true}, nil
}

func (m *MockNodeClient) GetBlockchainInfo(ctx context.Context) (*ChainInfo, error) {
	height := m.GetHeight(ctx)
	return &ChainInfo{
		Chain:   m.Network.Params().Name,
		Blocks:  height.Height,
		Headers: height.Height,
	}, nil
}
