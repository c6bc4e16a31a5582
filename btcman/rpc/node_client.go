/*
Package rpc talks to a bitcoin full node.

NodeClient is what the rest of the program depends on. RpcClient is the
bitcoin core implementation, MockNodeClient serves fixture data for
development without a node, and FallbackNodeClient chains the two.
*/
package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

var (
	// The node could not be reached, refused the credentials or timed out.
	ErrNodeUnavailable = errors.New("bitcoin node unavailable")
	ErrTxNotFound      = errors.New("transaction not found")
)

// RPCError is an error answered by the node itself.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// Default sat/vB per tier, used when the node has no estimate.
const (
	DefaultFastestFee  = 25
	DefaultHalfHourFee = 15
	DefaultHourFee     = 10
	DefaultEconomyFee  = 5
	DefaultMinimumFee  = 1
)

// Confirmation targets, in blocks, per tier.
const (
	FastestTarget  = 1
	HalfHourTarget = 3
	HourTarget     = 6
	EconomyTarget  = 24
)

// FeeEstimates in sat/vB.
type FeeEstimates struct {
	FastestFee  int64 `json:"fastestFee"`
	HalfHourFee int64 `json:"halfHourFee"`
	HourFee     int64 `json:"hourFee"`
	EconomyFee  int64 `json:"economyFee"`
	MinimumFee  int64 `json:"minimumFee"`
}

func DefaultFeeEstimates() FeeEstimates {
	return FeeEstimates{
		FastestFee:  DefaultFastestFee,
		HalfHourFee: DefaultHalfHourFee,
		HourFee:     DefaultHourFee,
		EconomyFee:  DefaultEconomyFee,
		MinimumFee:  DefaultMinimumFee,
	}
}

// BlockHeight of the chain tip. Approximate is set when it was estimated
// from the genesis time instead of asked from the node.
type BlockHeight struct {
	Height      int64 `json:"height"`
	Approximate bool  `json:"approximate"`
}

// TxStatus is what the node knows about a tx.
type TxStatus struct {
	Txid          string
	InMempool     bool   // known but not mined
	BlockHash     string // empty if not mined
	BlockHeight   int64
	Confirmations int64 // -1 if BlockHash is no longer on the main chain
}

// ChainInfo is a subset of getblockchaininfo plus the node version.
type ChainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	Difficulty           float64 `json:"difficulty"`
	MedianTime           int64   `json:"mediantime"`
	VerificationProgress float64 `json:"verificationprogress"`
	Version              int64   `json:"version"`
}

type NodeClient interface {
	// CheckConnection never fails, it reports false instead.
	CheckConnection(ctx context.Context) bool
	// GetUtxos lists the unspent outputs paying address.
	GetUtxos(ctx context.Context, address string) ([]*utxo.UTXO, error)
	// Broadcast submits a raw tx hex and returns its txid.
	Broadcast(ctx context.Context, txHex string) (string, error)
	// GetHeight never fails, see BlockHeight.Approximate.
	GetHeight(ctx context.Context) BlockHeight
	// GetFeeEstimates never fails, missing tiers get defaults.
	GetFeeEstimates(ctx context.Context) FeeEstimates
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)
	GetBlockchainInfo(ctx context.Context) (*ChainInfo, error)
}

// EndpointOf describes where node lives, for display.
func EndpointOf(node NodeClient) string {
	if e, ok := node.(interface{ Endpoint() string }); ok {
		return e.Endpoint()
	}
	return "unknown"
}
