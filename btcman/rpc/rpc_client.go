package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	logger "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	btcutils "github.com/TEENet-io/ordinals-go/btcman/utils"
	"github.com/TEENet-io/ordinals-go/btcman/utxo"
)

const (
	CONFIRM_SAFE   = 6 // minimum confirm threshold to consider Tx is finalized.
	DefaultTimeout = 30 * time.Second
)

type RpcClientConfig struct {
	ServerAddr string // ip address of server
	Port       string // port of server, network default if empty
	Username   string
	Pwd        string
	UseTLS     bool
	Timeout    time.Duration // per call, DefaultTimeout if 0
	Network    network.Network
}

// Wrapper of btc rpc client.
type RpcClient struct {
	ServerAddr string
	Port       string
	Network    network.Network
	timeout    time.Duration
	client     *rpcclient.Client
	now        func() time.Time
}

var _ NodeClient = (*RpcClient)(nil)

// Create a new RPC client which
// contains several useful functions
// to interact with bitcoin node.
// No connection is made until the first call.
func NewRpcClient(rcc *RpcClientConfig) (*RpcClient, error) {
	port := rcc.Port
	if port == "" {
		port = rcc.Network.DefaultRPCPort()
	}
	timeout := rcc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         rcc.ServerAddr + ":" + port,
		User:         rcc.Username,
		Pass:         rcc.Pwd,
		HTTPPostMode: true, // original bitcoin only supports HTTP POST mode
		DisableTLS:   !rcc.UseTLS,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &RpcClient{
		ServerAddr: rcc.ServerAddr,
		Port:       port,
		Network:    rcc.Network,
		timeout:    timeout,
		client:     client,
		now:        time.Now,
	}, nil
}

// Close the rpc client
func (r *RpcClient) Close() {
	r.client.Shutdown()
}

// Endpoint is host:port of the node.
func (r *RpcClient) Endpoint() string {
	return r.ServerAddr + ":" + r.Port
}

// call runs fn bounded by ctx and the client timeout.
// rpcclient itself retries connection errors for a long time,
// so the deadline is enforced here.
func (r *RpcClient) call(ctx context.Context, method string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrNodeUnavailable, method, ctx.Err())
	case err := <-done:
		return classify(method, err)
	}
}

func (r *RpcClient) rawRequest(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	rawParams := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		rawParams = append(rawParams, b)
	}
	var result json.RawMessage
	err := r.call(ctx, method, func() error {
		var err error
		result, err = r.client.RawRequest(method, rawParams)
		return err
	})
	return result, err
}

// classify sorts errors into node answers and transport failures.
func classify(method string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return &RPCError{Method: method, Code: int(rpcErr.Code), Message: rpcErr.Message}
	}
	return fmt.Errorf("%w: %s: %v", ErrNodeUnavailable, method, err)
}

// CheckConnection issues getblockchaininfo.
func (r *RpcClient) CheckConnection(ctx context.Context) bool {
	_, err := r.rawRequest(ctx, "getblockchaininfo")
	if err != nil {
		logger.WithFields(logger.Fields{
			"node":    r.Endpoint(),
			"network": r.Network.String(),
		}).Debugf("node connection check failed: %v", err)
		return false
	}
	return true
}

func (r *RpcClient) GetBlockchainInfo(ctx context.Context) (*ChainInfo, error) {
	raw, err := r.rawRequest(ctx, "getblockchaininfo")
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(raw)
	info := &ChainInfo{
		Chain:                res.Get("chain").String(),
		Blocks:               res.Get("blocks").Int(),
		Headers:              res.Get("headers").Int(),
		BestBlockHash:        res.Get("bestblockhash").String(),
		Difficulty:           res.Get("difficulty").Float(),
		MedianTime:           res.Get("mediantime").Int(),
		VerificationProgress: res.Get("verificationprogress").Float(),
	}
	// version lives in getnetworkinfo, not worth failing for.
	if netRaw, err := r.rawRequest(ctx, "getnetworkinfo"); err == nil {
		info.Version = gjson.GetBytes(netRaw, "version").Int()
	}
	return info, nil
}

// Get the UTXO(s) of an address with scantxoutset.
// Works without a wallet and without -txindex, but scans the whole UTXO set.
func (r *RpcClient) GetUtxos(ctx context.Context, address string) ([]*utxo.UTXO, error) {
	descriptor := fmt.Sprintf("addr(%s)", address)
	raw, err := r.rawRequest(ctx, "scantxoutset", "start", []string{descriptor})
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(raw)
	if !res.Get("success").Bool() {
		return nil, &RPCError{Method: "scantxoutset", Code: -1, Message: "scan did not complete"}
	}

	var utxos []*utxo.UTXO
	for _, item := range res.Get("unspents").Array() {
		pkScript, err := hex.DecodeString(item.Get("scriptPubKey").String())
		if err != nil {
			return nil, fmt.Errorf("scantxoutset: bad scriptPubKey: %w", err)
		}
		u, err := utxo.NewUTXO(
			item.Get("txid").String(),
			uint32(item.Get("vout").Uint()),
			btcutils.BtcToSatoshi(item.Get("amount").Float()),
			pkScript,
		)
		if err != nil {
			return nil, fmt.Errorf("scantxoutset: %w", err)
		}
		u.Height = item.Get("height").Int()
		logger.WithFields(logger.Fields{
			"utxo":   u.String(),
			"btc":    u.AmountHuman(),
			"height": u.Height,
		}).Trace("Found utxo")
		utxos = append(utxos, u)
	}

	total := btcutils.BtcToSatoshi(res.Get("total_amount").Float())
	logger.WithFields(logger.Fields{
		"address":  address,
		"count":    len(utxos),
		"total":    total,
		"totalBtc": btcutils.SatoshiToBtc(total),
	}).Debug("Scanned utxos")
	return utxos, nil
}

// Send raw transaction to bitcoin network.
func (r *RpcClient) Broadcast(ctx context.Context, txHex string) (string, error) {
	raw, err := r.rawRequest(ctx, "sendrawtransaction", txHex)
	if err != nil {
		return "", err
	}
	var txid string
	if err := json.Unmarshal(raw, &txid); err != nil {
		return "", fmt.Errorf("sendrawtransaction: unexpected result %s", string(raw))
	}
	return txid, nil
}

// Get the latest block height, estimated if the node can't tell.
func (r *RpcClient) GetHeight(ctx context.Context) BlockHeight {
	var height int64
	err := r.call(ctx, "getblockcount", func() error {
		var err error
		height, err = r.client.GetBlockCount()
		return err
	})
	if err != nil {
		estimate := r.Network.EstimateHeight(r.now())
		logger.WithField("estimate", estimate).Warnf("cannot get block height, estimating: %v", err)
		return BlockHeight{Height: estimate, Approximate: true}
	}
	return BlockHeight{Height: height}
}

// GetFeeEstimates asks estimatesmartfee for every tier concurrently.
func (r *RpcClient) GetFeeEstimates(ctx context.Context) FeeEstimates {
	fees := DefaultFeeEstimates()
	tiers := []struct {
		target int64
		dst    *int64
	}{
		{FastestTarget, &fees.FastestFee},
		{HalfHourTarget, &fees.HalfHourFee},
		{HourTarget, &fees.HourFee},
		{EconomyTarget, &fees.EconomyFee},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tier := range tiers {
		tier := tier
		g.Go(func() error {
			rate, err := r.estimateSmartFee(gctx, tier.target)
			if err != nil {
				logger.WithField("target", tier.target).Debugf("fee estimate unavailable, using default: %v", err)
				return nil
			}
			*tier.dst = rate
			return nil
		})
	}
	_ = g.Wait()
	return fees
}

func (r *RpcClient) estimateSmartFee(ctx context.Context, target int64) (int64, error) {
	var result *btcjson.EstimateSmartFeeResult
	err := r.call(ctx, "estimatesmartfee", func() error {
		var err error
		result, err = r.client.EstimateSmartFee(target, nil)
		return err
	})
	if err != nil {
		return 0, err
	}
	if result == nil || result.FeeRate == nil {
		var reasons []string
		if result != nil {
			reasons = result.Errors
		}
		return 0, fmt.Errorf("no estimate for %d blocks: %s", target, strings.Join(reasons, "; "))
	}
	return btcutils.FeeRateToSatPerVByte(*result.FeeRate), nil
}

// GetTxStatus looks the tx up in the mempool and the chain.
// Without -txindex the node forgets mined txs, then output #0 (the carrier
// of a reveal tx) is looked up in the utxo set instead.
func (r *RpcClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	txHash, err := chainhash.NewHashFromStr(btcutils.NormalizeTxID(txid))
	if err != nil {
		return nil, err
	}
	var raw *btcjson.TxRawResult
	err = r.call(ctx, "getrawtransaction", func() error {
		var err error
		raw, err = r.client.GetRawTransactionVerbose(txHash)
		return err
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == int(btcjson.ErrRPCInvalidAddressOrKey) {
			return r.getTxOutStatus(ctx, txHash)
		}
		return nil, err
	}

	status := &TxStatus{Txid: txHash.String()}
	if raw.BlockHash == "" {
		status.InMempool = true
		return status, nil
	}
	status.BlockHash = raw.BlockHash

	blockHash, err := chainhash.NewHashFromStr(raw.BlockHash)
	if err != nil {
		return nil, err
	}
	var header *btcjson.GetBlockHeaderVerboseResult
	err = r.call(ctx, "getblockheader", func() error {
		var err error
		header, err = r.client.GetBlockHeaderVerbose(blockHash)
		return err
	})
	if err != nil {
		return nil, err
	}
	status.BlockHeight = int64(header.Height)
	status.Confirmations = header.Confirmations
	return status, nil
}

// getTxOutStatus derives the status of txHash from gettxout on output #0.
// A spent or unknown output reads as ErrTxNotFound.
func (r *RpcClient) getTxOutStatus(ctx context.Context, txHash *chainhash.Hash) (*TxStatus, error) {
	raw, err := r.rawRequest(ctx, "gettxout", txHash.String(), 0, true)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txHash)
	}

	status := &TxStatus{Txid: txHash.String()}
	confirmations := res.Get("confirmations").Int()
	if confirmations <= 0 {
		status.InMempool = true
		return status, nil
	}

	bestBlock, err := chainhash.NewHashFromStr(res.Get("bestblock").String())
	if err != nil {
		return nil, fmt.Errorf("gettxout: bad bestblock: %w", err)
	}
	var tip *btcjson.GetBlockHeaderVerboseResult
	err = r.call(ctx, "getblockheader", func() error {
		var err error
		tip, err = r.client.GetBlockHeaderVerbose(bestBlock)
		return err
	})
	if err != nil {
		return nil, err
	}
	height := int64(tip.Height) - confirmations + 1
	var blockHash *chainhash.Hash
	err = r.call(ctx, "getblockhash", func() error {
		var err error
		blockHash, err = r.client.GetBlockHash(height)
		return err
	})
	if err != nil {
		return nil, err
	}

	status.BlockHash = blockHash.String()
	status.BlockHeight = height
	status.Confirmations = confirmations
	logger.WithFields(logger.Fields{
		"txid":          txHash.String(),
		"confirmations": confirmations,
	}).Debug("tx status read from the utxo set, the node has no txindex")
	return status, nil
}
