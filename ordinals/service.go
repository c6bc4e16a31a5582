/*
Package ordinals turns ordinal and collection requests into broadcast
inscriptions.

A request is validated against the network it names, funded from the
sender's UTXOs, built into a commit/reveal pair by the assembler and handed
to the node. Confirmation is tracked elsewhere.
*/
package ordinals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/assembler"
	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/rpc"
	"github.com/TEENet-io/ordinals-go/metrics"
)

var ErrNoNodeClient = errors.New("no node client configured for network")

type Service struct {
	nodes        map[network.Network]rpc.NodeClient
	CarrierValue int64 // satoshi, assembler default if 0
}

func NewService(nodes map[network.Network]rpc.NodeClient) *Service {
	return &Service{nodes: nodes}
}

// NodeClient returns the node used for net.
func (s *Service) NodeClient(net network.Network) (rpc.NodeClient, error) {
	node, ok := s.nodes[net]
	if !ok || node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoNodeClient, net)
	}
	return node, nil
}

// inscription is the part common to ordinals and collections.
type inscription struct {
	kind       string
	net        network.Network
	address    string
	privateKey string
	image      string
	feeRate    int64
	metadata   interface{}
}

func (s *Service) CreateOrdinal(ctx context.Context, req *OrdinalRequest) (*CreationResult, error) {
	if req == nil {
		return nil, newError(CodeInvalidParameters, nil, "empty request")
	}
	net := requestNetwork(req.Network, req.UseTestnet)
	attributes := req.Attributes
	if attributes == nil {
		attributes = []Attribute{}
	}
	return s.create(ctx, &inscription{
		kind:       KindOrdinal,
		net:        net,
		address:    req.BitcoinAddress,
		privateKey: req.PrivateKey,
		image:      req.Image,
		feeRate:    req.FeeRate,
		metadata: &OrdinalMetadata{
			Name:         req.Name,
			Description:  req.Description,
			Attributes:   attributes,
			CollectionID: req.CollectionID,
			Network:      net.String(),
		},
	})
}

func (s *Service) CreateCollection(ctx context.Context, req *CollectionRequest) (*CreationResult, error) {
	if req == nil {
		return nil, newError(CodeInvalidParameters, nil, "empty request")
	}
	net := requestNetwork(req.Network, req.UseTestnet)
	return s.create(ctx, &inscription{
		kind:       KindCollection,
		net:        net,
		address:    req.BitcoinAddress,
		privateKey: req.PrivateKey,
		image:      req.Image,
		feeRate:    req.FeeRate,
		metadata: &CollectionMetadata{
			Name:        req.Name,
			Description: req.Description,
			Symbol:      req.Symbol,
			Type:        KindCollection,
			Network:     net.String(),
		},
	})
}

func (s *Service) create(ctx context.Context, ins *inscription) (*CreationResult, error) {
	res, err := s.inscribe(ctx, ins)
	if err != nil {
		code := CodeOf(err)
		metrics.ObserveInscription(ins.kind, ins.net.String(), string(code), 0)
		logger.WithFields(logger.Fields{
			"kind":    ins.kind,
			"network": ins.net.String(),
			"address": ins.address,
			"code":    code,
		}).Warnf("inscription failed: %v", err)
		return nil, err
	}
	metrics.ObserveInscription(ins.kind, ins.net.String(), metrics.ResultOK, res.Fees)
	return res, nil
}

func (s *Service) inscribe(ctx context.Context, ins *inscription) (*CreationResult, error) {
	net := ins.net

	// Checks run in order, the first failure wins.
	if ins.feeRate < 1 {
		return nil, newError(CodeInvalidFeeRate, nil, "fee rate must be an integer >= 1 sat/vB, got %d", ins.feeRate)
	}
	if !assembler.IsValidAnyNetworkAddress(ins.address) {
		return nil, newError(CodeInvalidAddress, nil, "invalid bitcoin address %q", ins.address)
	}
	if !assembler.IsAddressMatchingNetwork(ins.address, net) || !assembler.IsValidAddress(ins.address, net) {
		return nil, newError(CodeNetworkMismatch, nil, "address %q is not a %s address", ins.address, net)
	}
	if !assembler.IsValidPrivateKey(ins.privateKey, net) {
		return nil, newError(CodeInvalidPrivateKey, nil, "invalid private key for %s", net)
	}
	image, err := assembler.ParseDataURL(ins.image)
	if err != nil {
		return nil, newError(CodeInvalidDataURL, err, "invalid image")
	}
	if len(image.MimeType) > assembler.MaxContentTypeLen {
		return nil, newError(CodeContentTypeTooLong, nil, "content type is %d bytes, max %d", len(image.MimeType), assembler.MaxContentTypeLen)
	}
	if !image.MimeMatches() {
		logger.WithFields(logger.Fields{
			"declared": image.MimeType,
			"detected": image.Detected,
		}).Warn("image content does not look like its declared type")
	}

	op, err := assembler.NewTaprootOperator(ins.privateKey, net)
	if err != nil {
		// err never carries the key
		return nil, newError(CodeInvalidPrivateKey, nil, "invalid private key for %s", net)
	}

	node, err := s.NodeClient(net)
	if err != nil {
		return nil, newError(CodeNodeUnavailable, err, "no bitcoin node")
	}

	utxos, err := node.GetUtxos(ctx, ins.address)
	if err != nil {
		return nil, nodeError(err, "cannot fetch utxos")
	}
	if len(utxos) == 0 {
		return nil, newError(CodeNoUtxos, nil, "no utxos found for %s", ins.address)
	}

	meta, err := json.Marshal(ins.metadata)
	if err != nil {
		return nil, newError(CodeInternalError, err, "cannot encode metadata")
	}

	myAss := assembler.NewAssembler(net, op)
	if s.CarrierValue > 0 {
		myAss.CarrierValue = s.CarrierValue
	}
	txs, err := myAss.MakeInscriptionTxs(&assembler.InscriptionRequest{
		Utxos:         utxos,
		ChangeAddress: ins.address,
		Metadata:      meta,
		ContentType:   image.MimeType,
		Image:         image.Data,
		FeeRate:       ins.feeRate,
	})
	if err != nil {
		var short *assembler.InsufficientFundsError
		switch {
		case errors.As(err, &short):
			return nil, newError(CodeInsufficientFunds, err, "insufficient funds")
		case errors.Is(err, assembler.ErrContentTypeTooLong):
			return nil, newError(CodeContentTypeTooLong, err, "content type too long")
		}
		return nil, newError(CodeInternalError, err, "cannot build inscription")
	}

	commitTxid, err := s.broadcast(ctx, node, net, txs.Commit)
	if err != nil {
		return nil, nodeError(err, "commit tx not accepted")
	}
	revealTxid, err := s.broadcast(ctx, node, net, txs.Reveal)
	if err != nil {
		return nil, nodeError(err, "reveal tx not accepted, commit %s was broadcast", commitTxid)
	}

	res := &CreationResult{
		Txid:          revealTxid,
		CommitTxid:    commitTxid,
		InscriptionID: revealTxid + "i0",
		Fees:          txs.Fees(),
		Size:          txs.Size(),
		VirtualSize:   txs.VirtualSize(),
		Network:       net,
	}
	height := node.GetHeight(ctx)
	if height.Height > 0 {
		res.BlockHeight = &height.Height
		res.HeightApproximate = height.Approximate
	}

	logger.WithFields(logger.Fields{
		"kind":        ins.kind,
		"network":     net.String(),
		"inscription": res.InscriptionID,
		"commit":      commitTxid,
		"fees":        res.Fees,
		"size":        res.Size,
	}).Info("Inscription broadcast")
	return res, nil
}

func (s *Service) broadcast(ctx context.Context, node rpc.NodeClient, net network.Network, tx *wire.MsgTx) (string, error) {
	txHex, err := rpc.SerializeTx(tx)
	if err != nil {
		return "", err
	}
	txid, err := node.Broadcast(ctx, txHex)
	metrics.ObserveBroadcast(net.String(), err)
	return txid, err
}

// nodeError sorts node failures into codes.
func nodeError(err error, format string, args ...interface{}) *Error {
	var rpcErr *rpc.RPCError
	switch {
	case errors.As(err, &rpcErr) && rpcErr.Method == "sendrawtransaction":
		return newError(CodeBroadcastRejected, err, format, args...)
	case errors.As(err, &rpcErr):
		return newError(CodeRPCError, err, format, args...)
	case errors.Is(err, rpc.ErrNodeUnavailable):
		return newError(CodeNodeUnavailable, err, format, args...)
	}
	return newError(CodeInternalError, err, format, args...)
}
