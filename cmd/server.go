// Server = node clients per network + record store + inscription service
// + confirmation tracker + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	btcrpc "github.com/TEENet-io/ordinals-go/btcman/rpc"
	"github.com/TEENet-io/ordinals-go/btcsync"
	"github.com/TEENet-io/ordinals-go/ordinals"
	"github.com/TEENet-io/ordinals-go/reporter"
	"github.com/TEENet-io/ordinals-go/store"
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type OrdinalsServerConfig struct {
	// btc side
	BtcRpcHost        string        // bitcoin core host
	BtcRpcPort        string        // mainnet (or regtest) rpc port, network default if empty
	BtcRpcTestnetPort string        // testnet rpc port, network default if empty
	BtcRpcUsername    string        // rpc user
	BtcRpcPwd         string        // rpc password
	BtcRpcTimeout     time.Duration // per call
	AllowMockFallback bool          // serve fixture utxos when the node is unreachable
	DefaultNetwork    string        // mainnet, testnet or regtest

	// state side
	DbFilePath      string        // empty for in-memory
	TrackerInterval time.Duration // confirmation polling

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 3000
}

// OrdinalsServer holds the objects that consist of the ordinals server.
type OrdinalsServer struct {
	DefaultNetwork network.Network
	Nodes          map[network.Network]btcrpc.NodeClient
	Store          *store.SQLiteStore
	Service        *ordinals.Service
	Tracker        *btcsync.ConfirmationTracker
	LogObserver    *btcsync.LogObserver
	Reporter       *reporter.HttpReporter

	rpcClients []*btcrpc.RpcClient
}

// NewOrdinalsServer creates all the components without starting them.
func NewOrdinalsServer(osc *OrdinalsServerConfig) (*OrdinalsServer, error) {
	defaultNet := network.Mainnet
	if osc.DefaultNetwork != "" {
		var err error
		if defaultNet, err = network.Parse(osc.DefaultNetwork); err != nil {
			return nil, err
		}
	}

	server := &OrdinalsServer{
		DefaultNetwork: defaultNet,
		Nodes:          make(map[network.Network]btcrpc.NodeClient),
	}

	// mainnet and testnet are always served, regtest only on request.
	nets := []network.Network{network.Mainnet, network.Testnet}
	if defaultNet == network.Regtest {
		nets = []network.Network{network.Regtest}
	}
	for _, net := range nets {
		port := osc.BtcRpcPort
		if net == network.Testnet {
			port = osc.BtcRpcTestnetPort
		}
		node, rpcClient, err := SetupNodeClient(osc, net, port)
		if err != nil {
			server.Close()
			return nil, err
		}
		if rpcClient != nil {
			server.rpcClients = append(server.rpcClients, rpcClient)
		}
		server.Nodes[net] = node
	}

	st, err := store.NewSQLiteStore(osc.DbFilePath)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("cannot create record store: %w", err)
	}
	server.Store = st

	server.Service = ordinals.NewService(server.Nodes)
	server.Tracker = btcsync.NewConfirmationTracker(st, server.Nodes, osc.TrackerInterval)
	server.LogObserver = btcsync.NewLogObserver(server.Tracker.Publisher)
	server.Reporter = reporter.NewHttpReporter(osc.HttpIp, osc.HttpPort, server.Service, st)
	return server, nil
}

// Start turns on the tracker, the observer and the http server.
// wg is released when all of them have returned after ctx is done.
func (s *OrdinalsServer) Start(ctx context.Context, wg *sync.WaitGroup) {
	network.SetDefault(s.DefaultNetwork)

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer s.Tracker.Publisher.Close()
		s.LogObserver.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.Tracker.Loop(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := s.Reporter.Run(ctx); err != nil {
			logger.Errorf("http reporter stopped: %v", err)
		}
	}()
}

func (s *OrdinalsServer) Close() {
	for _, c := range s.rpcClients {
		c.Close()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			logger.Warnf("failed to close record store: %v", err)
		}
	}
}

// Create, then start the ordinals server and wait.
// Press Ctrl-C to kill the server.
func StartOrdinalsServerAndWait(osc *OrdinalsServerConfig) error {
	server, err := NewOrdinalsServer(osc)
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Info("Shutting down ordinals server")
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	server.Start(ctx, &wg)
	logger.WithFields(logger.Fields{
		"address": server.Reporter.Address(),
		"network": server.DefaultNetwork.String(),
	}).Info("Ordinals server started")

	wg.Wait()
	return nil
}
