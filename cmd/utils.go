package cmd

import (
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	btcrpc "github.com/TEENet-io/ordinals-go/btcman/rpc"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// SetupNodeClient creates the node client of one network.
// With AllowMockFallback the rpc client is backed by fixture data,
// and a config the rpc client refuses leaves the fixture alone.
// The returned RpcClient, if any, must be closed by the caller.
func SetupNodeClient(osc *OrdinalsServerConfig, net network.Network, port string) (btcrpc.NodeClient, *btcrpc.RpcClient, error) {
	r, err := btcrpc.NewRpcClient(&btcrpc.RpcClientConfig{
		ServerAddr: osc.BtcRpcHost,
		Port:       port,
		Username:   osc.BtcRpcUsername,
		Pwd:        osc.BtcRpcPwd,
		Timeout:    osc.BtcRpcTimeout,
		Network:    net,
	})
	fields := logger.Fields{"network": net.String(), "host": osc.BtcRpcHost}
	if err != nil {
		if !osc.AllowMockFallback {
			return nil, nil, err
		}
		logger.WithFields(fields).Warnf("failed to create btc rpc client, serving fixture data: %v", err)
		return btcrpc.NewMockNodeClient(net), nil, nil
	}
	if osc.AllowMockFallback {
		logger.WithFields(fields).Info("Mock fallback enabled for btc rpc client")
		return btcrpc.NewFallbackNodeClient(r, btcrpc.NewMockNodeClient(net)), r, nil
	}
	return r, r, nil
}
