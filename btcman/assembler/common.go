package assembler

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/ordinals-go/btcman/network"
)

// DecodeWIF decodes a string private key to *btcutil.WIF
// The error never echoes the input.
func DecodeWIF(privKeyStr string) (*btcutil.WIF, error) {
	decoded := base58.Decode(privKeyStr)
	if len(decoded) == 0 {
		return nil, errors.New("invalid private key string (cannot pass base58 decode)")
	}

	wif, err := btcutil.DecodeWIF(privKeyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return wif, nil
}

// DecodeWIFForNetwork decodes the WIF and checks its version byte belongs to net.
func DecodeWIFForNetwork(privKeyStr string, net network.Network) (*btcutil.WIF, error) {
	wif, err := DecodeWIF(privKeyStr)
	if err != nil {
		return nil, err
	}
	if !wif.IsForNet(net.Params()) {
		return nil, fmt.Errorf("private key is not for %s", net)
	}
	return wif, nil
}

// DecodeAddress decodes a string address to btcutil.Address
// and rejects addresses of another network.
func DecodeAddress(addressStr string, net network.Network) (btcutil.Address, error) {
	address, err := btcutil.DecodeAddress(addressStr, net.Params())
	if err != nil {
		return nil, err
	}
	if !address.IsForNet(net.Params()) {
		return nil, fmt.Errorf("address %s is not for %s", addressStr, net)
	}
	return address, nil
}

// AddressScript decodes the address and returns its locking script.
func AddressScript(addressStr string, net network.Network) ([]byte, error) {
	address, err := DecodeAddress(addressStr, net)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(address)
}
