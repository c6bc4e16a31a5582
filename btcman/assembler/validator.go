package assembler

/*
Address and key checks used before any transaction is built.
None of them panics or returns an error: a bad input is just false.
*/

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/TEENet-io/ordinals-go/btcman/network"
)

// IsValidAddress reports whether address decodes to an output script of net.
func IsValidAddress(address string, net network.Network) bool {
	if address == "" {
		return false
	}
	_, err := AddressScript(address, net)
	return err == nil
}

// IsValidTaprootAddress needs the network's P2TR prefix and a full decode.
func IsValidTaprootAddress(address string, net network.Network) bool {
	if !strings.HasPrefix(strings.ToLower(address), net.TaprootPrefix()) {
		return false
	}
	if !IsValidAddress(address, net) {
		return false
	}
	decoded, err := DecodeAddress(address, net)
	if err != nil {
		return false
	}
	_, ok := decoded.(*btcutil.AddressTaproot)
	return ok
}

// IsAddressMatchingNetwork is a prefix heuristic, independent of decoding.
func IsAddressMatchingNetwork(address string, net network.Network) bool {
	// bech32 is case insensitive, base58 is not.
	lower := strings.ToLower(address)
	for _, prefix := range net.AddressPrefixes() {
		if strings.HasSuffix(prefix, "1") && len(prefix) > 1 {
			if strings.HasPrefix(lower, prefix) {
				return true
			}
			continue
		}
		if strings.HasPrefix(address, prefix) {
			return true
		}
	}
	return false
}

// IsValidAnyNetworkAddress reports whether the address decodes on any known network.
func IsValidAnyNetworkAddress(address string) bool {
	for _, net := range network.All() {
		if IsValidAddress(address, net) {
			return true
		}
	}
	return false
}

// IsValidPrivateKey reports whether wif decodes to a key for net.
func IsValidPrivateKey(wif string, net network.Network) bool {
	if wif == "" {
		return false
	}
	_, err := DecodeWIFForNetwork(wif, net)
	return err == nil
}
