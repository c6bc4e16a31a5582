/*
Package network names the bitcoin networks an inscription can be built for
and keeps the process-wide default selection.

Callers that build or validate anything pass a Network explicitly.
The Selector only answers "which network when the request did not say".
*/
package network

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
)

type Network int32

const (
	Mainnet Network = iota
	Testnet
	Regtest
)

// average block interval used by height estimation.
const BlockInterval = 10 * time.Minute

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return fmt.Sprintf("network(%d)", int32(n))
	}
}

// Params returns the btcd chain parameters of the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

func (n Network) IsTestnet() bool {
	return n != Mainnet
}

// TaprootPrefix is the human readable start of a P2TR address, eg. bc1p.
func (n Network) TaprootPrefix() string {
	return n.Params().Bech32HRPSegwit + "1p"
}

// AddressPrefixes lists the prefix families an address of this network starts with.
// bech32 prefixes are lower case.
func (n Network) AddressPrefixes() []string {
	switch n {
	case Testnet:
		return []string{"tb1", "m", "n", "2"}
	case Regtest:
		return []string{"bcrt1", "m", "n", "2"}
	default:
		return []string{"bc1", "1", "3"}
	}
}

// DefaultRPCPort of bitcoin core for the network.
func (n Network) DefaultRPCPort() string {
	switch n {
	case Testnet:
		return "18332"
	case Regtest:
		return "18443"
	default:
		return "8332"
	}
}

// EstimateHeight approximates the chain height at time `at`
// from the genesis timestamp and the average block interval.
// The result is NOT derived from the chain.
func (n Network) EstimateHeight(at time.Time) int64 {
	genesis := n.Params().GenesisBlock.Header.Timestamp
	if !at.After(genesis) {
		return 0
	}
	return int64(at.Sub(genesis) / BlockInterval)
}

// FromTestnetFlag maps the boolean network switch used by requests.
func FromTestnetFlag(useTestnet bool) Network {
	if useTestnet {
		return Testnet
	}
	return Mainnet
}

// Resolve maps the testnet flag of a request onto the configured network.
// A testnet flag stays on regtest when regtest is configured.
func Resolve(useTestnet bool, configured Network) Network {
	if !useTestnet {
		return Mainnet
	}
	if configured == Regtest {
		return Regtest
	}
	return Testnet
}

// Parse accepts "mainnet", "testnet" (or "testnet3") and "regtest".
func Parse(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "testnet3", "test":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	}
	return Mainnet, fmt.Errorf("unknown network %q", s)
}

// All networks known to the program.
func All() []Network {
	return []Network{Mainnet, Testnet, Regtest}
}

// Selector holds a network value that can be read and switched concurrently.
type Selector struct {
	v atomic.Int32
}

func NewSelector(n Network) *Selector {
	s := &Selector{}
	s.v.Store(int32(n))
	return s
}

func (s *Selector) Set(n Network) {
	s.v.Store(int32(n))
}

// SetNetwork flips between mainnet and the test network in use.
func (s *Selector) SetNetwork(isTestnet bool) {
	s.Set(Resolve(isTestnet, s.Current()))
}

func (s *Selector) Current() Network {
	return Network(s.v.Load())
}

var defaultSelector = NewSelector(Mainnet)

// SetNetwork switches the process-wide default network.
func SetNetwork(isTestnet bool) {
	defaultSelector.SetNetwork(isTestnet)
}

// SetDefault switches the process-wide default network to n.
func SetDefault(n Network) {
	defaultSelector.Set(n)
}

// CurrentNetwork reads the process-wide default network.
func CurrentNetwork() Network {
	return defaultSelector.Current()
}
