package ordinals

import (
	"github.com/TEENet-io/ordinals-go/btcman/network"
)

const (
	DefaultOrdinalFeeRate    = 10 // sat/vB
	DefaultCollectionFeeRate = 5

	KindOrdinal    = "ordinal"
	KindCollection = "collection"
)

// Attribute is one NFT trait. Value is a string or a number.
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// OrdinalRequest carries everything needed to inscribe one ordinal.
// PrivateKey is a WIF and is only held in memory for signing.
type OrdinalRequest struct {
	BitcoinAddress string      `json:"bitcoinAddress"`
	PrivateKey     string      `json:"privateKey"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Attributes     []Attribute `json:"attributes"`
	Image          string      `json:"image"` // data:<mime>;base64,<payload>
	CollectionID   string      `json:"collectionId,omitempty"`
	FeeRate        int64       `json:"feeRate"`
	UseTestnet     bool        `json:"useTestnet"`

	// Network, when set, wins over UseTestnet. Regtest is only reachable this way.
	Network *network.Network `json:"-"`
}

type CollectionRequest struct {
	BitcoinAddress string `json:"bitcoinAddress"`
	PrivateKey     string `json:"privateKey"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Symbol         string `json:"symbol"`
	Image          string `json:"image"`
	FeeRate        int64  `json:"feeRate"`
	UseTestnet     bool   `json:"useTestnet"`

	Network *network.Network `json:"-"`
}

func requestNetwork(explicit *network.Network, useTestnet bool) network.Network {
	if explicit != nil {
		return *explicit
	}
	return network.FromTestnetFlag(useTestnet)
}

// OrdinalMetadata is the json document inscribed next to the image.
type OrdinalMetadata struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Attributes   []Attribute `json:"attributes"`
	CollectionID string      `json:"collectionId,omitempty"`
	Network      string      `json:"network"`
}

type CollectionMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Symbol      string `json:"symbol"`
	Type        string `json:"type"` // always "collection"
	Network     string `json:"network"`
}

// CreationResult describes a broadcast inscription.
type CreationResult struct {
	Txid              string          `json:"txid"` // reveal tx
	CommitTxid        string          `json:"commitTxid"`
	InscriptionID     string          `json:"inscriptionId"`
	BlockHeight       *int64          `json:"blockHeight,omitempty"`
	HeightApproximate bool            `json:"heightApproximate,omitempty"`
	Fees              int64           `json:"fees"` // satoshi
	Size              int             `json:"size"` // bytes, both txs
	VirtualSize       int64           `json:"vsize"`
	Network           network.Network `json:"-"`
}
