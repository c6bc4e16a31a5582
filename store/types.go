package store

import (
	"errors"
	"time"

	"github.com/TEENet-io/ordinals-go/ordinals"
)

var ErrNotFound = errors.New("record not found")

// Status of the reveal tx of a record.
type Status string

const (
	StatusPending   Status = "pending"   // handed to the node
	StatusMempool   Status = "mempool"   // seen unmined
	StatusConfirmed Status = "confirmed" // mined, not yet final
	StatusFinalized Status = "finalized"
	StatusReorged   Status = "reorged" // was mined, the block left the chain
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusMempool, StatusConfirmed, StatusFinalized, StatusReorged:
		return true
	}
	return false
}

// Inscription is the on-chain half of a record.
type Inscription struct {
	Txid          string    `json:"txid"`
	CommitTxid    string    `json:"commitTxid"`
	InscriptionID string    `json:"inscription"`
	Status        Status    `json:"status"`
	BlockHeight   *int64    `json:"blockHeight,omitempty"`
	BlockHash     string    `json:"blockHash,omitempty"`
	Fees          int64     `json:"fees"`
	Size          int       `json:"size"`
	Network       string    `json:"network"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Ordinal struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	BitcoinAddress string               `json:"bitcoinAddress"`
	CollectionID   string               `json:"collectionId,omitempty"`
	Attributes     []ordinals.Attribute `json:"attributes"`
	Image          string               `json:"image"`
	Inscription
}

type Collection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Symbol         string `json:"symbol"`
	BitcoinAddress string `json:"bitcoinAddress"`
	Image          string `json:"image"`
	Inscription
}

// Empty fields match everything.
type OrdinalFilter struct {
	CollectionID   string
	BitcoinAddress string
}

type CollectionFilter struct {
	BitcoinAddress string
}

// Record kinds, as used by TrackedTx.
const (
	KindOrdinal    = ordinals.KindOrdinal
	KindCollection = ordinals.KindCollection
)

// TrackedTx is a record whose reveal tx is not final yet.
type TrackedTx struct {
	Kind        string
	ID          string
	Txid        string
	Network     string
	Status      Status
	BlockHeight *int64
	BlockHash   string
}

// StatusUpdate is written by the confirmation tracker.
type StatusUpdate struct {
	Status      Status
	BlockHeight *int64
	BlockHash   string
}

// InscriptionFromResult fills the on-chain half from a creation result.
func InscriptionFromResult(res *ordinals.CreationResult) Inscription {
	return Inscription{
		Txid:          res.Txid,
		CommitTxid:    res.CommitTxid,
		InscriptionID: res.InscriptionID,
		Status:        StatusPending,
		Fees:          res.Fees,
		Size:          res.Size,
		Network:       res.Network.String(),
	}
}
