package btcsync

/*
Observers got notified once a tracked inscription changes status.
*/

import (
	"github.com/TEENet-io/ordinals-go/store"
)

// StatusChange is published for every transition the tracker records.
type StatusChange struct {
	Kind        string // ordinal or collection
	ID          string // record id
	Txid        string // reveal tx
	Network     string
	From        store.Status
	To          store.Status
	BlockHeight *int64
	BlockHash   string
}

// Observer on status changes
type StatusObserver interface {
	GetNotifiedStatus(change StatusChange)
}
