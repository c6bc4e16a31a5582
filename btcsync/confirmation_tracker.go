/*
Package btcsync follows broadcast inscriptions on the BTC blockchain and
publishes their status changes to observers.
*/
package btcsync

/*
The confirmation tracker is a type of publisher.
Each round it asks the node about every record that is not finalized yet:
1) pending, handed to the node but not seen since
2) mempool, known to the node, not mined
3) confirmed, mined in a main chain block
4) reorged, was confirmed but its block left the main chain

Once a status changes, the record is updated and observers are notified.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/btcman/network"
	"github.com/TEENet-io/ordinals-go/btcman/rpc"
	"github.com/TEENet-io/ordinals-go/metrics"
	"github.com/TEENet-io/ordinals-go/store"
)

const (
	CONSIDER_FINALIZED = rpc.CONFIRM_SAFE // confirmations after which a record is final
	SCAN_INTERVAL      = 30 * time.Second // then we poll again
)

// Observation is what the node said about a tx.
type Observation struct {
	Found         bool
	InMempool     bool
	BlockHash     string
	BlockHeight   int64
	Confirmations int64 // <= 0 when the block is not on the main chain
}

func observationOf(status *rpc.TxStatus) Observation {
	return Observation{
		Found:         true,
		InMempool:     status.InMempool,
		BlockHash:     status.BlockHash,
		BlockHeight:   status.BlockHeight,
		Confirmations: status.Confirmations,
	}
}

// NextStatus is the transition function of a tracked record.
func NextStatus(cur store.Status, obs Observation) store.Status {
	if cur == store.StatusFinalized {
		return cur
	}
	mined := obs.Found && !obs.InMempool && obs.BlockHash != ""

	switch {
	case mined && obs.Confirmations >= CONSIDER_FINALIZED:
		return store.StatusFinalized
	case mined && obs.Confirmations > 0:
		return store.StatusConfirmed
	}

	// not in a main chain block
	if cur == store.StatusConfirmed {
		return store.StatusReorged
	}
	if obs.Found && obs.InMempool {
		return store.StatusMempool
	}
	return cur
}

type ConfirmationTracker struct {
	Store     store.Store
	Nodes     map[network.Network]rpc.NodeClient
	Publisher *PublisherService
	Interval  time.Duration
}

func NewConfirmationTracker(st store.Store, nodes map[network.Network]rpc.NodeClient, interval time.Duration) *ConfirmationTracker {
	if interval <= 0 {
		interval = SCAN_INTERVAL
	}
	return &ConfirmationTracker{
		Store:     st,
		Nodes:     nodes,
		Publisher: NewPublisherService(),
		Interval:  interval,
	}
}

// Poll represents a single round of status checks.
// A record whose node fails is skipped until the next round.
func (m *ConfirmationTracker) Poll(ctx context.Context) error {
	tracked, err := m.Store.ListTracked(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked records: %v", err)
	}

	counts := map[store.Status]int{}
	for _, tx := range tracked {
		next, err := m.check(ctx, tx)
		if err != nil {
			logger.WithFields(logger.Fields{
				"kind": tx.Kind,
				"id":   tx.ID,
				"txid": tx.Txid,
			}).Warnf("failed to check tx status: %v", err)
			next = tx.Status
		}
		counts[next]++
	}

	for _, s := range []store.Status{store.StatusPending, store.StatusMempool, store.StatusConfirmed, store.StatusReorged} {
		metrics.TrackedTxs.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	return nil
}

func (m *ConfirmationTracker) check(ctx context.Context, tx *store.TrackedTx) (store.Status, error) {
	net, err := network.Parse(tx.Network)
	if err != nil {
		return tx.Status, err
	}
	node, ok := m.Nodes[net]
	if !ok {
		return tx.Status, fmt.Errorf("no node client for %s", net)
	}

	var obs Observation
	status, err := node.GetTxStatus(ctx, tx.Txid)
	switch {
	case errors.Is(err, rpc.ErrTxNotFound):
	case err != nil:
		return tx.Status, err
	default:
		obs = observationOf(status)
	}

	next := NextStatus(tx.Status, obs)
	update := store.StatusUpdate{Status: next}
	if next == store.StatusConfirmed || next == store.StatusFinalized {
		height := obs.BlockHeight
		update.BlockHeight = &height
		update.BlockHash = obs.BlockHash
	}
	if next == tx.Status && update.BlockHash == tx.BlockHash {
		return next, nil
	}

	if err := m.Store.UpdateStatus(ctx, tx.Kind, tx.ID, update); err != nil {
		return tx.Status, err
	}
	m.Publisher.NotifyStatus(StatusChange{
		Kind:        tx.Kind,
		ID:          tx.ID,
		Txid:        tx.Txid,
		Network:     tx.Network,
		From:        tx.Status,
		To:          next,
		BlockHeight: update.BlockHeight,
		BlockHash:   update.BlockHash,
	})
	return next, nil
}

// Loop polls until ctx is done, then closes the publisher.
func (m *ConfirmationTracker) Loop(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	defer m.Publisher.Close()
	for {
		if err := m.Poll(ctx); err != nil {
			logger.Warnf("ConfirmationTracker Poll error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
