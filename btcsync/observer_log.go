package btcsync

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/ordinals-go/store"
)

// LogObserver writes every status change to the log.
type LogObserver struct {
	Ch chan StatusChange
}

func NewLogObserver(publisher *PublisherService) *LogObserver {
	o := &LogObserver{Ch: make(chan StatusChange, 64)}
	publisher.RegisterStatusObserver(o.Ch)
	return o
}

func (o *LogObserver) GetNotifiedStatus(change StatusChange) {
	fields := logger.Fields{
		"kind":    change.Kind,
		"id":      change.ID,
		"txid":    change.Txid,
		"network": change.Network,
		"from":    change.From,
		"to":      change.To,
	}
	if change.BlockHeight != nil {
		fields["blockHeight"] = *change.BlockHeight
	}
	entry := logger.WithFields(fields)
	if change.To == store.StatusReorged {
		entry.Warn("Inscription tx left the chain")
		return
	}
	entry.Info("Inscription status changed")
}

// Run consumes changes until ctx is done.
func (o *LogObserver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-o.Ch:
			o.GetNotifiedStatus(change)
		}
	}
}
