package btcsync

import (
	"context"
	"testing"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/TEENet-io/ordinals-go/store"
)

func TestLogObserver(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	p := NewPublisherService()
	o := NewLogObserver(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	height := int64(7)
	p.NotifyStatus(StatusChange{ID: "a", From: store.StatusMempool, To: store.StatusConfirmed, BlockHeight: &height})
	p.NotifyStatus(StatusChange{ID: "a", From: store.StatusConfirmed, To: store.StatusReorged})

	assert.Eventually(t, func() bool { return len(hook.AllEntries()) >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	entries := hook.AllEntries()
	assert.Equal(t, logger.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(7), entries[0].Data["blockHeight"])
	assert.Equal(t, logger.WarnLevel, entries[1].Level)
}
