package goble

import (
	"context"
	"sync/atomic"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/ringchan"
)

// outbox queues notifications for one subscribed central and pumps them into
// its go-ble notifier.
type outbox struct {
	central  Central
	ring     *ringchan.RingChannel[[]byte]
	rejected atomic.Bool
	wake     chan struct{}
	logger   *logrus.Entry
}

func newOutbox(central Central, depth int, logger *logrus.Entry) *outbox {
	if depth <= 0 {
		depth = DefaultNotifyQueueDepth
	}
	return &outbox{
		central: central,
		ring:    ringchan.New[[]byte](depth),
		wake:    make(chan struct{}, 1),
		logger:  logger,
	}
}

// offer queues data without blocking. A full outbox rejects and remembers it so
// the pump reports readiness once drained.
func (o *outbox) offer(data []byte) bool {
	if o.ring.TrySend(data) {
		return true
	}
	o.rejected.Store(true)
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return false
}

// pump writes queued notifications until ctx is done or a write fails.
// ready is called, outside any lock, each time the outbox drains after a rejection.
func (o *outbox) pump(ctx context.Context, n ble.Notifier, ready func()) {
	defer func() {
		o.ring.Close()
		m := o.ring.GetMetrics()
		o.logger.WithFields(logrus.Fields{
			"depth":    o.ring.Cap(),
			"queued":   m.Written,
			"rejected": m.Rejected,
		}).Debug("Notification outbox closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		case data, ok := <-o.ring.C():
			if !ok {
				return
			}
			if _, err := n.Write(data); err != nil {
				o.logger.WithError(err).Warn("Notification write failed, dropping subscription")
				return
			}
		}

		if o.ring.Len() == 0 && o.rejected.CompareAndSwap(true, false) {
			ready()
		}
	}
}
