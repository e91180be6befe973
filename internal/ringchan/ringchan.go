// Package ringchan provides a bounded channel with overwrite-oldest semantics.
package ringchan

import (
	"sync"
	"sync/atomic"
)

// RingChannel is a bounded channel-like buffer.
//
// It wraps a buffered channel so a single producer never blocks: TrySend reports a
// full buffer, ForceSend discards the oldest element to make room. Consumers read
// C() like any channel and see it closed after Close.
//
//	rc := ringchan.New[[]byte](1)
//	rc.TrySend(a) // true
//	rc.TrySend(b) // false, buffer full
//	rc.ForceSend(b) // a is dropped
//	v := <-rc.C() // b
//
// Producers must be serialized by the caller; sending after Close is a no-op.
type RingChannel[T any] struct {
	ch      chan T
	mu      sync.Mutex
	closed  bool
	metrics Metrics
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side. It is closed by Close.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// TrySend inserts v without blocking.
// Returns false if the buffer is full or the channel is closed.
func (rc *RingChannel[T]) TrySend(v T) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		return false
	}

	select {
	case rc.ch <- v:
		atomic.AddInt64(&rc.metrics.Written, 1)
		return true
	default:
		atomic.AddInt64(&rc.metrics.Rejected, 1)
		return false
	}
}

// ForceSend inserts v, discarding the oldest element if the buffer is full.
// Returns true if an element was discarded.
func (rc *RingChannel[T]) ForceSend(v T) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		return false
	}

	dropped := false
	select {
	case rc.ch <- v:
	default:
		select {
		case <-rc.ch: // drop oldest
			atomic.AddInt64(&rc.metrics.Overwritten, 1)
			dropped = true
		default:
		}
		rc.ch <- v
	}
	atomic.AddInt64(&rc.metrics.Written, 1)
	return dropped
}

// TryReceive attempts a non-blocking receive.
// Returns (zero, false) if nothing is buffered or the channel is closed and drained.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Drain discards everything currently buffered and returns how many elements it removed.
func (rc *RingChannel[T]) Drain() int {
	n := 0
	for {
		if _, ok := rc.TryReceive(); !ok {
			return n
		}
		n++
	}
}

// Len returns the number of buffered elements.
func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

// Cap returns the channel capacity.
func (rc *RingChannel[T]) Cap() int {
	return cap(rc.ch)
}

// Close closes the channel. Safe to call more than once.
func (rc *RingChannel[T]) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		return
	}
	rc.closed = true
	close(rc.ch)
}

// GetMetrics returns a snapshot of the counters.
func (rc *RingChannel[T]) GetMetrics() Metrics {
	return Metrics{
		Written:     atomic.LoadInt64(&rc.metrics.Written),
		Overwritten: atomic.LoadInt64(&rc.metrics.Overwritten),
		Rejected:    atomic.LoadInt64(&rc.metrics.Rejected),
	}
}

// Metrics counts RingChannel traffic. Fields are updated atomically.
type Metrics struct {
	Written     int64 // elements accepted
	Overwritten int64 // elements discarded by ForceSend
	Rejected    int64 // TrySend calls refused on a full buffer
}
