package peripheral

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/srg/blip/internal/groutine"
	"github.com/srg/blip/internal/ringchan"
)

// WriteRequestStream delivers write requests from one Start/Stop window to the
// application. Receive from C() or call Next; both end cleanly once the stream is
// stopped, either explicitly or because a newer stream replaced it.
//
// With a positive capacity at most that many undelivered requests are kept and
// the oldest is dropped to make room; with capacity 0 the buffer is unbounded.
// Requests still buffered when the stream stops are discarded.
type WriteRequestStream struct {
	capacity int
	sink     writeSink
	done     chan struct{}
	stopOnce sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// writeSink is the buffer behind a stream.
type writeSink interface {
	push(req WriteRequest) (dropped bool)
	channel() <-chan WriteRequest
	close()
}

func newWriteRequestStream(capacity int, name string) *WriteRequestStream {
	if capacity < 0 {
		capacity = 0
	}
	s := &WriteRequestStream{
		capacity: capacity,
		done:     make(chan struct{}),
	}
	if capacity > 0 {
		s.sink = &ringSink{ring: ringchan.New[WriteRequest](capacity)}
	} else {
		q := &queueSink{
			wake: make(chan struct{}, 1),
			done: s.done,
			out:  make(chan WriteRequest),
		}
		groutine.Go(context.Background(), "write-requests-"+name, q.run)
		s.sink = q
	}
	return s
}

// C returns the channel of incoming requests. It is closed when the stream stops.
func (s *WriteRequestStream) C() <-chan WriteRequest {
	return s.sink.channel()
}

// Next blocks for the next request. It returns false once the stream has stopped
// or ctx is done.
func (s *WriteRequestStream) Next(ctx context.Context) (WriteRequest, bool) {
	select {
	case req, ok := <-s.sink.channel():
		return req, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Done is closed when the stream stops.
func (s *WriteRequestStream) Done() <-chan struct{} {
	return s.done
}

// Capacity returns the buffer bound, 0 for unbounded.
func (s *WriteRequestStream) Capacity() int {
	return s.capacity
}

// Delivered returns how many requests were handed to the stream.
func (s *WriteRequestStream) Delivered() uint64 {
	return s.delivered.Load()
}

// Dropped returns how many requests were discarded because the buffer was full.
func (s *WriteRequestStream) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *WriteRequestStream) push(req WriteRequest) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	if s.sink.push(req) {
		s.dropped.Add(1)
	}
	s.delivered.Add(1)
	return true
}

func (s *WriteRequestStream) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.sink.close()
	})
}

// ringSink keeps at most cap(ring) requests, overwriting the oldest.
type ringSink struct {
	ring *ringchan.RingChannel[WriteRequest]
}

func (r *ringSink) push(req WriteRequest) bool {
	return r.ring.ForceSend(req)
}

func (r *ringSink) channel() <-chan WriteRequest {
	return r.ring.C()
}

func (r *ringSink) close() {
	r.ring.Close()
	r.ring.Drain()
}

// queueSink buffers without bound and feeds an unbuffered channel from a pump goroutine.
type queueSink struct {
	mu      sync.Mutex
	pending []WriteRequest
	wake    chan struct{}
	done    <-chan struct{}
	out     chan WriteRequest
}

func (q *queueSink) push(req WriteRequest) bool {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return false
}

func (q *queueSink) channel() <-chan WriteRequest {
	return q.out
}

func (q *queueSink) close() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

func (q *queueSink) run(ctx context.Context) {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			}
		}
		head := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- head:
		case <-q.done:
			return
		}
	}
}

// writeRequestChannel owns the active stream of a characteristic.
// It is not safe for concurrent use; the owning Characteristic serializes access.
type writeRequestChannel struct {
	name   string
	stream *WriteRequestStream
}

// start replaces any active stream with a fresh one.
func (w *writeRequestChannel) start(capacity int) *WriteRequestStream {
	if w.stream != nil {
		w.stream.stop()
	}
	w.stream = newWriteRequestStream(capacity, w.name)
	return w.stream
}

// stop closes the active stream and returns it, or nil if none was active.
func (w *writeRequestChannel) stop() *WriteRequestStream {
	stopped := w.stream
	if stopped != nil {
		stopped.stop()
		w.stream = nil
	}
	return stopped
}

// deliver hands req to the active stream. Returns false when no stream is active.
func (w *writeRequestChannel) deliver(req WriteRequest) bool {
	if w.stream == nil {
		return false
	}
	return w.stream.push(req)
}

func (w *writeRequestChannel) active() bool {
	return w.stream != nil
}
