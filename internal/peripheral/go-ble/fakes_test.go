package goble

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// fakeConn only answers RemoteAddr; other ble.Conn methods are never called.
type fakeConn struct {
	ble.Conn
	addr string
}

func (c *fakeConn) RemoteAddr() ble.Addr { return ble.NewAddr(c.addr) }

type fakeRequest struct {
	ble.Request
	conn   ble.Conn
	data   []byte
	offset int
}

func (r *fakeRequest) Conn() ble.Conn { return r.conn }
func (r *fakeRequest) Data() []byte   { return r.data }
func (r *fakeRequest) Offset() int    { return r.offset }

func newFakeRequest(addr string, data []byte, offset int) *fakeRequest {
	return &fakeRequest{conn: &fakeConn{addr: addr}, data: data, offset: offset}
}

type fakeResponseWriter struct {
	ble.ResponseWriter
	buf    []byte
	status ble.ATTError
}

func (w *fakeResponseWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	return len(b), nil
}
func (w *fakeResponseWriter) Status() ble.ATTError          { return w.status }
func (w *fakeResponseWriter) SetStatus(status ble.ATTError) { w.status = status }
func (w *fakeResponseWriter) Len() int                      { return len(w.buf) }
func (w *fakeResponseWriter) Cap() int                      { return 512 }

// fakeNotifier records writes. With hold set, Write blocks until release is called.
type fakeNotifier struct {
	ble.Notifier
	ctx    context.Context
	cancel context.CancelFunc

	entered chan []byte
	hold    chan struct{}

	mu      sync.Mutex
	written [][]byte
}

func newFakeNotifier(hold bool) *fakeNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &fakeNotifier{ctx: ctx, cancel: cancel, entered: make(chan []byte, 64)}
	if hold {
		n.hold = make(chan struct{})
	}
	return n
}

func (n *fakeNotifier) Context() context.Context { return n.ctx }
func (n *fakeNotifier) Cap() int                 { return 20 }
func (n *fakeNotifier) Close() error {
	n.cancel()
	return nil
}

func (n *fakeNotifier) Write(b []byte) (int, error) {
	n.entered <- b
	if n.hold != nil {
		<-n.hold
	}
	n.mu.Lock()
	n.written = append(n.written, b)
	n.mu.Unlock()
	return len(b), nil
}

func (n *fakeNotifier) release() { close(n.hold) }

func (n *fakeNotifier) writes() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]byte(nil), n.written...)
}

// mockDevice mocks the ble.Device methods a Peripheral uses.
type mockDevice struct {
	ble.Device
	mock.Mock
}

func (d *mockDevice) AddService(svc *ble.Service) error {
	return d.Called(svc).Error(0)
}

func (d *mockDevice) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	return d.Called(ctx, name, uuids).Error(0)
}

func (d *mockDevice) Stop() error {
	return d.Called().Error(0)
}
