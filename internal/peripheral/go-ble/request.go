package goble

import (
	"sync/atomic"

	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/peripheral"
)

// WriteRequest is an incoming go-ble write waiting for the application's response.
type WriteRequest struct {
	central        Central
	characteristic string
	value          []byte
	offset         int
	reply          chan peripheral.ATTResult
	responded      atomic.Bool
}

var _ peripheral.WriteRequest = (*WriteRequest)(nil)

func newWriteRequest(req ble.Request, characteristic string) *WriteRequest {
	return &WriteRequest{
		central:        CentralFromRequest(req),
		characteristic: characteristic,
		value:          append([]byte(nil), req.Data()...),
		offset:         req.Offset(),
		reply:          make(chan peripheral.ATTResult, 1),
	}
}

func (r *WriteRequest) Central() peripheral.Central { return r.central }
func (r *WriteRequest) Value() []byte               { return r.value }
func (r *WriteRequest) Offset() int                 { return r.offset }

// Characteristic returns the UUID of the written characteristic.
func (r *WriteRequest) Characteristic() string { return r.characteristic }

// respond records result. Only the first response counts.
func (r *WriteRequest) respond(result peripheral.ATTResult) bool {
	if !r.responded.CompareAndSwap(false, true) {
		return false
	}
	r.reply <- result
	return true
}
