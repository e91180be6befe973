package goble

import (
	"strings"

	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/peripheral"
)

// UnknownCentral identifies requests that arrive without a connection.
const UnknownCentral = "unknown"

// Central is a remote client identified by its address.
type Central struct {
	addr string
}

var _ peripheral.Central = Central{}

func (c Central) ID() string {
	return c.addr
}

func (c Central) String() string {
	return c.addr
}

// CentralFromRequest identifies the central that issued req.
func CentralFromRequest(req ble.Request) Central {
	if req == nil {
		return Central{addr: UnknownCentral}
	}
	return CentralFromConn(req.Conn())
}

// CentralFromConn identifies the central behind conn by its remote address.
func CentralFromConn(conn ble.Conn) Central {
	if conn == nil || conn.RemoteAddr() == nil {
		return Central{addr: UnknownCentral}
	}
	addr := strings.ToLower(conn.RemoteAddr().String())
	if addr == "" {
		addr = UnknownCentral
	}
	return Central{addr: addr}
}
