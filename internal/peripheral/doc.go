// Package peripheral models the runtime state of mutable GATT characteristics
// served by a Bluetooth Low Energy peripheral.
//
// A Characteristic tracks:
//   - the last published value, served to read requests
//   - the set of subscribed centrals
//   - a notification gate limiting the peripheral to one outstanding send
//   - an optional stream surfacing incoming write requests to application code
//
// All mutable state of a Characteristic sits behind one mutex. Transport callbacks
// (subscribe, unsubscribe, write, ready-to-update) and application calls go through it,
// so the state is linearizable per characteristic. Nothing here talks to a radio: a
// Transport performs sends and responses, see package goble for the go-ble binding.
package peripheral
