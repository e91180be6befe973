package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/peripheral"
)

type propertyBit struct {
	from peripheral.Properties
	to   ble.Property
}

// propertyBits maps peripheral properties one to one onto go-ble property flags.
var propertyBits = []propertyBit{
	{peripheral.PropertyBroadcast, ble.CharBroadcast},
	{peripheral.PropertyRead, ble.CharRead},
	{peripheral.PropertyWriteWithoutResponse, ble.CharWriteNR},
	{peripheral.PropertyWrite, ble.CharWrite},
	{peripheral.PropertyNotify, ble.CharNotify},
	{peripheral.PropertyIndicate, ble.CharIndicate},
	{peripheral.PropertyAuthenticatedSignedWrites, ble.CharSignedWrite},
	{peripheral.PropertyExtendedProperties, ble.CharExtended},
}

// encryptedPropertyBits only map forward: go-ble has no encryption-required
// notify/indicate bits, so the plain bits are used.
var encryptedPropertyBits = []propertyBit{
	{peripheral.PropertyNotifyEncryptionRequired, ble.CharNotify},
	{peripheral.PropertyIndicateEncryptionRequired, ble.CharIndicate},
}

// BLEProperty converts peripheral properties to go-ble property flags.
func BLEProperty(p peripheral.Properties) ble.Property {
	var out ble.Property
	for _, bits := range [][]propertyBit{propertyBits, encryptedPropertyBits} {
		for _, bit := range bits {
			if p.Has(bit.from) {
				out |= bit.to
			}
		}
	}
	return out
}

// Properties converts go-ble property flags to peripheral properties.
func Properties(p ble.Property) peripheral.Properties {
	var out peripheral.Properties
	for _, bit := range propertyBits {
		if p&bit.to != 0 {
			out |= bit.from
		}
	}
	return out
}

func canWrite(p peripheral.Properties) bool {
	return p.Has(peripheral.PropertyWrite | peripheral.PropertyWriteWithoutResponse)
}

func canNotify(p peripheral.Properties) bool {
	return p.Has(peripheral.PropertyNotify | peripheral.PropertyNotifyEncryptionRequired)
}

func canIndicate(p peripheral.Properties) bool {
	return p.Has(peripheral.PropertyIndicate | peripheral.PropertyIndicateEncryptionRequired)
}

// ATTError converts a result to the go-ble ATT error. Codes are numerically identical.
func ATTError(r peripheral.ATTResult) ble.ATTError {
	return ble.ATTError(r)
}
