package goble

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedPlatform is returned when no go-ble device exists for the OS.
	ErrUnsupportedPlatform = errors.New("BLE peripheral mode is not supported on this platform")
	// ErrBluetoothOff is returned when the adapter is powered off or unavailable.
	ErrBluetoothOff = errors.New("bluetooth is turned off")
	// ErrAdvertising is returned when the stack refuses to advertise.
	ErrAdvertising = errors.New("advertising failed")
)

// NormalizeError maps known go-ble error strings to sentinel errors.
// The original error is kept in the message.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "central manager has invalid state"),
		strings.Contains(msg, "peripheral manager has invalid state"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "can't init hci"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "advertis"):
		return fmt.Errorf("%w: %v", ErrAdvertising, err)
	default:
		return err
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
