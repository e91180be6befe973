package main

import (
	"errors"
	"strings"

	goble "github.com/srg/blip/internal/peripheral/go-ble"
	"github.com/srg/blip/pkg/config"
)

// FormatUserError turns known errors into actionable messages.
func FormatUserError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, goble.ErrBluetoothOff):
		return "Bluetooth is off or unavailable. Turn it on and try again"
	case errors.Is(err, goble.ErrUnsupportedPlatform):
		return "BLE peripheral mode is not supported on this platform (macOS and Linux only)"
	case errors.Is(err, config.ErrInvalidConfig):
		return strings.Replace(err.Error(), config.ErrInvalidConfig.Error()+": ", "invalid configuration:\n  ", 1)
	default:
		return err.Error()
	}
}
