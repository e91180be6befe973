package profile

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// sigBaseSuffix is the tail of the Bluetooth SIG base UUID 0000xxxx-0000-1000-8000-00805f9b34fb.
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to the internal format (lowercase, no dashes).
// It strips a 0x prefix and shortens Bluetooth SIG base UUIDs to their 16-bit form.
// Returns "" if s is not a 16-, 32- or 128-bit UUID.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")

	switch len(strings.ReplaceAll(s, "-", "")) {
	case 4, 8:
		s = strings.ReplaceAll(s, "-", "")
		if _, err := hex.DecodeString(s); err != nil {
			return ""
		}
		return s
	case 32:
		id, err := uuid.Parse(strings.ReplaceAll(s, "-", ""))
		if err != nil {
			return ""
		}
		full := strings.ReplaceAll(id.String(), "-", "")
		if strings.HasPrefix(full, "0000") && strings.HasSuffix(full, sigBaseSuffix) {
			return full[4:8]
		}
		return full
	default:
		return ""
	}
}
