package peripheral

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Construction errors
var (
	ErrNilProfile     = errors.New("profile is nil")
	ErrEmptyUUID      = errors.New("characteristic UUID is empty")
	ErrUnknownService = errors.New("unknown service")
)

// Central identifies a remote client connected to the peripheral.
// ID is the only thing the characteristic relies on: it keys the subscriber set.
type Central interface {
	ID() string
}

// WriteRequest is an incoming write from a central. The characteristic never
// inspects it; it is handed to the application as-is and passed back to the
// transport when the application responds.
type WriteRequest interface {
	Central() Central
	Value() []byte
	Offset() int
}

// Transport performs the over-the-air side of a characteristic.
type Transport interface {
	// SendNotification hands value to every subscriber of the characteristic.
	// It must not block: true means the value was accepted for delivery,
	// false means the transport is busy and the caller waits for the next
	// ready-to-update signal.
	SendNotification(value []byte, characteristic string) bool

	// Respond completes a write request at the link layer. Fire-and-forget.
	Respond(req WriteRequest, result ATTResult)
}

// Profile describes a characteristic: identity, capabilities and the
// conversions between raw bytes and structured values. Implementations must be
// safe for concurrent use and must not change Properties or Permissions after
// construction.
type Profile interface {
	UUID() string
	Name() string
	Properties() Properties
	Permissions() Permissions
	InitialValue() []byte
	StringValues() []string

	Encode(v any) ([]byte, error)
	StringValue(data []byte) (map[string]string, error)
	DataFromStringValue(values map[string]string) ([]byte, error)
}

// ServiceID is a non-owning handle to the service a characteristic belongs to.
type ServiceID uuid.UUID

// NewServiceID returns a fresh random service handle.
func NewServiceID() ServiceID {
	return ServiceID(uuid.New())
}

// String returns the canonical UUID form of the handle.
func (id ServiceID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id was never assigned.
func (id ServiceID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ServiceLookup resolves service handles to the transport currently serving them.
type ServiceLookup interface {
	Transport(id ServiceID) (Transport, bool)
}

// ATTResult is an Attribute Protocol result code returned to a central.
type ATTResult uint8

const (
	ResultSuccess                       ATTResult = 0x00
	ResultInvalidHandle                 ATTResult = 0x01
	ResultReadNotPermitted              ATTResult = 0x02
	ResultWriteNotPermitted             ATTResult = 0x03
	ResultInvalidPDU                    ATTResult = 0x04
	ResultInsufficientAuthentication    ATTResult = 0x05
	ResultRequestNotSupported           ATTResult = 0x06
	ResultInvalidOffset                 ATTResult = 0x07
	ResultInsufficientAuthorization     ATTResult = 0x08
	ResultPrepareQueueFull              ATTResult = 0x09
	ResultAttributeNotFound             ATTResult = 0x0a
	ResultAttributeNotLong              ATTResult = 0x0b
	ResultInsufficientEncryptionKeySize ATTResult = 0x0c
	ResultInvalidAttributeValueLength   ATTResult = 0x0d
	ResultUnlikelyError                 ATTResult = 0x0e
	ResultInsufficientEncryption        ATTResult = 0x0f
	ResultUnsupportedGroupType          ATTResult = 0x10
	ResultInsufficientResources         ATTResult = 0x11
)

var resultNames = map[ATTResult]string{
	ResultSuccess:                       "success",
	ResultInvalidHandle:                 "invalid handle",
	ResultReadNotPermitted:              "read not permitted",
	ResultWriteNotPermitted:             "write not permitted",
	ResultInvalidPDU:                    "invalid PDU",
	ResultInsufficientAuthentication:    "insufficient authentication",
	ResultRequestNotSupported:           "request not supported",
	ResultInvalidOffset:                 "invalid offset",
	ResultInsufficientAuthorization:     "insufficient authorization",
	ResultPrepareQueueFull:              "prepare queue full",
	ResultAttributeNotFound:             "attribute not found",
	ResultAttributeNotLong:              "attribute not long",
	ResultInsufficientEncryptionKeySize: "insufficient encryption key size",
	ResultInvalidAttributeValueLength:   "invalid attribute value length",
	ResultUnlikelyError:                 "unlikely error",
	ResultInsufficientEncryption:        "insufficient encryption",
	ResultUnsupportedGroupType:          "unsupported group type",
	ResultInsufficientResources:         "insufficient resources",
}

func (r ATTResult) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("att error 0x%02x", uint8(r))
}
