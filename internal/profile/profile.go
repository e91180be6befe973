// Package profile describes characteristics: identity, declared properties and
// permissions, initial value, and how values convert to and from bytes.
package profile

import (
	"errors"
	"fmt"

	"github.com/srg/blip/internal/peripheral"
)

// ErrInvalidUUID is returned for an empty or malformed characteristic UUID.
var ErrInvalidUUID = errors.New("invalid characteristic UUID")

// Characteristic is an immutable characteristic profile. It implements peripheral.Profile.
type Characteristic struct {
	uuid         string
	name         string
	properties   peripheral.Properties
	permissions  peripheral.Permissions
	initial      []byte
	codec        Codec
	stringValues []string
}

var _ peripheral.Profile = (*Characteristic)(nil)

// Option configures a Characteristic profile.
type Option func(*Characteristic)

func WithName(name string) Option {
	return func(c *Characteristic) { c.name = name }
}

func WithProperties(p peripheral.Properties) Option {
	return func(c *Characteristic) { c.properties = p }
}

func WithPermissions(p peripheral.Permissions) Option {
	return func(c *Characteristic) { c.permissions = p }
}

// WithInitialValue seeds the characteristic value.
func WithInitialValue(value []byte) Option {
	return func(c *Characteristic) {
		c.initial = append([]byte(nil), value...)
	}
}

// WithCodec sets the value codec. The default is RawCodec.
func WithCodec(codec Codec) Option {
	return func(c *Characteristic) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithStringValues enumerates the string values the characteristic may take.
func WithStringValues(values ...string) Option {
	return func(c *Characteristic) {
		c.stringValues = append([]string(nil), values...)
	}
}

// New creates a profile for uuid. A missing name defaults to the normalized UUID.
func New(uuid string, opts ...Option) (*Characteristic, error) {
	normalized := NormalizeUUID(uuid)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUUID, uuid)
	}

	c := &Characteristic{
		uuid:  normalized,
		codec: RawCodec{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = normalized
	}
	return c, nil
}

func (c *Characteristic) UUID() string                        { return c.uuid }
func (c *Characteristic) Name() string                        { return c.name }
func (c *Characteristic) Properties() peripheral.Properties   { return c.properties }
func (c *Characteristic) Permissions() peripheral.Permissions { return c.permissions }

func (c *Characteristic) InitialValue() []byte {
	if c.initial == nil {
		return nil
	}
	return append([]byte(nil), c.initial...)
}

func (c *Characteristic) StringValues() []string {
	return append([]string(nil), c.stringValues...)
}

// Encode converts v to characteristic bytes with the profile codec.
func (c *Characteristic) Encode(v any) ([]byte, error) {
	return c.codec.Encode(v)
}

// StringValue decodes data into the codec's string view.
func (c *Characteristic) StringValue(data []byte) (map[string]string, error) {
	return c.codec.Strings(data)
}

// DataFromStringValue encodes a string view into characteristic bytes.
func (c *Characteristic) DataFromStringValue(values map[string]string) ([]byte, error) {
	return c.codec.FromStrings(values)
}
