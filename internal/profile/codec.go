package profile

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// ValueKey is the string-view key used by single-valued codecs.
const ValueKey = "value"

var (
	// ErrUnsupportedType is returned when a codec cannot encode the given Go type.
	ErrUnsupportedType = errors.New("unsupported value type")
	// ErrMissingValue is returned when a string view lacks a required key.
	ErrMissingValue = errors.New("missing string value")
	// ErrOutOfRange is returned when a value does not fit the codec's integer width.
	ErrOutOfRange = errors.New("value out of range")
)

// Codec converts between characteristic bytes, Go values and a string view.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Strings(data []byte) (map[string]string, error)
	FromStrings(values map[string]string) ([]byte, error)
}

// CodecError describes a failed codec operation.
type CodecError struct {
	Codec string
	Op    string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s codec: %s: %v", e.Codec, e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func codecErr(codec Codec, op string, err error) error {
	return &CodecError{Codec: codec.Name(), Op: op, Err: err}
}

// RawCodec passes bytes through. The string view is the hex encoding.
type RawCodec struct{}

func (RawCodec) Name() string { return "raw" }

func (c RawCodec) Encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return nil, codecErr(c, "encode", fmt.Errorf("%w: %T", ErrUnsupportedType, v))
	}
}

func (RawCodec) Strings(data []byte) (map[string]string, error) {
	return map[string]string{ValueKey: hex.EncodeToString(data)}, nil
}

func (c RawCodec) FromStrings(values map[string]string) ([]byte, error) {
	s, ok := values[ValueKey]
	if !ok {
		return nil, codecErr(c, "from strings", ErrMissingValue)
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, codecErr(c, "from strings", err)
	}
	return data, nil
}

// StringCodec carries UTF-8 text.
type StringCodec struct{}

func (StringCodec) Name() string { return "string" }

func (c StringCodec) Encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return []byte(val), nil
	case fmt.Stringer:
		return []byte(val.String()), nil
	default:
		return nil, codecErr(c, "encode", fmt.Errorf("%w: %T", ErrUnsupportedType, v))
	}
}

func (c StringCodec) Strings(data []byte) (map[string]string, error) {
	if !utf8.Valid(data) {
		return nil, codecErr(c, "strings", errors.New("invalid UTF-8"))
	}
	return map[string]string{ValueKey: string(data)}, nil
}

func (c StringCodec) FromStrings(values map[string]string) ([]byte, error) {
	s, ok := values[ValueKey]
	if !ok {
		return nil, codecErr(c, "from strings", ErrMissingValue)
	}
	return []byte(s), nil
}

// Integer is the set of fixed-width integers IntegerCodec supports.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// IntegerCodec carries one little-endian fixed-width integer, as GATT does.
// The string view holds the decimal value under Key, or ValueKey if Key is empty.
type IntegerCodec[T Integer] struct {
	Key string
}

func (c IntegerCodec[T]) Name() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

func (c IntegerCodec[T]) key() string {
	if c.Key == "" {
		return ValueKey
	}
	return c.Key
}

func (c IntegerCodec[T]) Encode(v any) ([]byte, error) {
	var n T
	switch val := v.(type) {
	case T:
		n = val
	case int:
		n = T(val)
		if int(n) != val || (n < 0) != (val < 0) {
			return nil, codecErr(c, "encode", fmt.Errorf("%w: %d", ErrOutOfRange, val))
		}
	default:
		return nil, codecErr(c, "encode", fmt.Errorf("%w: %T", ErrUnsupportedType, v))
	}

	buf := make([]byte, binary.Size(n))
	if _, err := binary.Encode(buf, binary.LittleEndian, n); err != nil {
		return nil, codecErr(c, "encode", err)
	}
	return buf, nil
}

func (c IntegerCodec[T]) decode(data []byte) (T, error) {
	var n T
	if len(data) != binary.Size(n) {
		return n, fmt.Errorf("want %d bytes, got %d", binary.Size(n), len(data))
	}
	_, err := binary.Decode(data, binary.LittleEndian, &n)
	return n, err
}

func (c IntegerCodec[T]) Strings(data []byte) (map[string]string, error) {
	n, err := c.decode(data)
	if err != nil {
		return nil, codecErr(c, "strings", err)
	}
	return map[string]string{c.key(): formatInteger(n)}, nil
}

func (c IntegerCodec[T]) FromStrings(values map[string]string) ([]byte, error) {
	s, ok := values[c.key()]
	if !ok {
		return nil, codecErr(c, "from strings", ErrMissingValue)
	}

	var zero T
	bits := binary.Size(zero) * 8
	var n T
	if isSigned[T]() {
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return nil, codecErr(c, "from strings", err)
		}
		n = T(v)
	} else {
		v, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return nil, codecErr(c, "from strings", err)
		}
		n = T(v)
	}
	return c.Encode(n)
}

func isSigned[T Integer]() bool {
	var zero T
	return zero-1 < zero
}

func formatInteger[T Integer](n T) string {
	if isSigned[T]() {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatUint(uint64(n), 10)
}

// CBORCodec encodes arbitrary values as deterministic CBOR.
// The string view formats the top-level map entries, or the whole value under ValueKey.
type CBORCodec struct{}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	cborEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	cborDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

func (CBORCodec) Name() string { return "cbor" }

func (c CBORCodec) Encode(v any) ([]byte, error) {
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, codecErr(c, "encode", err)
	}
	return data, nil
}

// Decode unmarshals data into v.
func (c CBORCodec) Decode(data []byte, v any) error {
	if err := cborDecMode.Unmarshal(data, v); err != nil {
		return codecErr(c, "decode", err)
	}
	return nil
}

func (c CBORCodec) Strings(data []byte) (map[string]string, error) {
	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		return nil, err
	}

	m, ok := decoded.(map[string]any)
	if !ok {
		return map[string]string{ValueKey: fmt.Sprint(decoded)}, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// FromStrings encodes the view as a CBOR map of text strings.
func (c CBORCodec) FromStrings(values map[string]string) ([]byte, error) {
	if len(values) == 0 {
		return nil, codecErr(c, "from strings", ErrMissingValue)
	}
	return c.Encode(values)
}
