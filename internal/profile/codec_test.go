package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawCodec(t *testing.T) {
	c := RawCodec{}

	data, err := c.Encode([]byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, data)

	data, err = c.Encode("hi")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)

	_, err = c.Encode(3.14)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	view, err := c.Strings([]byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ValueKey: "dead"}, view)

	data, err = c.FromStrings(map[string]string{ValueKey: "beef"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbe, 0xef}, data)

	_, err = c.FromStrings(map[string]string{ValueKey: "nothex"})
	assert.Error(t, err)

	_, err = c.FromStrings(nil)
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestStringCodec(t *testing.T) {
	c := StringCodec{}

	data, err := c.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = c.Encode(42)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	view, err := c.Strings([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", view[ValueKey])

	_, err = c.Strings([]byte{0xff, 0xfe})
	assert.Error(t, err, "invalid UTF-8 MUST fail")

	_, err = c.FromStrings(map[string]string{"other": "x"})
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestIntegerCodec(t *testing.T) {
	t.Run("uint16 little endian", func(t *testing.T) {
		c := IntegerCodec[uint16]{}
		data, err := c.Encode(uint16(0x1234))
		require.NoError(t, err)
		assert.Equal(t, []byte{0x34, 0x12}, data)

		view, err := c.Strings(data)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{ValueKey: "4660"}, view)
	})

	t.Run("int accepted", func(t *testing.T) {
		data, err := IntegerCodec[uint32]{}.Encode(1)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 0, 0}, data)
	})

	t.Run("signed", func(t *testing.T) {
		c := IntegerCodec[int16]{Key: "temperature"}
		data, err := c.FromStrings(map[string]string{"temperature": "-2"})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xfe, 0xff}, data)

		view, err := c.Strings(data)
		require.NoError(t, err)
		assert.Equal(t, "-2", view["temperature"])
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := IntegerCodec[uint8]{}.FromStrings(map[string]string{ValueKey: "300"})
		assert.Error(t, err)

		_, err = IntegerCodec[uint8]{}.FromStrings(map[string]string{ValueKey: "-1"})
		assert.Error(t, err)
	})

	t.Run("int range checked", func(t *testing.T) {
		tests := []struct {
			name   string
			encode func() ([]byte, error)
			want   []byte
		}{
			{name: "uint8 max", encode: func() ([]byte, error) { return IntegerCodec[uint8]{}.Encode(255) }, want: []byte{0xff}},
			{name: "uint8 overflow", encode: func() ([]byte, error) { return IntegerCodec[uint8]{}.Encode(300) }},
			{name: "uint16 negative", encode: func() ([]byte, error) { return IntegerCodec[uint16]{}.Encode(-1) }},
			{name: "uint64 negative", encode: func() ([]byte, error) { return IntegerCodec[uint64]{}.Encode(-1) }},
			{name: "int8 min", encode: func() ([]byte, error) { return IntegerCodec[int8]{}.Encode(-128) }, want: []byte{0x80}},
			{name: "int8 underflow", encode: func() ([]byte, error) { return IntegerCodec[int8]{}.Encode(-129) }},
			{name: "int16 overflow", encode: func() ([]byte, error) { return IntegerCodec[int16]{}.Encode(40000) }},
			{name: "int64 negative", encode: func() ([]byte, error) { return IntegerCodec[int64]{}.Encode(-5) }, want: []byte{0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := tt.encode()
				if tt.want != nil {
					require.NoError(t, err)
					assert.Equal(t, tt.want, data)
					return
				}
				assert.Nil(t, data, "out of range value MUST NOT be encoded")
				assert.ErrorIs(t, err, ErrOutOfRange)
				var codecErr *CodecError
				require.ErrorAs(t, err, &codecErr)
				assert.Equal(t, "encode", codecErr.Op)
			})
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := IntegerCodec[uint16]{}.Strings([]byte{1})
		var codecErr *CodecError
		require.ErrorAs(t, err, &codecErr)
		assert.Equal(t, "uint16", codecErr.Codec)
		assert.Equal(t, "strings", codecErr.Op)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := IntegerCodec[uint16]{}.Encode("1")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestCBORCodec(t *testing.T) {
	c := CBORCodec{}

	type reading struct {
		Sensor string  `cbor:"sensor"`
		Value  float64 `cbor:"value"`
	}

	data, err := c.Encode(reading{Sensor: "t1", Value: 1.5})
	require.NoError(t, err)

	var decoded reading
	require.NoError(t, c.Decode(data, &decoded))
	assert.Equal(t, reading{Sensor: "t1", Value: 1.5}, decoded)

	view, err := c.Strings(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sensor": "t1", "value": "1.5"}, view)

	scalar, err := c.Encode(uint64(7))
	require.NoError(t, err)
	view, err = c.Strings(scalar)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ValueKey: "7"}, view)

	data, err = c.FromStrings(map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, c.Decode(data, &m))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	_, err = c.FromStrings(nil)
	assert.ErrorIs(t, err, ErrMissingValue)

	_, err = c.Strings([]byte{0xff})
	assert.Error(t, err)
}

func TestCodecError(t *testing.T) {
	err := &CodecError{Codec: "raw", Op: "encode", Err: ErrUnsupportedType}
	assert.Equal(t, "raw codec: encode: unsupported value type", err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
