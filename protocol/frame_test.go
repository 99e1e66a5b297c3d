package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawFrameMarshalUnmarshal(t *testing.T) {
	original := &RawFrame{
		Type:    FrameMethod,
		Channel: 1,
		Size:    4,
		Payload: []byte{0x00, 0x0A, 0x00, 0x0A},
	}

	data, err := original.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 12)
	assert.Equal(t, byte(FrameEnd), data[len(data)-1])

	decoded := &RawFrame{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, original, decoded)
}

func TestRawFrameUnmarshalErrors(t *testing.T) {
	valid, _ := (&RawFrame{Type: FrameBody, Channel: 3, Payload: []byte("abc")}).MarshalBinary()

	badEnd := append([]byte(nil), valid...)
	badEnd[len(badEnd)-1] = 0x00

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", valid[:5]},
		{"trailing bytes", append(append([]byte(nil), valid...), 0x01)},
		{"bad end byte", badEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, (&RawFrame{}).UnmarshalBinary(tt.data))
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frame := &RawFrame{Type: FrameBody, Channel: 7, Payload: []byte("hello")}
	require.NoError(t, WriteFrame(&buf, frame))

	read, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, byte(FrameBody), read.Type)
	assert.Equal(t, uint16(7), read.Channel)
	assert.Equal(t, uint32(5), read.Size)
	assert.Equal(t, []byte("hello"), read.Payload)
}

func TestDecodeFrameNeedsMoreData(t *testing.T) {
	data, err := EncodeFrame(&BodyFrame{Channel: 1, Payload: []byte("payload")})
	require.NoError(t, err)

	for i := 0; i < len(data); i++ {
		_, n, err := DecodeFrame(data[:i], 0)
		assert.ErrorIs(t, err, ErrNeedMoreData, "prefix of %d bytes", i)
		assert.Zero(t, n)
	}

	f, n, err := DecodeFrame(data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, &BodyFrame{Channel: 1, Payload: []byte("payload")}, f)
}

func TestDecodeFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	header, err := NewContentHeader(ClassBasic, 2, Table{HeaderContentType: "text/plain"})
	require.NoError(t, err)

	frames := []Frame{
		&MethodFrame{Channel: 1, Method: &BasicDeliverMethod{ConsumerTag: "ctag", DeliveryTag: 9, Exchange: "", RoutingKey: "q"}},
		&HeaderFrame{Channel: 1, Header: header},
		&BodyFrame{Channel: 1, Payload: []byte("hi")},
		&HeartbeatFrame{},
	}
	for _, f := range frames {
		require.NoError(t, AppendFrame(&buf, f))
	}

	data := buf.Bytes()
	var decoded []Frame
	for len(data) > 0 {
		f, n, err := DecodeFrame(data, DefaultFrameMax)
		require.NoError(t, err)
		decoded = append(decoded, f)
		data = data[n:]
	}
	require.Len(t, decoded, 4)

	deliver, ok := decoded[0].(*MethodFrame)
	require.True(t, ok)
	assert.Equal(t, "basic.deliver", MethodName(deliver.Method))
	assert.Equal(t, uint64(9), deliver.Method.(*BasicDeliverMethod).DeliveryTag)

	hdr, ok := decoded[1].(*HeaderFrame)
	require.True(t, ok)
	assert.Equal(t, uint64(2), hdr.Header.BodySize)
	assert.Equal(t, "text/plain", hdr.Header.ContentType)

	assert.Equal(t, &BodyFrame{Channel: 1, Payload: []byte("hi")}, decoded[2])
	assert.Equal(t, &HeartbeatFrame{}, decoded[3])
}

func TestDecodeFrameRejectsOversized(t *testing.T) {
	data, err := EncodeFrame(&BodyFrame{Channel: 1, Payload: make([]byte, FrameMinSize)})
	require.NoError(t, err)

	_, _, err = DecodeFrame(data, FrameMinSize)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDecodeUnknownFrameType(t *testing.T) {
	data, _ := (&RawFrame{Type: 9, Channel: 0}).MarshalBinary()
	_, n, err := DecodeFrame(data, 0)
	var typeErr *FrameTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, byte(9), typeErr.Type)
	assert.Equal(t, len(data), n)
}
