package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame types as defined in the AMQP specification
const (
	FrameMethod    = 1
	FrameHeader    = 2
	FrameBody      = 3
	FrameHeartbeat = 8
	FrameEnd       = 0xCE // Frame end marker byte
)

// Frame size limits. FrameOverhead is the type, channel and size prefix plus
// the end octet.
const (
	FrameOverhead   = 8
	FrameMinSize    = 4096
	DefaultFrameMax = 131072
)

// ProtocolHeader opens every AMQP 0-9-1 connection.
var ProtocolHeader = []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

var (
	// ErrNeedMoreData means the buffer holds an incomplete frame.
	ErrNeedMoreData = errors.New("need more data")
	// ErrFrameTooLarge means the declared payload exceeds the negotiated frame-max.
	ErrFrameTooLarge = errors.New("frame exceeds frame-max")
	// ErrInvalidFrameEnd means the end octet was not 0xCE.
	ErrInvalidFrameEnd = errors.New("invalid frame end-byte")
)

// RawFrame is a frame as it appears on the wire, before its payload is
// interpreted.
type RawFrame struct {
	Type    byte
	Channel uint16
	Size    uint32
	Payload []byte
}

// MarshalBinary encodes a frame into binary format following AMQP 0.9.1 spec
// Format: (1-byte type) + (2-byte channel) + (4-byte size) + (size-byte payload) + (1-byte end: 0xCE)
func (f *RawFrame) MarshalBinary() ([]byte, error) {
	data := make([]byte, FrameOverhead+len(f.Payload))
	data[0] = f.Type
	binary.BigEndian.PutUint16(data[1:3], f.Channel)
	binary.BigEndian.PutUint32(data[3:7], uint32(len(f.Payload)))
	copy(data[7:], f.Payload)
	data[7+len(f.Payload)] = FrameEnd
	return data, nil
}

// UnmarshalBinary decodes exactly one frame from data.
func (f *RawFrame) UnmarshalBinary(data []byte) error {
	frame, n, err := parseRawFrame(data, 0)
	if err != nil {
		if errors.Is(err, ErrNeedMoreData) {
			return fmt.Errorf("frame too short")
		}
		return err
	}
	if n != len(data) {
		return fmt.Errorf("frame size mismatch: expected %d bytes but got %d", n, len(data))
	}
	*f = *frame
	return nil
}

// parseRawFrame reads one frame from the front of data. frameMax of zero
// disables the size check.
func parseRawFrame(data []byte, frameMax uint32) (*RawFrame, int, error) {
	if len(data) < 7 {
		return nil, 0, ErrNeedMoreData
	}
	size := binary.BigEndian.Uint32(data[3:7])
	if frameMax > 0 && size > frameMax-FrameOverhead {
		return nil, 0, fmt.Errorf("%w: payload %d bytes, frame-max %d", ErrFrameTooLarge, size, frameMax)
	}
	total := int(size) + FrameOverhead
	if len(data) < total {
		return nil, 0, ErrNeedMoreData
	}
	if data[total-1] != FrameEnd {
		return nil, 0, ErrInvalidFrameEnd
	}
	payload := make([]byte, size)
	copy(payload, data[7:7+size])
	return &RawFrame{
		Type:    data[0],
		Channel: binary.BigEndian.Uint16(data[1:3]),
		Size:    size,
		Payload: payload,
	}, total, nil
}

// ReadFrame reads a frame from an io.Reader
func ReadFrame(reader io.Reader) (*RawFrame, error) {
	header := make([]byte, 7)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[3:7])
	payload := make([]byte, size+1)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, err
	}
	if payload[size] != FrameEnd {
		return nil, ErrInvalidFrameEnd
	}

	return &RawFrame{
		Type:    header[0],
		Channel: binary.BigEndian.Uint16(header[1:3]),
		Size:    size,
		Payload: payload[:size],
	}, nil
}

// WriteFrame writes a frame to an io.Writer using a pooled buffer.
func WriteFrame(writer io.Writer, frame *RawFrame) error {
	buf := getBuffer()
	defer putBuffer(buf)

	appendRawFrame(buf, frame)
	_, err := buf.WriteTo(writer)
	return err
}
