package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Frame is a decoded frame: one of *MethodFrame, *HeaderFrame, *BodyFrame
// or *HeartbeatFrame.
type Frame interface {
	ChannelID() uint16
	frame()
}

// MethodFrame carries an AMQP command or response.
type MethodFrame struct {
	Channel uint16
	Method  Method
}

// HeaderFrame carries the properties and declared body size of a message.
type HeaderFrame struct {
	Channel uint16
	Header  *ContentHeader
}

// BodyFrame carries one slice of a message body.
type BodyFrame struct {
	Channel uint16
	Payload []byte
}

// HeartbeatFrame keeps the connection alive. Channel is kept so a
// heartbeat on a non-zero channel can be rejected.
type HeartbeatFrame struct {
	Channel uint16
}

func (f *MethodFrame) ChannelID() uint16    { return f.Channel }
func (f *HeaderFrame) ChannelID() uint16    { return f.Channel }
func (f *BodyFrame) ChannelID() uint16      { return f.Channel }
func (f *HeartbeatFrame) ChannelID() uint16 { return f.Channel }

func (*MethodFrame) frame()    {}
func (*HeaderFrame) frame()    {}
func (*BodyFrame) frame()      {}
func (*HeartbeatFrame) frame() {}

func (f *MethodFrame) String() string {
	return fmt.Sprintf("method %s on channel %d", MethodName(f.Method), f.Channel)
}

// FrameTypeError reports a frame type octet outside 1, 2, 3 and 8.
type FrameTypeError struct {
	Type byte
}

func (e *FrameTypeError) Error() string {
	return fmt.Sprintf("unknown frame type %d", e.Type)
}

// Decode interprets the payload of a raw frame.
func Decode(raw *RawFrame) (Frame, error) {
	switch raw.Type {
	case FrameMethod:
		m, err := DecodeMethod(raw.Payload)
		if err != nil {
			return nil, err
		}
		return &MethodFrame{Channel: raw.Channel, Method: m}, nil
	case FrameHeader:
		h, err := ReadContentHeader(raw.Payload)
		if err != nil {
			return nil, err
		}
		return &HeaderFrame{Channel: raw.Channel, Header: h}, nil
	case FrameBody:
		return &BodyFrame{Channel: raw.Channel, Payload: raw.Payload}, nil
	case FrameHeartbeat:
		return &HeartbeatFrame{Channel: raw.Channel}, nil
	default:
		return nil, &FrameTypeError{Type: raw.Type}
	}
}

// DecodeFrame parses one frame from the front of data and returns it with
// the number of bytes consumed. It returns ErrNeedMoreData while the frame
// is incomplete. frameMax of zero disables the size check.
func DecodeFrame(data []byte, frameMax uint32) (Frame, int, error) {
	raw, n, err := parseRawFrame(data, frameMax)
	if err != nil {
		return nil, 0, err
	}
	f, err := Decode(raw)
	if err != nil {
		return nil, n, err
	}
	return f, n, nil
}

// Raw encodes the payload of a typed frame.
func Raw(f Frame) (*RawFrame, error) {
	raw := &RawFrame{Channel: f.ChannelID()}
	switch fr := f.(type) {
	case *MethodFrame:
		payload, err := EncodeMethod(fr.Method)
		if err != nil {
			return nil, err
		}
		raw.Type = FrameMethod
		raw.Payload = payload
	case *HeaderFrame:
		payload, err := fr.Header.Serialize()
		if err != nil {
			return nil, err
		}
		raw.Type = FrameHeader
		raw.Payload = payload
	case *BodyFrame:
		raw.Type = FrameBody
		raw.Payload = fr.Payload
	case *HeartbeatFrame:
		raw.Type = FrameHeartbeat
	default:
		return nil, fmt.Errorf("unsupported frame %T", f)
	}
	raw.Size = uint32(len(raw.Payload))
	return raw, nil
}

// EncodeFrame returns the wire bytes of a typed frame.
func EncodeFrame(f Frame) ([]byte, error) {
	raw, err := Raw(f)
	if err != nil {
		return nil, err
	}
	return raw.MarshalBinary()
}

// AppendFrame encodes f onto the end of buf.
func AppendFrame(buf *bytes.Buffer, f Frame) error {
	raw, err := Raw(f)
	if err != nil {
		return err
	}
	appendRawFrame(buf, raw)
	return nil
}

func appendRawFrame(buf *bytes.Buffer, raw *RawFrame) {
	buf.Grow(FrameOverhead + len(raw.Payload))
	var header [7]byte
	header[0] = raw.Type
	binary.BigEndian.PutUint16(header[1:3], raw.Channel)
	binary.BigEndian.PutUint32(header[3:7], uint32(len(raw.Payload)))
	buf.Write(header[:])
	buf.Write(raw.Payload)
	buf.WriteByte(FrameEnd)
}
