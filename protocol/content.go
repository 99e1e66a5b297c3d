package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ContentHeader represents the content header frame payload
type ContentHeader struct {
	ClassID         uint16
	Weight          uint16
	BodySize        uint64
	PropertyFlags   uint16
	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string
	ClusterID       string
}

// Property flags for AMQP content header
const (
	FlagContentType     = 0x8000
	FlagContentEncoding = 0x4000
	FlagHeaders         = 0x2000
	FlagDeliveryMode    = 0x1000
	FlagPriority        = 0x0800
	FlagCorrelationID   = 0x0400
	FlagReplyTo         = 0x0200
	FlagExpiration      = 0x0100
	FlagMessageID       = 0x0080
	FlagTimestamp       = 0x0040
	FlagType            = 0x0020
	FlagUserID          = 0x0010
	FlagAppID           = 0x0008
	FlagClusterID       = 0x0004
)

// Header names under which basic properties appear in a flattened header map.
const (
	HeaderContentType     = "content-type"
	HeaderContentEncoding = "content-encoding"
	HeaderDeliveryMode    = "delivery-mode"
	HeaderPriority        = "priority"
	HeaderCorrelationID   = "correlation-id"
	HeaderReplyTo         = "reply-to"
	HeaderExpiration      = "expiration"
	HeaderMessageID       = "message-id"
	HeaderTimestamp       = "timestamp"
	HeaderType            = "type"
	HeaderUserID          = "user-id"
	HeaderAppID           = "app-id"
	HeaderClusterID       = "cluster-id"
)

// NewContentHeader splits a flattened header map into basic properties and
// the custom headers table. Keys named after a property set that property;
// everything else lands in Headers.
func NewContentHeader(classID uint16, bodySize uint64, headers Table) (*ContentHeader, error) {
	h := &ContentHeader{ClassID: classID, BodySize: bodySize}
	for key, value := range headers {
		var err error
		switch key {
		case HeaderContentType:
			h.ContentType, err = stringProperty(key, value)
			h.PropertyFlags |= FlagContentType
		case HeaderContentEncoding:
			h.ContentEncoding, err = stringProperty(key, value)
			h.PropertyFlags |= FlagContentEncoding
		case HeaderDeliveryMode:
			h.DeliveryMode, err = octetProperty(key, value)
			h.PropertyFlags |= FlagDeliveryMode
		case HeaderPriority:
			h.Priority, err = octetProperty(key, value)
			h.PropertyFlags |= FlagPriority
		case HeaderCorrelationID:
			h.CorrelationID, err = stringProperty(key, value)
			h.PropertyFlags |= FlagCorrelationID
		case HeaderReplyTo:
			h.ReplyTo, err = stringProperty(key, value)
			h.PropertyFlags |= FlagReplyTo
		case HeaderExpiration:
			h.Expiration, err = stringProperty(key, value)
			h.PropertyFlags |= FlagExpiration
		case HeaderMessageID:
			h.MessageID, err = stringProperty(key, value)
			h.PropertyFlags |= FlagMessageID
		case HeaderTimestamp:
			switch ts := value.(type) {
			case time.Time:
				h.Timestamp = ts
			case int64:
				h.Timestamp = time.Unix(ts, 0)
			default:
				err = fmt.Errorf("property %s: expected time.Time, got %T", key, value)
			}
			h.PropertyFlags |= FlagTimestamp
		case HeaderType:
			h.Type, err = stringProperty(key, value)
			h.PropertyFlags |= FlagType
		case HeaderUserID:
			h.UserID, err = stringProperty(key, value)
			h.PropertyFlags |= FlagUserID
		case HeaderAppID:
			h.AppID, err = stringProperty(key, value)
			h.PropertyFlags |= FlagAppID
		case HeaderClusterID:
			h.ClusterID, err = stringProperty(key, value)
			h.PropertyFlags |= FlagClusterID
		default:
			if h.Headers == nil {
				h.Headers = make(Table)
			}
			h.Headers[key] = value
			h.PropertyFlags |= FlagHeaders
		}
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func stringProperty(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("property %s: expected string, got %T", key, value)
	}
	return s, nil
}

func octetProperty(key string, value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case int:
		if v >= 0 && v <= 255 {
			return uint8(v), nil
		}
	case int64:
		if v >= 0 && v <= 255 {
			return uint8(v), nil
		}
	}
	return 0, fmt.Errorf("property %s: expected octet, got %v (%T)", key, value, value)
}

// FlatHeaders merges the present basic properties and the custom headers
// table into one map, keyed by the Header* names.
func (h *ContentHeader) FlatHeaders() Table {
	out := make(Table, len(h.Headers)+4)
	for k, v := range h.Headers {
		out[k] = v
	}
	f := h.PropertyFlags
	if f&FlagContentType != 0 {
		out[HeaderContentType] = h.ContentType
	}
	if f&FlagContentEncoding != 0 {
		out[HeaderContentEncoding] = h.ContentEncoding
	}
	if f&FlagDeliveryMode != 0 {
		out[HeaderDeliveryMode] = h.DeliveryMode
	}
	if f&FlagPriority != 0 {
		out[HeaderPriority] = h.Priority
	}
	if f&FlagCorrelationID != 0 {
		out[HeaderCorrelationID] = h.CorrelationID
	}
	if f&FlagReplyTo != 0 {
		out[HeaderReplyTo] = h.ReplyTo
	}
	if f&FlagExpiration != 0 {
		out[HeaderExpiration] = h.Expiration
	}
	if f&FlagMessageID != 0 {
		out[HeaderMessageID] = h.MessageID
	}
	if f&FlagTimestamp != 0 {
		out[HeaderTimestamp] = h.Timestamp
	}
	if f&FlagType != 0 {
		out[HeaderType] = h.Type
	}
	if f&FlagUserID != 0 {
		out[HeaderUserID] = h.UserID
	}
	if f&FlagAppID != 0 {
		out[HeaderAppID] = h.AppID
	}
	if f&FlagClusterID != 0 {
		out[HeaderClusterID] = h.ClusterID
	}
	return out
}

// Serialize encodes the header payload. Only properties whose flag is set
// are written.
func (h *ContentHeader) Serialize() ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	w := newArgWriter(buf)
	w.short(h.ClassID)
	w.short(h.Weight)
	w.longlong(h.BodySize)
	w.short(h.PropertyFlags)

	f := h.PropertyFlags
	if f&FlagContentType != 0 {
		w.shortstr(h.ContentType)
	}
	if f&FlagContentEncoding != 0 {
		w.shortstr(h.ContentEncoding)
	}
	if f&FlagHeaders != 0 {
		w.table(h.Headers)
	}
	if f&FlagDeliveryMode != 0 {
		w.octet(h.DeliveryMode)
	}
	if f&FlagPriority != 0 {
		w.octet(h.Priority)
	}
	if f&FlagCorrelationID != 0 {
		w.shortstr(h.CorrelationID)
	}
	if f&FlagReplyTo != 0 {
		w.shortstr(h.ReplyTo)
	}
	if f&FlagExpiration != 0 {
		w.shortstr(h.Expiration)
	}
	if f&FlagMessageID != 0 {
		w.shortstr(h.MessageID)
	}
	if f&FlagTimestamp != 0 {
		w.longlong(uint64(h.Timestamp.Unix()))
	}
	if f&FlagType != 0 {
		w.shortstr(h.Type)
	}
	if f&FlagUserID != 0 {
		w.shortstr(h.UserID)
	}
	if f&FlagAppID != 0 {
		w.shortstr(h.AppID)
	}
	if f&FlagClusterID != 0 {
		w.shortstr(h.ClusterID)
	}
	if err := w.finish(); err != nil {
		return nil, fmt.Errorf("serialize content header: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// ReadContentHeader decodes a content header frame payload.
func ReadContentHeader(payload []byte) (*ContentHeader, error) {
	if len(payload) < 14 {
		return nil, fmt.Errorf("content header frame too short: %d bytes", len(payload))
	}
	h := &ContentHeader{
		ClassID:       binary.BigEndian.Uint16(payload[0:2]),
		Weight:        binary.BigEndian.Uint16(payload[2:4]),
		BodySize:      binary.BigEndian.Uint64(payload[4:12]),
		PropertyFlags: binary.BigEndian.Uint16(payload[12:14]),
	}

	r := newArgReader(payload[14:])
	f := h.PropertyFlags
	if f&FlagContentType != 0 {
		h.ContentType = r.shortstr()
	}
	if f&FlagContentEncoding != 0 {
		h.ContentEncoding = r.shortstr()
	}
	if f&FlagHeaders != 0 {
		h.Headers = r.table()
	}
	if f&FlagDeliveryMode != 0 {
		h.DeliveryMode = r.octet()
	}
	if f&FlagPriority != 0 {
		h.Priority = r.octet()
	}
	if f&FlagCorrelationID != 0 {
		h.CorrelationID = r.shortstr()
	}
	if f&FlagReplyTo != 0 {
		h.ReplyTo = r.shortstr()
	}
	if f&FlagExpiration != 0 {
		h.Expiration = r.shortstr()
	}
	if f&FlagMessageID != 0 {
		h.MessageID = r.shortstr()
	}
	if f&FlagTimestamp != 0 {
		h.Timestamp = time.Unix(int64(r.longlong()), 0)
	}
	if f&FlagType != 0 {
		h.Type = r.shortstr()
	}
	if f&FlagUserID != 0 {
		h.UserID = r.shortstr()
	}
	if f&FlagAppID != 0 {
		h.AppID = r.shortstr()
	}
	if f&FlagClusterID != 0 {
		h.ClusterID = r.shortstr()
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode content header properties: %w", r.err)
	}
	return h, nil
}
