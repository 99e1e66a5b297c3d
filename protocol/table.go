package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Table is an AMQP field table.
//
// Values map to Go types as follows: t bool, b int8, B uint8, s int16,
// u uint16, I int32, i uint32, l int64, f float32, d float64, D Decimal,
// S string, A []interface{}, T time.Time, F Table, V nil, x []byte.
// Plain int values are encoded as l.
type Table map[string]interface{}

// Decimal is the AMQP decimal-value field type.
type Decimal struct {
	Scale uint8
	Value int32
}

// Clone returns a shallow copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// EncodeFieldTable encodes a field table including its length prefix.
func EncodeFieldTable(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTable(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFieldTable decodes a length-prefixed field table.
func DecodeFieldTable(data []byte) (Table, error) {
	return readTable(bytes.NewReader(data))
}

func writeTable(buf *bytes.Buffer, t Table) error {
	var body bytes.Buffer
	for key, value := range t {
		if len(key) > 255 {
			return fmt.Errorf("field table key too long: %d bytes", len(key))
		}
		body.WriteByte(byte(len(key)))
		body.WriteString(key)
		if err := writeField(&body, value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(body.Len()))
	buf.Write(size[:])
	buf.Write(body.Bytes())
	return nil
}

func writeField(buf *bytes.Buffer, value interface{}) error {
	var scratch [8]byte
	switch v := value.(type) {
	case bool:
		buf.WriteByte('t')
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case int8:
		buf.WriteByte('b')
		buf.WriteByte(byte(v))
	case uint8:
		buf.WriteByte('B')
		buf.WriteByte(v)
	case int16:
		buf.WriteByte('s')
		binary.BigEndian.PutUint16(scratch[:2], uint16(v))
		buf.Write(scratch[:2])
	case uint16:
		buf.WriteByte('u')
		binary.BigEndian.PutUint16(scratch[:2], v)
		buf.Write(scratch[:2])
	case int32:
		buf.WriteByte('I')
		binary.BigEndian.PutUint32(scratch[:4], uint32(v))
		buf.Write(scratch[:4])
	case uint32:
		buf.WriteByte('i')
		binary.BigEndian.PutUint32(scratch[:4], v)
		buf.Write(scratch[:4])
	case int64:
		buf.WriteByte('l')
		binary.BigEndian.PutUint64(scratch[:], uint64(v))
		buf.Write(scratch[:])
	case int:
		buf.WriteByte('l')
		binary.BigEndian.PutUint64(scratch[:], uint64(int64(v)))
		buf.Write(scratch[:])
	case float32:
		buf.WriteByte('f')
		binary.BigEndian.PutUint32(scratch[:4], math.Float32bits(v))
		buf.Write(scratch[:4])
	case float64:
		buf.WriteByte('d')
		binary.BigEndian.PutUint64(scratch[:], math.Float64bits(v))
		buf.Write(scratch[:])
	case Decimal:
		buf.WriteByte('D')
		buf.WriteByte(v.Scale)
		binary.BigEndian.PutUint32(scratch[:4], uint32(v.Value))
		buf.Write(scratch[:4])
	case string:
		buf.WriteByte('S')
		binary.BigEndian.PutUint32(scratch[:4], uint32(len(v)))
		buf.Write(scratch[:4])
		buf.WriteString(v)
	case []byte:
		buf.WriteByte('x')
		binary.BigEndian.PutUint32(scratch[:4], uint32(len(v)))
		buf.Write(scratch[:4])
		buf.Write(v)
	case []interface{}:
		buf.WriteByte('A')
		var arr bytes.Buffer
		for i, item := range v {
			if err := writeField(&arr, item); err != nil {
				return fmt.Errorf("array index %d: %w", i, err)
			}
		}
		binary.BigEndian.PutUint32(scratch[:4], uint32(arr.Len()))
		buf.Write(scratch[:4])
		buf.Write(arr.Bytes())
	case time.Time:
		buf.WriteByte('T')
		binary.BigEndian.PutUint64(scratch[:], uint64(v.Unix()))
		buf.Write(scratch[:])
	case Table:
		buf.WriteByte('F')
		return writeTable(buf, v)
	case map[string]interface{}:
		buf.WriteByte('F')
		return writeTable(buf, Table(v))
	case nil:
		buf.WriteByte('V')
	default:
		return fmt.Errorf("unsupported field value type %T", value)
	}
	return nil
}

func readTable(r *bytes.Reader) (Table, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("field table size: %w", err)
	}
	if int(size) > r.Len() {
		return nil, fmt.Errorf("field table size %d exceeds remaining %d bytes", size, r.Len())
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	t := make(Table)
	body := bytes.NewReader(data)
	for body.Len() > 0 {
		keyLen, err := body.ReadByte()
		if err != nil {
			return nil, err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(body, key); err != nil {
			return nil, fmt.Errorf("field table key: %w", err)
		}
		value, err := readField(body)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		t[string(key)] = value
	}
	return t, nil
}

func readField(r *bytes.Reader) (interface{}, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var scratch [8]byte
	fixed := func(n int) ([]byte, error) {
		if _, err := io.ReadFull(r, scratch[:n]); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		return scratch[:n], nil
	}
	switch kind {
	case 't':
		b, err := fixed(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case 'b':
		b, err := fixed(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case 'B':
		b, err := fixed(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case 's':
		b, err := fixed(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.BigEndian.Uint16(b)), nil
	case 'u':
		b, err := fixed(2)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint16(b), nil
	case 'I':
		b, err := fixed(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	case 'i':
		b, err := fixed(4)
		if err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint32(b), nil
	case 'l':
		b, err := fixed(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case 'f':
		b, err := fixed(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case 'd':
		b, err := fixed(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case 'D':
		b, err := fixed(5)
		if err != nil {
			return nil, err
		}
		return Decimal{Scale: b[0], Value: int32(binary.BigEndian.Uint32(b[1:5]))}, nil
	case 'S', 'x':
		b, err := fixed(4)
		if err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(b)
		if int(n) > r.Len() {
			return nil, io.ErrUnexpectedEOF
		}
		data := make([]byte, n)
		_, _ = io.ReadFull(r, data)
		if kind == 'S' {
			return string(data), nil
		}
		return data, nil
	case 'A':
		b, err := fixed(4)
		if err != nil {
			return nil, err
		}
		n := binary.BigEndian.Uint32(b)
		if int(n) > r.Len() {
			return nil, io.ErrUnexpectedEOF
		}
		data := make([]byte, n)
		_, _ = io.ReadFull(r, data)
		arr := bytes.NewReader(data)
		items := []interface{}{}
		for arr.Len() > 0 {
			item, err := readField(arr)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case 'T':
		b, err := fixed(8)
		if err != nil {
			return nil, err
		}
		return time.Unix(int64(binary.BigEndian.Uint64(b)), 0), nil
	case 'F':
		return readTable(r)
	case 'V':
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", kind)
	}
}
