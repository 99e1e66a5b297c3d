package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// argWriter encodes method arguments. Consecutive bit arguments share one
// octet, first bit in the least significant position; any other argument
// flushes pending bits.
type argWriter struct {
	buf   *bytes.Buffer
	bits  byte
	nbits uint
	err   error
}

func newArgWriter(buf *bytes.Buffer) *argWriter {
	return &argWriter{buf: buf}
}

func (w *argWriter) flushBits() {
	if w.nbits > 0 {
		w.buf.WriteByte(w.bits)
		w.bits = 0
		w.nbits = 0
	}
}

func (w *argWriter) bit(v bool) {
	if w.nbits == 8 {
		w.flushBits()
	}
	if v {
		w.bits |= 1 << w.nbits
	}
	w.nbits++
}

func (w *argWriter) octet(v byte) {
	w.flushBits()
	w.buf.WriteByte(v)
}

func (w *argWriter) short(v uint16) {
	w.flushBits()
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *argWriter) long(v uint32) {
	w.flushBits()
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *argWriter) longlong(v uint64) {
	w.flushBits()
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *argWriter) shortstr(s string) {
	w.flushBits()
	if len(s) > 255 {
		w.setErr(fmt.Errorf("short string too long: %d bytes", len(s)))
		return
	}
	w.buf.WriteByte(byte(len(s)))
	w.buf.WriteString(s)
}

func (w *argWriter) longstr(s []byte) {
	w.long(uint32(len(s)))
	w.buf.Write(s)
}

func (w *argWriter) table(t Table) {
	w.flushBits()
	if err := writeTable(w.buf, t); err != nil {
		w.setErr(err)
	}
}

func (w *argWriter) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// finish flushes trailing bits and reports the first encoding error.
func (w *argWriter) finish() error {
	w.flushBits()
	return w.err
}

// argReader decodes method arguments, mirroring argWriter.
type argReader struct {
	r     *bytes.Reader
	bits  byte
	nbits uint
	err   error
}

func newArgReader(data []byte) *argReader {
	return &argReader{r: bytes.NewReader(data)}
}

func (r *argReader) resetBits() {
	r.nbits = 0
}

func (r *argReader) fail(err error) {
	if r.err == nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

func (r *argReader) bit() bool {
	if r.err != nil {
		return false
	}
	if r.nbits == 0 || r.nbits == 8 {
		b, err := r.r.ReadByte()
		if err != nil {
			r.fail(err)
			return false
		}
		r.bits = b
		r.nbits = 0
	}
	v := r.bits&(1<<r.nbits) != 0
	r.nbits++
	return v
}

func (r *argReader) octet() byte {
	r.resetBits()
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.fail(err)
	}
	return b
}

func (r *argReader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.r.Len() {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	b := make([]byte, n)
	_, _ = io.ReadFull(r.r, b)
	return b
}

func (r *argReader) short() uint16 {
	r.resetBits()
	b := r.read(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *argReader) long() uint32 {
	r.resetBits()
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *argReader) longlong() uint64 {
	r.resetBits()
	b := r.read(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *argReader) shortstr() string {
	n := r.octet()
	return string(r.read(int(n)))
}

func (r *argReader) longstr() []byte {
	n := r.long()
	if r.err != nil {
		return nil
	}
	return r.read(int(n))
}

func (r *argReader) table() Table {
	r.resetBits()
	if r.err != nil {
		return nil
	}
	t, err := readTable(r.r)
	if err != nil {
		r.fail(err)
		return nil
	}
	return t
}
