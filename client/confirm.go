package client

import (
	"github.com/RoaringBitmap/roaring/roaring64"
)

// confirmTracker holds publish sequence numbers not yet acked or nacked by
// the broker.
type confirmTracker struct {
	outstanding *roaring64.Bitmap
	nacked      bool
}

func newConfirmTracker() *confirmTracker {
	return &confirmTracker{outstanding: roaring64.New()}
}

func (t *confirmTracker) add(seq uint64) {
	t.outstanding.Add(seq)
}

// settle removes tag, or every tag up to and including it when multiple.
func (t *confirmTracker) settle(tag uint64, multiple, ack bool) {
	if multiple {
		t.outstanding.RemoveRange(0, tag+1)
	} else {
		t.outstanding.Remove(tag)
	}
	if !ack {
		t.nacked = true
	}
}

func (t *confirmTracker) pending() uint64 {
	return t.outstanding.GetCardinality()
}

func (t *confirmTracker) empty() bool {
	return t.outstanding.IsEmpty()
}

func (t *confirmTracker) list() []uint64 {
	return t.outstanding.ToArray()
}

// takeNacked reports whether a nack arrived since the last call.
func (t *confirmTracker) takeNacked() bool {
	n := t.nacked
	t.nacked = false
	return n
}

func (t *confirmTracker) reset() {
	t.outstanding.Clear()
	t.nacked = false
}
