package client

import (
	"sort"

	"github.com/digitalnomadru/bunny/protocol"
)

// DeliveryFunc handles a message pushed to a consumer.
type DeliveryFunc func(msg *Message, ch *Channel, c *Client)

// ReturnFunc handles a message the broker could not route. ret carries the
// reply code and text.
type ReturnFunc func(msg *Message, ret *protocol.BasicReturnMethod)

// AckFunc receives every basic.ack and basic.nack of a confirm channel.
type AckFunc func(m protocol.Method)

// CancelFunc is told about consumers cancelled by the broker.
type CancelFunc func(consumerTag string)

// ReturnListener is a registration handle for a ReturnFunc. Registries
// compare handles by identity.
type ReturnListener struct {
	fn ReturnFunc
}

func NewReturnListener(fn ReturnFunc) *ReturnListener {
	return &ReturnListener{fn: fn}
}

// AckListener is a registration handle for an AckFunc.
type AckListener struct {
	fn AckFunc
}

func NewAckListener(fn AckFunc) *AckListener {
	return &AckListener{fn: fn}
}

// CancelListener is a registration handle for a CancelFunc.
type CancelListener struct {
	fn CancelFunc
}

func NewCancelListener(fn CancelFunc) *CancelListener {
	return &CancelListener{fn: fn}
}

// registry is an ordered set of listener handles.
type registry[T comparable] struct {
	items []T
}

// add appends item unless it is already present.
func (r *registry[T]) add(item T) bool {
	for _, existing := range r.items {
		if existing == item {
			return false
		}
	}
	r.items = append(r.items, item)
	return true
}

// remove deletes item and reports whether it was present.
func (r *registry[T]) remove(item T) bool {
	for i, existing := range r.items {
		if existing == item {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the current items so callbacks may modify the registry.
func (r *registry[T]) snapshot() []T {
	return append([]T(nil), r.items...)
}

func (r *registry[T]) len() int {
	return len(r.items)
}

// consumerTable maps consumer tags to their delivery callbacks.
type consumerTable struct {
	byTag map[string]DeliveryFunc
}

func newConsumerTable() *consumerTable {
	return &consumerTable{byTag: make(map[string]DeliveryFunc)}
}

func (t *consumerTable) register(tag string, fn DeliveryFunc) {
	t.byTag[tag] = fn
}

func (t *consumerTable) remove(tag string) bool {
	_, ok := t.byTag[tag]
	delete(t.byTag, tag)
	return ok
}

func (t *consumerTable) lookup(tag string) (DeliveryFunc, bool) {
	fn, ok := t.byTag[tag]
	return fn, ok
}

func (t *consumerTable) has(tag string) bool {
	_, ok := t.byTag[tag]
	return ok
}

func (t *consumerTable) clear() {
	t.byTag = make(map[string]DeliveryFunc)
}

// tags lists registered consumer tags in sorted order.
func (t *consumerTable) tags() []string {
	out := make([]string, 0, len(t.byTag))
	for tag := range t.byTag {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
