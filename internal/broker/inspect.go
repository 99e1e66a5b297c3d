package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/digitalnomadru/bunny/protocol"
)

// Credentials returns what the client sent during the handshake.
func (b *Broker) Credentials() (username, password, vhost string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.username, b.password, b.vhost
}

// Mechanism returns the SASL mechanism the client chose.
func (b *Broker) Mechanism() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mechanism
}

// Received returns every frame the client sent, in order.
func (b *Broker) Received() []protocol.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]protocol.Frame(nil), b.received...)
}

// Methods returns every method the client sent, in order.
func (b *Broker) Methods() []protocol.Method {
	var out []protocol.Method
	for _, f := range b.Received() {
		if mf, ok := f.(*protocol.MethodFrame); ok {
			out = append(out, mf.Method)
		}
	}
	return out
}

// HasMethod reports whether the client sent a method of the given key.
func (b *Broker) HasMethod(key protocol.MethodKey) bool {
	for _, m := range b.Methods() {
		if m.Key() == key {
			return true
		}
	}
	return false
}

// WaitForMethod waits until the client has sent a method with key.
func (b *Broker) WaitForMethod(t testing.TB, key protocol.MethodKey) protocol.Method {
	var found protocol.Method
	require.Eventually(t, func() bool {
		for _, m := range b.Methods() {
			if m.Key() == key {
				found = m
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond, "client never sent %s", key)
	return found
}

// Enqueue places a message straight onto a queue, as if published by
// another client. The queue is created when missing.
func (b *Broker) Enqueue(name string, body []byte, headers protocol.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queues[name]
	if q == nil {
		q = &queue{name: name}
		b.queues[name] = q
	}
	header, err := protocol.NewContentHeader(protocol.ClassBasic, uint64(len(body)), headers)
	if err != nil {
		b.t.Errorf("broker header: %v", err)
		return
	}
	q.messages = append(q.messages, message{routingKey: name, header: header, body: body})
	b.dispatch(q)
}

// CancelConsumer cancels a consumer from the broker side, as happens when
// its queue is deleted.
func (b *Broker) CancelConsumer(tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c := b.removeConsumer(tag); c != nil {
		b.Method(c.channel, &protocol.BasicCancelMethod{ConsumerTag: tag})
	}
}

// CloseChannel closes a channel from the broker side.
func (b *Broker) CloseChannel(id uint16, code uint16, text string, cause protocol.MethodKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeChannel(id, code, text, cause)
}

// NackNextPublish makes the next confirmed publish come back as a nack.
func (b *Broker) NackNextPublish() {
	b.mu.Lock()
	b.nackNext = true
	b.mu.Unlock()
}

// QueueDepth returns the number of ready messages, or -1 when the queue
// does not exist.
func (b *Broker) QueueDepth(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q := b.queues[name]; q != nil {
		return len(q.messages)
	}
	return -1
}

// QueueArgs returns the arguments the queue was declared with.
func (b *Broker) QueueArgs(name string) protocol.Table {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q := b.queues[name]; q != nil {
		return q.args
	}
	return nil
}

// ConsumerCount returns the number of consumers on a queue.
func (b *Broker) ConsumerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q := b.queues[name]; q != nil {
		return len(q.consumers)
	}
	return 0
}

// ExchangeType returns the declared type of an exchange.
func (b *Broker) ExchangeType(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kind, ok := b.exchanges[name]
	return kind, ok
}

// ClientGone reports whether the client side of the pipe has closed.
func (b *Broker) ClientGone() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clientGone
}
