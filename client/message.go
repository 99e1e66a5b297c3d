package client

import (
	"github.com/digitalnomadru/bunny/protocol"
)

// Message is a completed delivery, return or fetch. It is never modified
// after the channel builds it.
type Message struct {
	content     []byte
	headers     protocol.Table
	exchange    string
	routingKey  string
	consumerTag string
	deliveryTag uint64
	redelivered bool
}

// NewMessage builds a message value. Channels build their own; this is for
// handlers and tests that need to fabricate one.
func NewMessage(content []byte, headers protocol.Table, exchange, routingKey string) *Message {
	return &Message{
		content:    content,
		headers:    headers.Clone(),
		exchange:   exchange,
		routingKey: routingKey,
	}
}

func (m *Message) Content() []byte { return m.content }

// Headers returns a copy of the basic properties and custom headers merged
// into one map.
func (m *Message) Headers() protocol.Table {
	return m.headers.Clone()
}

// Header returns the named header, or nil when absent.
func (m *Message) Header(name string) interface{} {
	return m.headers[name]
}

func (m *Message) HasHeader(name string) bool {
	_, ok := m.headers[name]
	return ok
}

func (m *Message) Exchange() string   { return m.exchange }
func (m *Message) RoutingKey() string { return m.routingKey }

// ConsumerTag is empty unless the message was pushed to a consumer.
func (m *Message) ConsumerTag() string { return m.consumerTag }

// DeliveryTag is zero for returned messages.
func (m *Message) DeliveryTag() uint64 { return m.deliveryTag }

func (m *Message) Redelivered() bool { return m.redelivered }

// ContentType is a shortcut for the content-type property.
func (m *Message) ContentType() string {
	s, _ := m.headers[protocol.HeaderContentType].(string)
	return s
}

// CorrelationID is a shortcut for the correlation-id property.
func (m *Message) CorrelationID() string {
	s, _ := m.headers[protocol.HeaderCorrelationID].(string)
	return s
}

// ReplyTo is a shortcut for the reply-to property.
func (m *Message) ReplyTo() string {
	s, _ := m.headers[protocol.HeaderReplyTo].(string)
	return s
}
