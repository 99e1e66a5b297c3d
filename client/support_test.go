package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalnomadru/bunny/protocol"
)

func TestFlags(t *testing.T) {
	f := Durable | AutoDelete
	assert.True(t, f.Has(Durable))
	assert.True(t, f.Has(Durable|AutoDelete))
	assert.False(t, f.Has(Durable|Exclusive))
	assert.Equal(t, "durable|auto_delete", f.String())
	assert.Equal(t, "none", Flag(0).String())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		names []string
		want  Flag
		ok    bool
	}{
		{nil, 0, true},
		{[]string{"durable"}, Durable, true},
		{[]string{"Durable", "auto-delete", " internal "}, Durable | AutoDelete | Internal, true},
		{[]string{"no_wait", "if_unused"}, NoWait | IfUnused, true},
		{[]string{"durable", "sturdy"}, Durable, false},
	}
	for _, tt := range tests {
		got, ok := ParseFlags(tt.names)
		assert.Equal(t, tt.ok, ok, "%v", tt.names)
		assert.Equal(t, tt.want, got, "%v", tt.names)
	}
}

func TestStateAndModeNames(t *testing.T) {
	assert.Equal(t, "READY", StateReady.String())
	assert.Equal(t, "AWAITING_BODY", StateAwaitingBody.String())
	assert.True(t, StateClosed.Terminal())
	assert.True(t, StateError.Terminal())
	assert.False(t, StateClosing.Terminal())
	assert.Equal(t, "confirm", ModeConfirm.String())
}

func TestMessageHeaders(t *testing.T) {
	headers := protocol.Table{
		protocol.HeaderContentType:   "application/json",
		protocol.HeaderReplyTo:       "amq.rabbitmq.reply-to",
		protocol.HeaderCorrelationID: "42",
		"x-retry":                    int32(3),
	}
	msg := NewMessage([]byte("{}"), headers, "ex", "rk")
	headers["x-retry"] = int32(99)

	assert.Equal(t, "application/json", msg.ContentType())
	assert.Equal(t, "amq.rabbitmq.reply-to", msg.ReplyTo())
	assert.Equal(t, "42", msg.CorrelationID())
	assert.Equal(t, int32(3), msg.Header("x-retry"), "the message keeps its own copy")
	assert.True(t, msg.HasHeader("x-retry"))
	assert.False(t, msg.HasHeader("x-missing"))
	assert.Nil(t, msg.Header("x-missing"))

	copied := msg.Headers()
	copied["x-retry"] = int32(0)
	assert.Equal(t, int32(3), msg.Header("x-retry"))
	assert.Zero(t, msg.DeliveryTag())
}

func TestReplyContinuations(t *testing.T) {
	key := protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueueDeclareOK}
	r := newReply(nil, key)
	assert.True(t, r.matches(key))
	assert.False(t, r.matches(keyBasicQosOK))

	var order []string
	r.Then(func(m protocol.Method, err error) {
		require.NoError(t, err)
		order = append(order, "first:"+m.(*protocol.QueueDeclareOKMethod).Queue)
	})
	r.Then(func(protocol.Method, error) { order = append(order, "second") })
	assert.Empty(t, order)

	r.resolve(&protocol.QueueDeclareOKMethod{Queue: "q"})
	r.fail(assertError{})
	assert.Equal(t, []string{"first:q", "second"}, order)

	r.Then(func(protocol.Method, error) { order = append(order, "late") })
	assert.Equal(t, []string{"first:q", "second", "late"}, order)

	m, err := r.Result()
	require.NoError(t, err)
	assert.Equal(t, "q", m.(*protocol.QueueDeclareOKMethod).Queue)
}

type assertError struct{}

func (assertError) Error() string { return "unexpected" }

func TestRegistryIdentity(t *testing.T) {
	var reg registry[*ReturnListener]
	a := NewReturnListener(func(*Message, *protocol.BasicReturnMethod) {})
	b := NewReturnListener(func(*Message, *protocol.BasicReturnMethod) {})

	assert.True(t, reg.add(a))
	assert.False(t, reg.add(a))
	assert.True(t, reg.add(b))
	assert.Equal(t, 2, reg.len())

	snap := reg.snapshot()
	assert.True(t, reg.remove(a))
	assert.False(t, reg.remove(a))
	assert.Len(t, snap, 2, "snapshots are unaffected by later removal")
	assert.Equal(t, []*ReturnListener{b}, reg.snapshot())
}

func TestConsumerTable(t *testing.T) {
	table := newConsumerTable()
	table.register("b", func(*Message, *Channel, *Client) {})
	table.register("a", func(*Message, *Channel, *Client) {})

	assert.True(t, table.has("a"))
	assert.Equal(t, []string{"a", "b"}, table.tags())
	_, ok := table.lookup("b")
	assert.True(t, ok)

	assert.True(t, table.remove("b"))
	assert.False(t, table.remove("b"))
	table.clear()
	assert.Empty(t, table.tags())
}

func TestConfirmTracker(t *testing.T) {
	tracker := newConfirmTracker()
	for seq := uint64(1); seq <= 10; seq++ {
		tracker.add(seq)
	}
	assert.Equal(t, uint64(10), tracker.pending())

	tracker.settle(4, true, true)
	assert.Equal(t, []uint64{5, 6, 7, 8, 9, 10}, tracker.list())
	assert.False(t, tracker.takeNacked())

	tracker.settle(7, false, false)
	assert.Equal(t, []uint64{5, 6, 8, 9, 10}, tracker.list())
	assert.True(t, tracker.takeNacked())
	assert.False(t, tracker.takeNacked())

	tracker.settle(10, true, true)
	assert.True(t, tracker.empty())

	tracker.add(1)
	tracker.reset()
	assert.True(t, tracker.empty())
}
