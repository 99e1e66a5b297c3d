package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitArgumentsShareOneOctet(t *testing.T) {
	m := &QueueDeclareMethod{Queue: "q", Durable: true, AutoDelete: true}
	args, err := m.Serialize()
	require.NoError(t, err)

	// reserved(2) + shortstr "q"(2) + bits(1) + empty table(4)
	require.Len(t, args, 9)
	// passive=bit0 durable=bit1 exclusive=bit2 auto-delete=bit3 no-wait=bit4
	assert.Equal(t, byte(0x0A), args[4])
}

func TestBitsFlushBeforeFollowingField(t *testing.T) {
	m := &BasicDeliverMethod{ConsumerTag: "c", DeliveryTag: 1, Redelivered: true, Exchange: "ex", RoutingKey: "rk"}
	args, err := m.Serialize()
	require.NoError(t, err)

	// shortstr(2) + longlong(8) + bits(1) + shortstr(3) + shortstr(3)
	require.Len(t, args, 17)
	assert.Equal(t, byte(0x01), args[10])
	assert.Equal(t, byte(2), args[11])
}

func TestMethodRoundTrip(t *testing.T) {
	methods := []Method{
		&ConnectionStartMethod{VersionMajor: 0, VersionMinor: 9, ServerProperties: Table{"product": "RabbitMQ"}, Mechanisms: "PLAIN AMQPLAIN", Locales: "en_US"},
		&ConnectionStartOKMethod{ClientProperties: Table{"product": "bunny"}, Mechanism: "PLAIN", Response: []byte("\x00guest\x00guest"), Locale: "en_US"},
		&ConnectionTuneMethod{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60},
		&ConnectionOpenMethod{VirtualHost: "/"},
		&ConnectionCloseMethod{ReplyCode: 320, ReplyText: "CONNECTION_FORCED", ClassID: 0, MethodID: 0},
		&ConnectionBlockedMethod{Reason: "low on memory"},
		&ChannelFlowMethod{Active: true},
		&ChannelCloseMethod{ReplyCode: 404, ReplyText: "NOT_FOUND - no queue 'x'", ClassID: ClassQueue, MethodID: QueueDeclare},
		&ExchangeDeclareMethod{Exchange: "logs", Type: "fanout", Durable: true, Internal: true, Arguments: Table{"alternate-exchange": "ae"}},
		&ExchangeDeleteMethod{Exchange: "logs", IfUnused: true, NoWait: true},
		&ExchangeBindMethod{Destination: "d", Source: "s", RoutingKey: "k", NoWait: true, Arguments: Table{}},
		&QueueDeclareMethod{Queue: "q", Exclusive: true, NoWait: true, Arguments: Table{"x-max-length": int32(5)}},
		&QueueDeclareOKMethod{Queue: "amq.gen-1", MessageCount: 3, ConsumerCount: 1},
		&QueueBindMethod{Queue: "q", Exchange: "ex", RoutingKey: "rk", Arguments: Table{}},
		&QueuePurgeOKMethod{MessageCount: 12},
		&QueueDeleteMethod{Queue: "q", IfUnused: true, IfEmpty: true},
		&QueueUnbindMethod{Queue: "q", Exchange: "ex", RoutingKey: "rk", Arguments: Table{}},
		&BasicQosMethod{PrefetchCount: 1, Global: true},
		&BasicConsumeMethod{Queue: "q", ConsumerTag: "ctag", NoAck: true, Exclusive: true, Arguments: Table{}},
		&BasicCancelMethod{ConsumerTag: "ctag", NoWait: true},
		&BasicPublishMethod{Exchange: "", RoutingKey: "q", Mandatory: true},
		&BasicReturnMethod{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: "ex", RoutingKey: "missing"},
		&BasicGetOKMethod{DeliveryTag: 42, Redelivered: true, Exchange: "", RoutingKey: "q", MessageCount: 7},
		&BasicNackMethod{DeliveryTag: 5, Multiple: true, Requeue: true},
		&BasicRecoverMethod{Requeue: true},
		&ConfirmSelectMethod{NoWait: true},
		&TxCommitOKMethod{},
	}

	for _, m := range methods {
		t.Run(MethodName(m), func(t *testing.T) {
			payload, err := EncodeMethod(m)
			require.NoError(t, err)

			decoded, err := DecodeMethod(payload)
			require.NoError(t, err)
			assert.Equal(t, m, decoded)
		})
	}
}

func TestDecodeMethodErrors(t *testing.T) {
	_, err := DecodeMethod([]byte{0x00})
	assert.Error(t, err)

	_, err = DecodeMethod([]byte{0x00, 0x63, 0x00, 0x01})
	var unknown *UnknownMethodError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, MethodKey{99, 1}, unknown.Key)

	// queue.declare-ok truncated inside the message count
	_, err = DecodeMethod([]byte{0x00, 0x32, 0x00, 0x0B, 0x01, 'q', 0x00})
	assert.Error(t, err)
}

func TestHasContent(t *testing.T) {
	assert.True(t, HasContent(&BasicDeliverMethod{}))
	assert.True(t, HasContent(&BasicReturnMethod{}))
	assert.True(t, HasContent(&BasicGetOKMethod{}))
	assert.True(t, HasContent(&BasicPublishMethod{}))
	assert.False(t, HasContent(&BasicGetEmptyMethod{}))
	assert.False(t, HasContent(&ChannelCloseOKMethod{}))
}

func TestShortStringTooLong(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err := (&QueueDeclareMethod{Queue: string(long)}).Serialize()
	assert.Error(t, err)
}
