package client

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/digitalnomadru/bunny/config"
	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/internal/broker"
	"github.com/digitalnomadru/bunny/protocol"
)

var (
	keyConnectionClose = protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionClose}
	keyBasicAck        = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicAck}
)

func TestConnectHandshake(t *testing.T) {
	c, b := newTestClient(t, 4096, func(cb *config.ConfigBuilder) {
		cb.WithCredentials("alice", "secret").
			WithVirtualHost("staging").
			WithProtocolLimits(100, 0)
	})

	assert.True(t, c.Connected())
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, uint32(4096), c.FrameMax(), "the lower non-zero frame-max wins")
	assert.Equal(t, uint16(100), c.ChannelMax())
	assert.Zero(t, c.Heartbeat())
	assert.Equal(t, "bunny-broker", c.ServerProperties()["product"])

	username, password, vhost := b.Credentials()
	assert.Equal(t, "alice", username)
	assert.Equal(t, "secret", password)
	assert.Equal(t, "staging", vhost)

	received := b.Received()
	startOK := received[0].(*protocol.MethodFrame).Method.(*protocol.ConnectionStartOKMethod)
	assert.Equal(t, "PLAIN", startOK.Mechanism)
	assert.Equal(t, "bunny", startOK.ClientProperties["product"])
	caps := startOK.ClientProperties["capabilities"].(protocol.Table)
	assert.Equal(t, true, caps["publisher_confirms"])
	assert.Equal(t, true, caps["consumer_cancel_notify"])

	tuneOK := received[1].(*protocol.MethodFrame).Method.(*protocol.ConnectionTuneOKMethod)
	assert.Equal(t, uint16(100), tuneOK.ChannelMax)
	assert.Equal(t, uint32(4096), tuneOK.FrameMax)
}

func TestConnectAMQPlain(t *testing.T) {
	_, b := newTestClient(t, 0, func(cb *config.ConfigBuilder) {
		cb.WithCredentials("bob", "hunter2").WithMechanism("AMQPLAIN")
	})
	assert.Equal(t, "AMQPLAIN", b.Mechanism())
	username, password, _ := b.Credentials()
	assert.Equal(t, "bob", username)
	assert.Equal(t, "hunter2", password)
}

func TestConnectPicksOfferedMechanism(t *testing.T) {
	b, conn := broker.New(t, 0)
	b.SetMechanisms("AMQPLAIN")
	cfg, err := config.NewConfigBuilder().WithHeartbeat(0).Build()
	require.NoError(t, err)

	_, err = NewBuilderWithConfig(cfg).WithTransport(conn).Dial(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "AMQPLAIN", b.Mechanism())
}

func TestConnectRejectsUnofferedMechanism(t *testing.T) {
	b, conn := broker.New(t, 0)
	b.SetMechanisms("CRAM-MD5")
	cfg, err := config.NewConfigBuilder().WithHeartbeat(0).Build()
	require.NoError(t, err)

	c, err := NewBuilderWithConfig(cfg).WithTransport(conn).Build()
	require.NoError(t, err)
	err = c.Connect(testContext(t))
	require.Error(t, err)
	assert.True(t, amqperrors.IsAccessRefused(err))
	assert.False(t, c.Connected())
}

func TestConnectTwice(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	err := c.Connect(testContext(t))
	assert.True(t, amqperrors.IsUsageError(err))
}

func TestChannelIDsAreReused(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ctx := testContext(t)

	first, err := c.Channel(ctx)
	require.NoError(t, err)
	second, err := c.Channel(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), first.ID())
	assert.Equal(t, uint16(2), second.ID())

	require.NoError(t, first.Close(ctx, amqperrors.ReplySuccess, "done"))
	assert.Equal(t, StateClosed, first.State())

	third, err := c.Channel(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), third.ID())
}

func TestAbandonedChannelOpenKeepsID(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.Channel(cancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, c.channels, uint16(1))

	// The late open-ok for id 1 must not reach this channel.
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), ch.ID())
	_, err = ch.QueueDeclare(ctx, "after-abandon", 0, nil)
	require.NoError(t, err)

	for i := 0; i < 100 && len(c.channels) > 1; i++ {
		require.NoError(t, c.Run(ctx, 10*time.Millisecond))
	}
	assert.NotContains(t, c.channels, uint16(1))
	assert.True(t, b.HasMethod(protocol.MethodKey{Class: protocol.ClassChannel, Method: protocol.ChannelClose}))
	assert.True(t, c.Connected())
	require.NoError(t, c.Err())

	reused, err := c.Channel(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), reused.ID())
}

func TestConsumeScenario(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	ok, err := ch.QueueDeclare(ctx, "q", Durable, nil)
	require.NoError(t, err)
	assert.Equal(t, "q", ok.Queue)

	_, err = ch.Publish([]byte("hi"), nil, "", "q", false, false)
	require.NoError(t, err)

	var got []*Message
	tag, err := ch.Consume(ctx, func(msg *Message, from *Channel, conn *Client) {
		assert.Same(t, ch, from)
		assert.Same(t, c, conn)
		got = append(got, msg)
	}, "q", "", 0, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, tag)

	n, err := c.RunN(ctx, 5*time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, got, 1)
	msg := got[0]
	assert.Equal(t, []byte("hi"), msg.Content())
	assert.Equal(t, tag, msg.ConsumerTag())
	assert.Positive(t, msg.DeliveryTag())
	assert.False(t, msg.Redelivered())
	assert.Equal(t, "q", msg.RoutingKey())
}

func TestLargeMessageReassembly(t *testing.T) {
	c, _ := newTestClient(t, 4096, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	body := make([]byte, 10<<20)
	rand.New(rand.NewSource(42)).Read(body)

	_, err = ch.QueueDeclare(ctx, "big", 0, nil)
	require.NoError(t, err)
	_, err = ch.Publish(body, nil, "", "big", false, false)
	require.NoError(t, err)

	var got []byte
	_, err = ch.Consume(ctx, func(msg *Message, _ *Channel, _ *Client) {
		got = msg.Content()
	}, "big", "", NoAck, nil)
	require.NoError(t, err)

	n, err := c.RunN(ctx, 10*time.Second, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.True(t, bytes.Equal(body, got), "reassembled body differs")
}

func TestGetScenario(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	b.Enqueue("jobs", []byte("job-1"), protocol.Table{protocol.HeaderCorrelationID: "abc"})

	msg, err := ch.Get(ctx, "jobs", false)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, []byte("job-1"), msg.Content())
	assert.Equal(t, "abc", msg.CorrelationID())
	require.NoError(t, ch.Ack(msg, false))

	msg, err = ch.Get(ctx, "jobs", false)
	require.NoError(t, err)
	assert.Nil(t, msg, "an empty queue yields no message")

	ack := b.WaitForMethod(t, keyBasicAck).(*protocol.BasicAckMethod)
	assert.Equal(t, uint64(1), ack.DeliveryTag)
}

func TestPublisherConfirms(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(ctx, "q", 0, nil)
	require.NoError(t, err)

	var acked []uint64
	listener := NewAckListener(func(m protocol.Method) {
		if ack, ok := m.(*protocol.BasicAckMethod); ok {
			acked = append(acked, ack.DeliveryTag)
		}
	})
	require.NoError(t, ch.ConfirmSelect(ctx, listener, false))

	for want := uint64(1); want <= 3; want++ {
		tag, err := ch.Publish([]byte("m"), nil, "", "q", false, false)
		require.NoError(t, err)
		assert.Equal(t, want, tag)
	}
	ok, err := ch.WaitForConfirms(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []uint64{1, 2, 3}, acked)
	assert.Empty(t, ch.Unconfirmed())

	b.NackNextPublish()
	_, err = ch.Publish([]byte("m"), nil, "", "q", false, false)
	require.NoError(t, err)
	ok, err = ch.WaitForConfirms(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMandatoryReturn(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	var returned *Message
	var reply *protocol.BasicReturnMethod
	ch.AddReturnListener(NewReturnListener(func(msg *Message, ret *protocol.BasicReturnMethod) {
		returned, reply = msg, ret
		c.Stop()
	}))

	_, err = ch.Publish([]byte("lost"), protocol.Table{"x-id": "7"}, "", "nowhere", true, false)
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx, 5*time.Second))

	require.NotNil(t, returned)
	assert.Equal(t, []byte("lost"), returned.Content())
	assert.Equal(t, "7", returned.Header("x-id"))
	assert.Equal(t, uint16(amqperrors.NoRoute), reply.ReplyCode)
	assert.Equal(t, "nowhere", reply.RoutingKey)
}

func TestTopologyOperations(t *testing.T) {
	c, b := newTestClient(t, 0, func(cb *config.ConfigBuilder) {
		cb.WithDefaultQueueArgument("x-queue-type", "classic")
	})
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	require.NoError(t, ch.ExchangeDeclare(ctx, "logs", "direct", Durable, nil))
	kind, ok := b.ExchangeType("logs")
	require.True(t, ok)
	assert.Equal(t, "direct", kind)

	decl, err := ch.QueueDeclare(ctx, "", Exclusive|AutoDelete, nil)
	require.NoError(t, err)
	assert.Equal(t, "amq.gen-1", decl.Queue)
	assert.Equal(t, "classic", b.QueueArgs(decl.Queue)["x-queue-type"])

	require.NoError(t, ch.QueueBind(ctx, decl.Queue, "logs", "error", 0, nil))
	_, err = ch.Publish([]byte("disk full"), nil, "logs", "error", false, false)
	require.NoError(t, err)
	_, err = ch.Publish([]byte("ignored"), nil, "logs", "info", false, false)
	require.NoError(t, err)

	purged, err := ch.QueuePurge(ctx, decl.Queue, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), purged)

	require.NoError(t, ch.QueueUnbind(ctx, decl.Queue, "logs", "error", nil))
	require.NoError(t, ch.ExchangeDeclare(ctx, "audit", "fanout", 0, nil))
	require.NoError(t, ch.ExchangeBind(ctx, "audit", "logs", "error", 0, nil))
	require.NoError(t, ch.ExchangeUnbind(ctx, "audit", "logs", "error", 0, nil))
	require.NoError(t, ch.Qos(ctx, 0, 10, false))
	require.NoError(t, ch.Recover(ctx, true))
	require.NoError(t, ch.RecoverAsync(true))

	deleted, err := ch.QueueDelete(ctx, decl.Queue, IfEmpty)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, -1, b.QueueDepth(decl.Queue))

	require.NoError(t, ch.ExchangeDelete(ctx, "audit", IfUnused))
	_, ok = b.ExchangeType("audit")
	assert.False(t, ok)

	// no-wait variants return without a round trip
	require.NoError(t, ch.ExchangeDeclare(ctx, "fast", "topic", NoWait, nil))
	n, err := ch.QueuePurge(ctx, "q", NoWait)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ch.pending)
}

func TestTransactions(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	assert.True(t, amqperrors.IsUsageError(ch.TxCommit(ctx)))

	require.NoError(t, ch.TxSelect(ctx))
	assert.Equal(t, ModeTransactional, ch.Mode())
	_, err = ch.Publish([]byte("a"), nil, "", "q", false, false)
	require.NoError(t, err)
	require.NoError(t, ch.TxCommit(ctx))
	require.NoError(t, ch.TxRollback(ctx))

	assert.True(t, b.HasMethod(protocol.MethodKey{Class: protocol.ClassTx, Method: protocol.TxCommit}))
	assert.True(t, b.HasMethod(protocol.MethodKey{Class: protocol.ClassTx, Method: protocol.TxRollback}))
}

func TestServerClosesChannelOnWait(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	_, err = ch.QueueDeclare(ctx, "missing", Passive, nil)
	require.Error(t, err)
	assert.True(t, amqperrors.IsChannelError(err))
	assert.True(t, amqperrors.IsNotFound(err))
	assert.Equal(t, StateClosed, ch.State())
	assert.Same(t, err, ch.Err())

	// The connection survives a channel-level closure.
	require.NoError(t, c.Err())
	other, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = other.QueueDeclare(ctx, "present", 0, nil)
	require.NoError(t, err)
}

func TestRunSurfacesChannelClose(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)

	b.CloseChannel(ch.ID(), 406, "PRECONDITION_FAILED - unknown delivery tag 9",
		protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicAck})

	err = c.Run(ctx, 5*time.Second)
	require.Error(t, err)
	assert.True(t, amqperrors.IsChannelError(err))
	assert.True(t, amqperrors.IsPreconditionFailed(err))
	assert.Equal(t, StateClosed, ch.State())
	assert.True(t, c.Connected())

	b.WaitForMethod(t, keyChannelCloseOK)
}

func TestBrokerCancelsConsumer(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(ctx, "q", 0, nil)
	require.NoError(t, err)

	tag, err := ch.Consume(ctx, func(*Message, *Channel, *Client) {}, "q", "worker-1", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "worker-1", tag)

	var cancelled string
	ch.AddCancelListener(NewCancelListener(func(tag string) {
		cancelled = tag
		c.Stop()
	}))
	b.CancelConsumer(tag)

	require.NoError(t, c.Run(ctx, 5*time.Second))
	assert.Equal(t, "worker-1", cancelled)
	assert.Empty(t, ch.ConsumerTags())
	b.WaitForMethod(t, keyBasicCancelOK)
}

func TestCancelStopsDeliveries(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(ctx, "q", 0, nil)
	require.NoError(t, err)

	calls := 0
	tag, err := ch.Consume(ctx, func(*Message, *Channel, *Client) { calls++ }, "q", "", NoAck, nil)
	require.NoError(t, err)
	require.NoError(t, ch.Cancel(ctx, tag, false))

	b.Enqueue("q", []byte("after cancel"), nil)
	require.NoError(t, c.Run(ctx, 100*time.Millisecond))
	assert.Zero(t, calls)
	assert.Equal(t, 1, b.QueueDepth("q"))
}

func TestRunNBudget(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(ctx, "q", 0, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b.Enqueue("q", []byte{byte('0' + i)}, nil)
	}

	var bodies []string
	_, err = ch.Consume(ctx, func(msg *Message, _ *Channel, _ *Client) {
		bodies = append(bodies, string(msg.Content()))
	}, "q", "", NoAck, nil)
	require.NoError(t, err)

	n, err := c.RunN(ctx, 5*time.Second, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"0", "1"}, bodies)

	n, err = c.RunN(ctx, 5*time.Second, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, bodies)
}

func TestBlockingCallsInsideCallbacks(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	ch, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(ctx, "in", 0, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		b.Enqueue("in", []byte("work"), nil)
	}

	handled := 0
	_, err = ch.Consume(ctx, func(msg *Message, ch *Channel, _ *Client) {
		decl, err := ch.QueueDeclare(ctx, "out", 0, nil)
		require.NoError(t, err)
		_, err = ch.Publish(msg.Content(), nil, "", decl.Queue, false, false)
		require.NoError(t, err)
		require.NoError(t, ch.Ack(msg, false))
		handled++
	}, "in", "", 0, nil)
	require.NoError(t, err)

	n, err := c.RunN(ctx, 5*time.Second, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, handled)
	require.Eventually(t, func() bool { return b.QueueDepth("out") == 3 }, 5*time.Second, 5*time.Millisecond)
}

func TestRunTimeBound(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	start := time.Now()
	require.NoError(t, c.Run(testContext(t), 50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, c.Connected())
}

func TestRunContextCancel(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := c.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, c.Connected(), "cancellation does not fail the connection")
}

func TestHeartbeats(t *testing.T) {
	b, conn := broker.New(t, 0)
	b.SetHeartbeat(1)

	cfg, err := config.NewConfigBuilder().WithHeartbeat(10 * time.Second).Build()
	require.NoError(t, err)
	c, err := NewBuilderWithConfig(cfg).
		WithLogger(zaptest.NewLogger(t)).
		WithTransport(conn).
		Dial(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.Heartbeat())

	b.Send(&protocol.HeartbeatFrame{})
	require.NoError(t, c.Run(testContext(t), 1500*time.Millisecond))

	beats := 0
	for _, f := range b.Received() {
		if _, ok := f.(*protocol.HeartbeatFrame); ok {
			beats++
		}
	}
	assert.Positive(t, beats)
}

func TestBlockedNotifications(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	var events []string
	c.OnBlocked(func(blocked bool, reason string) {
		if blocked {
			events = append(events, "blocked:"+reason)
			return
		}
		events = append(events, "unblocked")
		c.Stop()
	})

	b.Method(0, &protocol.ConnectionBlockedMethod{Reason: "low memory"})
	b.Method(0, &protocol.ConnectionUnblockedMethod{})
	require.NoError(t, c.Run(testContext(t), 5*time.Second))
	assert.Equal(t, []string{"blocked:low memory", "unblocked"}, events)
	assert.False(t, c.Blocked())
}

func TestBrokerClosesConnection(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ch, err := c.Channel(testContext(t))
	require.NoError(t, err)

	b.Method(0, &protocol.ConnectionCloseMethod{ReplyCode: 320, ReplyText: "CONNECTION_FORCED - shutdown"})
	err = c.Run(testContext(t), 5*time.Second)
	require.Error(t, err)
	assert.True(t, amqperrors.IsConnectionError(err))
	assert.True(t, amqperrors.IsServerClosure(err))
	assert.False(t, c.Connected())
	assert.Equal(t, StateError, ch.State())

	_, err = c.Channel(testContext(t))
	assert.True(t, amqperrors.IsConnectionError(err))
	b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionCloseOK})
}

func TestUnknownChannelFailsConnection(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	b.Method(9, &protocol.ChannelFlowMethod{Active: true})

	err := c.Run(testContext(t), 5*time.Second)
	require.Error(t, err)
	assert.True(t, amqperrors.IsProtocolError(err))
	assert.True(t, amqperrors.IsFatal(err))

	closing := b.WaitForMethod(t, keyConnectionClose).(*protocol.ConnectionCloseMethod)
	assert.Equal(t, uint16(amqperrors.ChannelErrorCode), closing.ReplyCode)
}

func TestMalformedFrameFailsConnection(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	b.SendRaw([]byte{protocol.FrameMethod, 0, 0, 0, 0, 0, 0, 0x00})

	err := c.Run(testContext(t), 5*time.Second)
	require.Error(t, err)
	assert.True(t, amqperrors.IsProtocolError(err))
	assert.Equal(t, amqperrors.FrameError, amqperrors.GetErrorCode(err))

	closing := b.WaitForMethod(t, keyConnectionClose).(*protocol.ConnectionCloseMethod)
	assert.Equal(t, uint16(amqperrors.FrameError), closing.ReplyCode)
}

func TestTransportEOF(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ch, err := c.Channel(testContext(t))
	require.NoError(t, err)
	// The test broker never answers a client-initiated flow.
	r, err := ch.request(&protocol.ChannelFlowMethod{Active: false}, true,
		protocol.MethodKey{Class: protocol.ClassChannel, Method: protocol.ChannelFlowOK})
	require.NoError(t, err)
	b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassChannel, Method: protocol.ChannelFlow})

	b.HangUp()

	err = c.Run(testContext(t), 5*time.Second)
	require.Error(t, err)
	assert.True(t, amqperrors.IsTransportError(err))
	assert.Equal(t, StateError, ch.State())
	require.True(t, r.Done())
	_, rerr := r.Result()
	assert.Same(t, err, rerr)

	_, err = ch.Publish([]byte("x"), nil, "", "q", false, false)
	assert.True(t, amqperrors.IsTransportError(err))
}

func TestDisconnect(t *testing.T) {
	c, b := newTestClient(t, 0, nil)
	ctx := testContext(t)
	first, err := c.Channel(ctx)
	require.NoError(t, err)
	second, err := c.Channel(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Disconnect(ctx, amqperrors.ReplySuccess, "bye"))
	assert.False(t, c.Connected())
	assert.Equal(t, StateClosed, first.State())
	assert.Equal(t, StateClosed, second.State())
	assert.True(t, b.HasMethod(keyConnectionClose))

	_, err = c.Channel(ctx)
	assert.True(t, amqperrors.IsUsageError(err))
	assert.True(t, amqperrors.IsUsageError(c.Disconnect(ctx, amqperrors.ReplySuccess, "again")))
}

func TestAbort(t *testing.T) {
	c, _ := newTestClient(t, 0, nil)
	ch, err := c.Channel(testContext(t))
	require.NoError(t, err)

	c.Abort()
	assert.False(t, c.Connected())
	assert.Equal(t, StateError, ch.State())
	assert.True(t, amqperrors.IsUsageError(c.Err()))
}

func TestFactoryPreparesChannel(t *testing.T) {
	b, conn := broker.New(t, 0)
	cfg, err := config.NewConfigBuilder().
		WithQos(0, 25, true).
		WithExchange("events", "topic", "durable").
		Build()
	require.NoError(t, err)

	ch, err := NewFactory(NewBuilderWithConfig(cfg).
		WithLogger(zaptest.NewLogger(t)).
		WithTransport(conn)).
		Channel(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, StateReady, ch.State())

	qos := b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicQos}).(*protocol.BasicQosMethod)
	assert.Equal(t, uint16(25), qos.PrefetchCount)
	assert.True(t, qos.Global)

	decl := b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassExchange, Method: protocol.ExchangeDeclare}).(*protocol.ExchangeDeclareMethod)
	assert.Equal(t, "events", decl.Exchange)
	assert.Equal(t, "topic", decl.Type)
	assert.True(t, decl.Durable)
}

func TestFactoryRejectsUnknownFlag(t *testing.T) {
	_, conn := broker.New(t, 0)
	cfg, err := config.NewConfigBuilder().
		WithExchange("events", "topic", "sturdy").
		Build()
	require.NoError(t, err)

	_, err = NewFactory(NewBuilderWithConfig(cfg).WithTransport(conn)).Channel(testContext(t))
	require.Error(t, err)
	var cfgErr *amqperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
