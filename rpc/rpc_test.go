package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/codec"
	"github.com/digitalnomadru/bunny/config"
	"github.com/digitalnomadru/bunny/internal/broker"
	"github.com/digitalnomadru/bunny/protocol"
)

type sumRequest struct {
	A int `json:"a" cbor:"a"`
	B int `json:"b" cbor:"b"`
}

type sumResponse struct {
	Sum int `json:"sum" cbor:"sum"`
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// setup connects a client and opens a server channel and a caller channel.
func setup(t *testing.T) (*broker.Broker, *client.Channel, *client.Channel) {
	b, conn := broker.New(t, 0)
	cfg, err := config.NewConfigBuilder().WithHeartbeat(0).Build()
	require.NoError(t, err)

	ctx := testContext(t)
	c, err := client.NewBuilderWithConfig(cfg).
		WithLogger(zaptest.NewLogger(t)).
		WithTransport(conn).
		Dial(ctx)
	require.NoError(t, err)

	serverCh, err := c.Channel(ctx)
	require.NoError(t, err)
	callerCh, err := c.Channel(ctx)
	require.NoError(t, err)
	_, err = serverCh.QueueDeclare(ctx, "rpc.sum", 0, nil)
	require.NoError(t, err)
	return b, serverCh, callerCh
}

func sumHandler(cd codec.Codec) Handler {
	return Handle(cd, func(_ context.Context, req sumRequest) (sumResponse, error) {
		if req.A < 0 || req.B < 0 {
			return sumResponse{}, errors.New("negative operand")
		}
		return sumResponse{Sum: req.A + req.B}, nil
	})
}

func TestCallValue(t *testing.T) {
	b, serverCh, callerCh := setup(t)
	ctx := testContext(t)

	srv := NewServer(serverCh, "rpc.sum", sumHandler(codec.JSON{}))
	require.NoError(t, srv.Start(ctx))

	caller := NewCaller(callerCh, WithTimeout(5*time.Second))
	for i := 1; i <= 3; i++ {
		resp, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: i, B: 10})
		require.NoError(t, err)
		assert.Equal(t, i+10, resp.Sum)
	}
	assert.Equal(t, 3, srv.Handled())

	consume := b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicConsume})
	assert.Contains(t, []string{DirectReplyTo, "rpc.sum"}, consume.(*protocol.BasicConsumeMethod).Queue)
	b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicAck})
}

func TestCallerConsumesReplyToWithNoAck(t *testing.T) {
	b, serverCh, callerCh := setup(t)
	ctx := testContext(t)
	require.NoError(t, NewServer(serverCh, "rpc.sum", sumHandler(codec.JSON{})).Start(ctx))

	caller := NewCaller(callerCh)
	_, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: 1, B: 1})
	require.NoError(t, err)

	var found bool
	for _, m := range b.Methods() {
		if consume, ok := m.(*protocol.BasicConsumeMethod); ok && consume.Queue == DirectReplyTo {
			found = true
			assert.True(t, consume.NoAck)
		}
	}
	assert.True(t, found)
}

func TestCallCBOR(t *testing.T) {
	_, serverCh, callerCh := setup(t)
	ctx := testContext(t)
	cbor, err := codec.NewCBOR()
	require.NoError(t, err)

	require.NoError(t, NewServer(serverCh, "rpc.sum", sumHandler(cbor)).Start(ctx))
	caller := NewCaller(callerCh, WithCodec(cbor))

	resp, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: 20, B: 22})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Sum)
}

func TestRemoteError(t *testing.T) {
	_, serverCh, callerCh := setup(t)
	ctx := testContext(t)
	srv := NewServer(serverCh, "rpc.sum", sumHandler(codec.JSON{}))
	require.NoError(t, srv.Start(ctx))

	caller := NewCaller(callerCh)
	_, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: -1, B: 1})
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "negative operand", remote.Message)

	// The caller stays usable after a remote failure.
	resp, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: 2, B: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Sum)
}

func TestCallRawHeaders(t *testing.T) {
	_, serverCh, callerCh := setup(t)
	ctx := testContext(t)

	var seen *client.Message
	srv := NewServer(serverCh, "rpc.sum", func(_ context.Context, req *client.Message) ([]byte, protocol.Table, error) {
		seen = req
		return []byte("pong"), protocol.Table{"x-served-by": "test"}, nil
	})
	require.NoError(t, srv.Start(ctx))

	caller := NewCaller(callerCh)
	reply, err := caller.Call(ctx, "", "rpc.sum", []byte("ping"), protocol.Table{"x-trace": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "pong", string(reply.Content()))
	assert.Equal(t, "test", reply.Header("x-served-by"))

	require.NotNil(t, seen)
	assert.Equal(t, "abc", seen.Header("x-trace"))
	assert.NotEmpty(t, seen.CorrelationID())
	assert.Equal(t, seen.CorrelationID(), reply.CorrelationID())
	assert.Contains(t, seen.ReplyTo(), DirectReplyTo)
}

func TestCallTimesOut(t *testing.T) {
	_, _, callerCh := setup(t)
	caller := NewCaller(callerCh, WithTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := caller.Call(testContext(t), "", "rpc.sum", []byte("nobody listens"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStrayReplyIsDiscarded(t *testing.T) {
	_, _, callerCh := setup(t)
	caller := NewCaller(callerCh)

	caller.pending = "wanted"
	caller.onReply(client.NewMessage([]byte("late"), protocol.Table{protocol.HeaderCorrelationID: "old"}, "", ""), nil, nil)
	assert.Nil(t, caller.reply)

	caller.onReply(client.NewMessage([]byte("ok"), protocol.Table{protocol.HeaderCorrelationID: "wanted"}, "", ""), nil, nil)
	require.NotNil(t, caller.reply)
	assert.Equal(t, "ok", string(caller.reply.Content()))
}

func TestServerAcksRequestWithoutReplyTo(t *testing.T) {
	b, serverCh, _ := setup(t)
	ctx := testContext(t)
	called := false
	srv := NewServer(serverCh, "rpc.sum", func(context.Context, *client.Message) ([]byte, protocol.Table, error) {
		called = true
		return nil, nil, nil
	})
	require.NoError(t, srv.Start(ctx))

	b.Enqueue("rpc.sum", []byte("fire and forget"), nil)
	n, err := serverCh.Client().RunN(ctx, 5*time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.False(t, called)
	assert.Zero(t, srv.Handled())
	b.WaitForMethod(t, protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicAck})
}

func TestStopAndClose(t *testing.T) {
	b, serverCh, callerCh := setup(t)
	ctx := testContext(t)
	srv := NewServer(serverCh, "rpc.sum", sumHandler(codec.JSON{}))
	require.NoError(t, srv.Start(ctx))
	require.NoError(t, srv.Start(ctx), "starting twice is a no-op")
	assert.NotEmpty(t, srv.ConsumerTag())

	caller := NewCaller(callerCh)
	_, err := CallValue[sumRequest, sumResponse](ctx, caller, "", "rpc.sum", sumRequest{A: 1, B: 2})
	require.NoError(t, err)

	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, caller.Close(ctx))
	assert.Zero(t, b.ConsumerCount("rpc.sum"))
	assert.Empty(t, serverCh.ConsumerTags())
	assert.Empty(t, callerCh.ConsumerTags())

	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, caller.Close(ctx))
}

func TestServeEndsWithContext(t *testing.T) {
	_, serverCh, _ := setup(t)
	ctx, cancel := context.WithTimeout(testContext(t), 100*time.Millisecond)
	defer cancel()

	srv := NewServer(serverCh, "rpc.sum", sumHandler(codec.JSON{}))
	err := srv.Serve(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
