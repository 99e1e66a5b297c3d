// Package rpc implements request/reply over a channel: a Caller that uses
// direct reply-to and a Server that answers requests from a queue. Both run
// on the client's frame loop; nothing here starts goroutines.
package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/codec"
	"github.com/digitalnomadru/bunny/protocol"
)

const (
	// DirectReplyTo is the pseudo-queue replies are consumed from.
	DirectReplyTo = "amq.rabbitmq.reply-to"
	// HeaderError carries a handler failure back to the caller.
	HeaderError = "x-rpc-error"
)

// RemoteError is returned by Call when the server's handler failed.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "rpc: remote error: " + e.Message
}

type options struct {
	codec   codec.Codec
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Caller or Server.
type Option func(*options)

// WithCodec sets the codec used by CallValue and Handle.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithTimeout bounds each call. It overrides the rpc.timeout setting.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger. The channel's client logger is the default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(ch *client.Channel, opts []Option) options {
	o := options{
		codec:   codec.JSON{},
		timeout: ch.Client().Config().RPC.Timeout,
		logger:  ch.Client().Logger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Caller sends requests and waits for their replies. One call is in flight
// at a time; Call is not safe for concurrent use.
type Caller struct {
	ch      *client.Channel
	codec   codec.Codec
	timeout time.Duration
	logger  *zap.Logger

	consumerTag string
	pending     string
	reply       *client.Message
}

// NewCaller creates a caller on ch. The reply consumer starts on first use.
func NewCaller(ch *client.Channel, opts ...Option) *Caller {
	o := newOptions(ch, opts)
	return &Caller{
		ch:      ch,
		codec:   o.codec,
		timeout: o.timeout,
		logger:  o.logger.With(zap.Uint16("channel_id", ch.ID())),
	}
}

// Codec returns the caller's codec.
func (c *Caller) Codec() codec.Codec { return c.codec }

func (c *Caller) ensureConsumer(ctx context.Context) error {
	if c.consumerTag != "" {
		return nil
	}
	tag, err := c.ch.Consume(ctx, c.onReply, DirectReplyTo, "", client.NoAck, nil)
	if err != nil {
		return fmt.Errorf("rpc: consume %s: %w", DirectReplyTo, err)
	}
	c.consumerTag = tag
	return nil
}

func (c *Caller) onReply(msg *client.Message, _ *client.Channel, _ *client.Client) {
	if c.pending == "" || msg.CorrelationID() != c.pending {
		c.logger.Debug("Discarding reply",
			zap.String("correlation_id", msg.CorrelationID()),
			zap.String("pending", c.pending))
		return
	}
	c.reply = msg
}

// Call publishes body to exchange with routingKey and waits for the reply.
// A reply carrying the error header is returned together with a
// *RemoteError.
func (c *Caller) Call(ctx context.Context, exchange, routingKey string, body []byte, headers protocol.Table) (*client.Message, error) {
	if c.pending != "" {
		return nil, fmt.Errorf("rpc: call %s already in flight", c.pending)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.ensureConsumer(ctx); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	h := headers.Clone()
	if h == nil {
		h = protocol.Table{}
	}
	h[protocol.HeaderReplyTo] = DirectReplyTo
	h[protocol.HeaderCorrelationID] = id

	c.pending, c.reply = id, nil
	defer func() { c.pending, c.reply = "", nil }()

	if _, err := c.ch.Publish(body, h, exchange, routingKey, false, false); err != nil {
		return nil, fmt.Errorf("rpc: publish request: %w", err)
	}
	c.logger.Debug("Sent request",
		zap.String("correlation_id", id),
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey))

	for c.reply == nil {
		if _, err := c.ch.Client().RunN(ctx, 0, 1); err != nil {
			return nil, fmt.Errorf("rpc: await reply %s: %w", id, err)
		}
	}
	reply := c.reply
	if reply.HasHeader(HeaderError) {
		return reply, &RemoteError{Message: fmt.Sprint(reply.Header(HeaderError))}
	}
	return reply, nil
}

// CallValue encodes req with the caller's codec, calls, and decodes the
// reply by its content type.
func CallValue[Req, Resp any](ctx context.Context, c *Caller, exchange, routingKey string, req Req) (Resp, error) {
	var resp Resp
	body, err := c.codec.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("rpc: encode request: %w", err)
	}
	reply, err := c.Call(ctx, exchange, routingKey, body,
		protocol.Table{protocol.HeaderContentType: c.codec.ContentType()})
	if err != nil {
		return resp, err
	}
	dec, err := decoderFor(reply, c.codec)
	if err != nil {
		return resp, err
	}
	if err := dec.Unmarshal(reply.Content(), &resp); err != nil {
		return resp, fmt.Errorf("rpc: decode reply: %w", err)
	}
	return resp, nil
}

// decoderFor picks the codec for msg's content type, falling back to def
// when the message has none.
func decoderFor(msg *client.Message, def codec.Codec) (codec.Codec, error) {
	if msg.ContentType() == "" {
		return def, nil
	}
	return codec.ForContentType(msg.ContentType())
}

// Close cancels the reply consumer.
func (c *Caller) Close(ctx context.Context) error {
	if c.consumerTag == "" {
		return nil
	}
	tag := c.consumerTag
	c.consumerTag = ""
	return c.ch.Cancel(ctx, tag, false)
}
