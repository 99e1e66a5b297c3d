package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digitalnomadru/bunny/auth"
	"github.com/digitalnomadru/bunny/config"
	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/interfaces"
	"github.com/digitalnomadru/bunny/protocol"
)

// Version is reported to the broker in the client properties.
const Version = "0.3.0"

// bestEffortTimeout bounds writes made while the connection is failing.
const bestEffortTimeout = time.Second

// Client is one AMQP connection. It owns the transport and every Channel
// opened on it.
//
// A Client is a single-threaded reactor: Run, RunN and every blocking
// channel operation process frames on the calling goroutine, and callbacks
// run there too. Do not use a Client from several goroutines at once.
type Client struct {
	id      string
	config  *config.ClientConfig
	logger  *zap.Logger
	metrics interfaces.MetricsCollector

	transport Transport
	dial      Dialer

	chunk     []byte
	readBuf   []byte
	queue     []protocol.Frame
	writeBuf  bytes.Buffer
	lastWrite time.Time

	channels         map[uint16]*Channel
	channelMax       uint16
	frameMax         uint32
	heartbeat        time.Duration
	serverProperties protocol.Table

	connected        bool
	handshake        *Reply
	closing          *Reply
	blocked          bool
	blockedListeners []func(blocked bool, reason string)

	scope *runScope
	err   error
}

// runScope tracks one Run or RunN invocation. Nested runs from callbacks get
// their own scope.
type runScope struct {
	running   bool
	budget    int
	delivered int
}

func newClient(cfg *config.ClientConfig, logger *zap.Logger, metrics interfaces.MetricsCollector) *Client {
	id := uuid.NewString()
	readSize := cfg.Connection.ReadBufferSize
	if readSize <= 0 {
		readSize = 64 * 1024
	}
	return &Client{
		id:       id,
		config:   cfg,
		logger:   logger.With(zap.String("connection_id", id)),
		metrics:  metrics,
		chunk:    make([]byte, readSize),
		channels: make(map[uint16]*Channel),
	}
}

// ID identifies the connection in logs and errors.
func (c *Client) ID() string { return c.id }

func (c *Client) Config() *config.ClientConfig { return c.config }

func (c *Client) Logger() *zap.Logger { return c.logger }

// Err returns the error that failed the connection, if any.
func (c *Client) Err() error { return c.err }

func (c *Client) Connected() bool { return c.connected && c.err == nil }

// ServerProperties returns the properties announced in connection.start.
func (c *Client) ServerProperties() protocol.Table { return c.serverProperties }

// FrameMax is the negotiated maximum frame size. Zero means no limit.
func (c *Client) FrameMax() uint32 { return c.frameMax }

func (c *Client) ChannelMax() uint16 { return c.channelMax }

// Heartbeat is the negotiated heartbeat interval. Zero disables heartbeats.
func (c *Client) Heartbeat() time.Duration { return c.heartbeat }

// Blocked reports whether the broker has blocked publishing.
func (c *Client) Blocked() bool { return c.blocked }

// OnBlocked registers fn for connection.blocked and connection.unblocked.
func (c *Client) OnBlocked(fn func(blocked bool, reason string)) {
	c.blockedListeners = append(c.blockedListeners, fn)
}

// Connect opens the transport if needed and performs the connection
// handshake: protocol header, start/start-ok, tune/tune-ok and open/open-ok.
func (c *Client) Connect(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	if c.connected {
		return amqperrors.NewUsageError("connection.open", 0, "already connected")
	}

	if timeout := c.config.Connection.ConnectionTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.transport == nil {
		if c.dial == nil {
			c.dial = NewDialer(c.config.Connection)
		}
		transport, err := c.dial(ctx)
		if err != nil {
			return err
		}
		c.transport = transport
	}
	c.logger.Debug("Connecting", zap.String("transport", describeTransport(c.transport)))

	c.writeBuf.Write(protocol.ProtocolHeader)
	started := c.awaitConnection(protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionStart})
	if err := c.flush(); err != nil {
		return c.fail(err)
	}
	m, err := started.Wait(ctx)
	if err != nil {
		return c.abortHandshake(err)
	}
	start := m.(*protocol.ConnectionStartMethod)
	if start.VersionMajor != 0 || start.VersionMinor != 9 {
		return c.fail(amqperrors.NewProtocolError(amqperrors.NotImplemented,
			fmt.Sprintf("unsupported protocol version %d-%d", start.VersionMajor, start.VersionMinor),
			protocol.FrameMethod, protocol.ClassConnection, protocol.ConnectionStart))
	}
	conn := c.config.Connection
	mechanism, err := auth.DefaultRegistry().Select(start.Mechanisms, conn.Mechanism)
	if err != nil {
		return c.fail(amqperrors.NewAccessRefused(c.id, err.Error()))
	}
	response, err := mechanism.Response(conn.Username, conn.Password)
	if err != nil {
		return c.fail(amqperrors.NewAccessRefused(c.id, err.Error()))
	}
	c.serverProperties = start.ServerProperties

	tuned := c.awaitConnection(protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionTune})
	if err := c.sendConnection(&protocol.ConnectionStartOKMethod{
		ClientProperties: c.clientProperties(),
		Mechanism:        mechanism.Name(),
		Response:         response,
		Locale:           "en_US",
	}); err != nil {
		return err
	}
	m, err = tuned.Wait(ctx)
	if err != nil {
		return c.abortHandshake(err)
	}
	tune := m.(*protocol.ConnectionTuneMethod)

	c.channelMax = uint16(negotiate(uint64(conn.ChannelMax), uint64(tune.ChannelMax)))
	c.frameMax = uint32(negotiate(uint64(conn.FrameMax), uint64(tune.FrameMax)))
	heartbeat := negotiate(uint64(conn.Heartbeat/time.Second), uint64(tune.Heartbeat))
	c.heartbeat = time.Duration(heartbeat) * time.Second

	opened := c.awaitConnection(protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionOpenOK})
	if err := c.sendConnection(
		&protocol.ConnectionTuneOKMethod{ChannelMax: c.channelMax, FrameMax: c.frameMax, Heartbeat: uint16(heartbeat)},
		&protocol.ConnectionOpenMethod{VirtualHost: conn.VirtualHost},
	); err != nil {
		return err
	}
	if _, err := opened.Wait(ctx); err != nil {
		return c.abortHandshake(err)
	}

	c.connected = true
	c.metrics.RecordConnectionOpened()
	c.logger.Info("Connection opened",
		zap.String("vhost", conn.VirtualHost),
		zap.Uint16("channel_max", c.channelMax),
		zap.Uint32("frame_max", c.frameMax),
		zap.Duration("heartbeat", c.heartbeat))
	return nil
}

// negotiate picks the lower of two limits where zero means unlimited.
func negotiate(client, server uint64) uint64 {
	switch {
	case client == 0:
		return server
	case server == 0:
		return client
	case client < server:
		return client
	default:
		return server
	}
}

func (c *Client) clientProperties() protocol.Table {
	return protocol.Table{
		"product":     "bunny",
		"version":     Version,
		"platform":    "Go " + runtime.Version(),
		"information": "https://github.com/digitalnomadru/bunny",
		"capabilities": protocol.Table{
			"publisher_confirms":           true,
			"consumer_cancel_notify":       true,
			"basic.nack":                   true,
			"connection.blocked":           true,
			"exchange_exchange_bindings":   true,
			"authentication_failure_close": true,
		},
	}
}

func (c *Client) awaitConnection(key protocol.MethodKey) *Reply {
	c.handshake = newReply(c, key)
	return c.handshake
}

// abortHandshake fails the connection unless the wait was only cancelled.
func (c *Client) abortHandshake(err error) error {
	if c.err != nil {
		return c.err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return c.fail(amqperrors.NewTransportError(c.id, "handshake", err))
	}
	return c.fail(err)
}

func (c *Client) sendConnection(methods ...protocol.Method) error {
	frames := make([]protocol.Frame, len(methods))
	for i, m := range methods {
		frames[i] = &protocol.MethodFrame{Channel: 0, Method: m}
	}
	return c.send(frames...)
}

// Channel opens a channel on the lowest free id.
func (c *Client) Channel(ctx context.Context) (*Channel, error) {
	if err := c.usable("channel.open"); err != nil {
		return nil, err
	}
	id, err := c.allocateChannelID()
	if err != nil {
		return nil, err
	}

	ch := newChannel(c, id)
	c.channels[id] = ch
	r, err := ch.request(&protocol.ChannelOpenMethod{}, true, keyChannelOpenOK)
	if err != nil {
		delete(c.channels, id)
		return nil, err
	}
	if _, err := r.Wait(ctx); err != nil {
		if !r.Done() {
			c.abandonOpen(ch, r)
		}
		return nil, err
	}

	c.metrics.RecordChannelOpened()
	ch.logger.Debug("Channel opened")
	return ch, nil
}

// abandonOpen handles a channel.open whose caller gave up before open-ok.
// The id stays taken until the broker answers; a late open-ok is followed
// by channel.close, and close-ok releases the id.
func (c *Client) abandonOpen(ch *Channel, r *Reply) {
	ch.logger.Debug("Channel open abandoned")
	r.Then(func(_ protocol.Method, err error) {
		if err != nil {
			return
		}
		c.metrics.RecordChannelOpened()
		if _, err := ch.CloseAsync(amqperrors.ReplySuccess, "open abandoned"); err != nil {
			ch.logger.Debug("Closing abandoned channel failed", zap.Error(err))
		}
	})
}

func (c *Client) allocateChannelID() (uint16, error) {
	max := int(c.channelMax)
	if max == 0 {
		max = math.MaxUint16
	}
	for id := 1; id <= max; id++ {
		if _, taken := c.channels[uint16(id)]; !taken {
			return uint16(id), nil
		}
	}
	return 0, amqperrors.NewUsageError("channel.open", 0, fmt.Sprintf("all %d channel ids in use", max))
}

func (c *Client) removeChannel(id uint16) {
	delete(c.channels, id)
}

func (c *Client) usable(op string) error {
	if c.err != nil {
		return c.err
	}
	if !c.connected {
		return amqperrors.NewUsageError(op, 0, "client is not connected")
	}
	return nil
}

// Run processes frames until maxDuration elapses, Stop is called, ctx ends
// or the connection fails. A maxDuration of zero or less runs without a
// time limit.
func (c *Client) Run(ctx context.Context, maxDuration time.Duration) error {
	_, err := c.RunN(ctx, maxDuration, 0)
	return err
}

// RunN is Run with a message budget: it also returns once maxMessages
// deliveries have reached consumer callbacks. Zero means no budget. It
// returns the number of deliveries handled.
//
// A broker-initiated channel close ends the run with the *ChannelError;
// the connection stays usable.
func (c *Client) RunN(ctx context.Context, maxDuration time.Duration, maxMessages int) (int, error) {
	if err := c.usable("run"); err != nil {
		return 0, err
	}

	var stopAt time.Time
	if maxDuration > 0 {
		stopAt = time.Now().Add(maxDuration)
	}
	scope := &runScope{running: true, budget: maxMessages}
	outer := c.scope
	c.scope = scope
	defer func() { c.scope = outer }()

	err := c.loop(ctx, stopAt, func() bool { return !scope.running }, true)
	return scope.delivered, err
}

// Stop ends the innermost Run or RunN at the top of its next iteration. It
// is meant to be called from callbacks.
func (c *Client) Stop() {
	if c.scope != nil {
		c.scope.running = false
	}
}

// pump processes frames until done reports true. Blocking operations use it
// to wait for their response on the shared frame stream.
func (c *Client) pump(ctx context.Context, done func() bool) error {
	return c.loop(ctx, time.Time{}, done, false)
}

func (c *Client) loop(ctx context.Context, stopAt time.Time, done func() bool, surfaceChannelClose bool) error {
	for {
		if c.err != nil {
			return c.err
		}
		if done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !stopAt.IsZero() && !time.Now().Before(stopAt) {
			return nil
		}

		// Frames queued by an earlier read, possibly during a nested wait,
		// go first so nothing is reordered.
		if len(c.queue) > 0 {
			f := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			if err := c.dispatch(f); err != nil {
				if amqperrors.IsChannelError(err) && c.err == nil {
					if surfaceChannelClose {
						return err
					}
					continue
				}
				return c.fail(err)
			}
			continue
		}

		if err := c.flush(); err != nil {
			return c.fail(err)
		}
		if err := c.fill(ctx, stopAt); err != nil {
			return c.fail(err)
		}
	}
}

// fill waits for the transport to become readable, bounded by the next
// heartbeat, stopAt and the context deadline, and decodes what arrives.
func (c *Client) fill(ctx context.Context, stopAt time.Time) error {
	for {
		if err := c.heartbeatIfDue(); err != nil {
			return err
		}

		deadline := stopAt
		if c.heartbeat > 0 && c.connected {
			due := c.lastWrite.Add(c.heartbeat)
			if deadline.IsZero() || due.Before(deadline) {
				deadline = due
			}
		}
		if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
			deadline = d
		}
		if err := c.transport.SetReadDeadline(deadline); err != nil {
			return amqperrors.NewTransportError(c.id, "set read deadline", err)
		}

		stop := context.AfterFunc(ctx, func() {
			_ = c.transport.SetReadDeadline(pastDeadline)
		})
		n, err := c.transport.Read(c.chunk)
		stop()

		if n > 0 {
			return c.decode(c.chunk[:n])
		}
		switch {
		case err == nil:
			continue
		case interrupted(err):
			continue
		case isTimeout(err):
			return c.heartbeatIfDue()
		default:
			return amqperrors.NewTransportError(c.id, "read", err)
		}
	}
}

// decode appends data to the read buffer and queues every complete frame.
func (c *Client) decode(data []byte) error {
	c.readBuf = append(c.readBuf, data...)
	offset := 0
	for {
		f, n, err := protocol.DecodeFrame(c.readBuf[offset:], c.frameMax)
		if errors.Is(err, protocol.ErrNeedMoreData) {
			break
		}
		if err != nil {
			return frameError(err)
		}
		offset += n
		c.metrics.RecordFrameReceived(frameType(f), n)
		c.queue = append(c.queue, f)
	}
	c.readBuf = append(c.readBuf[:0], c.readBuf[offset:]...)
	return nil
}

func frameError(err error) error {
	var typeErr *protocol.FrameTypeError
	var methodErr *protocol.UnknownMethodError
	switch {
	case errors.As(err, &typeErr):
		return amqperrors.NewFrameError("unknown frame type", typeErr.Type, err)
	case errors.As(err, &methodErr):
		perr := amqperrors.NewProtocolError(amqperrors.CommandInvalid, methodErr.Error(),
			protocol.FrameMethod, methodErr.Key.Class, methodErr.Key.Method)
		perr.Cause = err
		return perr
	case errors.Is(err, protocol.ErrFrameTooLarge), errors.Is(err, protocol.ErrInvalidFrameEnd):
		return amqperrors.NewFrameError(err.Error(), 0, err)
	default:
		return amqperrors.NewSyntaxError("malformed frame payload", err)
	}
}

func frameType(f protocol.Frame) byte {
	switch f.(type) {
	case *protocol.MethodFrame:
		return protocol.FrameMethod
	case *protocol.HeaderFrame:
		return protocol.FrameHeader
	case *protocol.BodyFrame:
		return protocol.FrameBody
	default:
		return protocol.FrameHeartbeat
	}
}

func frameName(f protocol.Frame) string {
	switch fr := f.(type) {
	case *protocol.MethodFrame:
		return protocol.MethodName(fr.Method)
	case *protocol.HeaderFrame:
		return "content header"
	case *protocol.BodyFrame:
		return "content body"
	default:
		return "heartbeat"
	}
}

// dispatch routes a frame to channel 0 handling or to its channel.
func (c *Client) dispatch(f protocol.Frame) error {
	id := f.ChannelID()
	if id == 0 {
		return c.onConnectionFrame(f)
	}
	ch, ok := c.channels[id]
	if !ok {
		return amqperrors.NewUnknownChannel(id, frameType(f))
	}
	delivered, err := ch.onFrameReceived(f)
	if err != nil {
		return err
	}
	if delivered {
		c.countDelivery()
	}
	return nil
}

func (c *Client) countDelivery() {
	s := c.scope
	if s == nil {
		return
	}
	s.delivered++
	if s.budget > 0 && s.delivered >= s.budget {
		s.running = false
	}
}

func (c *Client) onConnectionFrame(f protocol.Frame) error {
	switch fr := f.(type) {
	case *protocol.HeartbeatFrame:
		return nil
	case *protocol.MethodFrame:
		return c.onConnectionMethod(fr.Method)
	default:
		return amqperrors.NewUnexpectedFrame(0, frameType(f), "connection", frameName(f))
	}
}

func (c *Client) onConnectionMethod(method protocol.Method) error {
	switch m := method.(type) {
	case *protocol.ConnectionCloseMethod:
		c.logger.Warn("Connection closed by broker",
			zap.Uint16("reply_code", m.ReplyCode),
			zap.String("reply_text", m.ReplyText))
		_ = c.writeBestEffort(&protocol.ConnectionCloseOKMethod{})
		return amqperrors.NewConnectionClosedByServer(c.id, int(m.ReplyCode), m.ReplyText, m.ClassID, m.MethodID)

	case *protocol.ConnectionCloseOKMethod:
		if c.closing == nil {
			return amqperrors.NewUnexpectedFrame(0, protocol.FrameMethod, "open", protocol.MethodName(m))
		}
		r := c.closing
		c.closing = nil
		r.resolve(m)
		return nil

	case *protocol.ConnectionBlockedMethod:
		c.blocked = true
		c.logger.Warn("Connection blocked by broker", zap.String("reason", m.Reason))
		for _, fn := range c.blockedListeners {
			fn(true, m.Reason)
		}
		return nil

	case *protocol.ConnectionUnblockedMethod:
		c.blocked = false
		c.logger.Info("Connection unblocked by broker")
		for _, fn := range c.blockedListeners {
			fn(false, "")
		}
		return nil
	}

	if r := c.handshake; r != nil && r.matches(method.Key()) {
		c.handshake = nil
		r.resolve(method)
		return nil
	}
	key := method.Key()
	return amqperrors.NewProtocolError(amqperrors.CommandInvalid,
		fmt.Sprintf("unexpected %s on channel 0", protocol.MethodName(method)),
		protocol.FrameMethod, key.Class, key.Method)
}

// send encodes frames into the write buffer, flushing whenever it grows
// past the configured bound and once at the end.
func (c *Client) send(frames ...protocol.Frame) error {
	if c.err != nil {
		return c.err
	}
	limit := c.config.Connection.WriteBufferSize
	start := c.writeBuf.Len()
	flushed := false
	for _, f := range frames {
		before := c.writeBuf.Len()
		if err := protocol.AppendFrame(&c.writeBuf, f); err != nil {
			if flushed {
				return c.fail(amqperrors.NewSyntaxError("encode "+frameName(f), err))
			}
			c.writeBuf.Truncate(start)
			return amqperrors.NewUsageError(frameName(f), f.ChannelID(), err.Error())
		}
		c.metrics.RecordFrameSent(frameType(f), c.writeBuf.Len()-before)
		if limit > 0 && c.writeBuf.Len() >= limit {
			if err := c.flush(); err != nil {
				return c.fail(err)
			}
			flushed = true
			start = 0
		}
	}
	if err := c.flush(); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Client) flush() error {
	if c.writeBuf.Len() == 0 {
		return nil
	}
	_, err := c.transport.Write(c.writeBuf.Bytes())
	c.writeBuf.Reset()
	if err != nil {
		return amqperrors.NewTransportError(c.id, "write", err)
	}
	c.lastWrite = time.Now()
	return nil
}

func (c *Client) heartbeatIfDue() error {
	if c.heartbeat <= 0 || !c.connected {
		return nil
	}
	if time.Since(c.lastWrite) < c.heartbeat {
		return nil
	}
	if err := protocol.AppendFrame(&c.writeBuf, &protocol.HeartbeatFrame{}); err != nil {
		return err
	}
	c.metrics.RecordFrameSent(protocol.FrameHeartbeat, protocol.FrameOverhead)
	c.metrics.RecordHeartbeatSent()
	return c.flush()
}

// writeBestEffort writes a channel 0 method with a short write deadline,
// ignoring failures.
func (c *Client) writeBestEffort(m protocol.Method) error {
	if c.transport == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := protocol.AppendFrame(&buf, &protocol.MethodFrame{Method: m}); err != nil {
		return err
	}
	_ = c.transport.SetWriteDeadline(time.Now().Add(bestEffortTimeout))
	_, err := c.transport.Write(buf.Bytes())
	_ = c.transport.SetWriteDeadline(time.Time{})
	return err
}

// fail marks the connection failed with err. Protocol violations are
// reported to the broker with a connection.close before the transport is
// closed. Later operations return err.
func (c *Client) fail(err error) error {
	if c.err != nil {
		return c.err
	}
	kind := errorKind(err)
	c.metrics.RecordProtocolError(kind)
	c.logger.Error("Connection failed", zap.String("kind", kind), zap.Error(err))

	var perr *amqperrors.ProtocolError
	if errors.As(err, &perr) {
		text := perr.Message
		if len(text) > 255 {
			text = text[:255]
		}
		_ = c.writeBestEffort(&protocol.ConnectionCloseMethod{
			ReplyCode: uint16(perr.Code),
			ReplyText: text,
			ClassID:   perr.ClassID,
			MethodID:  perr.MethodID,
		})
	}
	c.teardown(err)
	return err
}

func errorKind(err error) string {
	switch {
	case amqperrors.IsProtocolError(err):
		return "protocol"
	case amqperrors.IsTransportError(err):
		return "transport"
	case amqperrors.IsConnectionError(err):
		return "connection"
	default:
		return "other"
	}
}

// teardown stores err, fails every channel and pending reply, and closes
// the transport.
func (c *Client) teardown(err error) {
	c.err = err
	for _, ch := range c.sortedChannels() {
		ch.abort(err)
	}
	c.channels = make(map[uint16]*Channel)
	if r := c.handshake; r != nil {
		c.handshake = nil
		r.fail(err)
	}
	if r := c.closing; r != nil {
		c.closing = nil
		r.fail(err)
	}
	if c.transport != nil {
		_ = c.transport.Close()
	}
	c.writeBuf.Reset()
	c.readBuf = nil
	c.queue = nil
	if c.connected {
		c.connected = false
		c.metrics.RecordConnectionClosed()
	}
	if c.scope != nil {
		c.scope.running = false
	}
}

func (c *Client) sortedChannels() []*Channel {
	out := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Disconnect closes every open channel, then the connection, waiting for
// the broker to confirm each close.
func (c *Client) Disconnect(ctx context.Context, code uint16, text string) error {
	if err := c.usable("connection.close"); err != nil {
		return err
	}

	var replies []*Reply
	for _, ch := range c.sortedChannels() {
		r, err := ch.CloseAsync(amqperrors.ReplySuccess, text)
		if err != nil {
			ch.logger.Debug("Skipping channel close", zap.Error(err))
			continue
		}
		replies = append(replies, r)
	}
	for _, r := range replies {
		if _, err := r.Wait(ctx); err != nil && c.err != nil {
			return c.err
		}
	}

	c.closing = newReply(c, protocol.MethodKey{Class: protocol.ClassConnection, Method: protocol.ConnectionCloseOK})
	closing := c.closing
	if err := c.sendConnection(&protocol.ConnectionCloseMethod{ReplyCode: code, ReplyText: text}); err != nil {
		return err
	}
	if _, err := closing.Wait(ctx); err != nil {
		return err
	}

	c.logger.Info("Connection closed", zap.Uint16("reply_code", code))
	c.teardown(amqperrors.NewUsageError("connection", 0, "connection closed"))
	return nil
}

// Abort closes the transport without a closing handshake.
func (c *Client) Abort() {
	if c.err != nil {
		return
	}
	c.logger.Debug("Aborting connection")
	c.teardown(amqperrors.NewUsageError("connection", 0, "connection aborted"))
}

// maxBodyFrame is the largest body payload that fits in one frame.
func (c *Client) maxBodyFrame() int {
	if c.frameMax == 0 {
		return math.MaxInt32
	}
	return int(c.frameMax) - protocol.FrameOverhead
}
