package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/protocol"
)

// maxBodyPrealloc caps the body buffer allocated up front from a declared
// body size.
const maxBodyPrealloc = 64 << 20

var (
	keyChannelOpenOK     = protocol.MethodKey{Class: protocol.ClassChannel, Method: protocol.ChannelOpenOK}
	keyChannelCloseOK    = protocol.MethodKey{Class: protocol.ClassChannel, Method: protocol.ChannelCloseOK}
	keyExchangeDeclareOK = protocol.MethodKey{Class: protocol.ClassExchange, Method: protocol.ExchangeDeclareOK}
	keyExchangeDeleteOK  = protocol.MethodKey{Class: protocol.ClassExchange, Method: protocol.ExchangeDeleteOK}
	keyExchangeBindOK    = protocol.MethodKey{Class: protocol.ClassExchange, Method: protocol.ExchangeBindOK}
	keyExchangeUnbindOK  = protocol.MethodKey{Class: protocol.ClassExchange, Method: protocol.ExchangeUnbindOK}
	keyQueueDeclareOK    = protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueueDeclareOK}
	keyQueueBindOK       = protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueueBindOK}
	keyQueueUnbindOK     = protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueueUnbindOK}
	keyQueuePurgeOK      = protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueuePurgeOK}
	keyQueueDeleteOK     = protocol.MethodKey{Class: protocol.ClassQueue, Method: protocol.QueueDeleteOK}
	keyBasicQosOK        = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicQosOK}
	keyBasicConsumeOK    = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicConsumeOK}
	keyBasicCancelOK     = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicCancelOK}
	keyBasicGetOK        = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicGetOK}
	keyBasicGetEmpty     = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicGetEmpty}
	keyBasicRecoverOK    = protocol.MethodKey{Class: protocol.ClassBasic, Method: protocol.BasicRecoverOK}
	keyConfirmSelectOK   = protocol.MethodKey{Class: protocol.ClassConfirm, Method: protocol.ConfirmSelectOK}
	keyTxSelectOK        = protocol.MethodKey{Class: protocol.ClassTx, Method: protocol.TxSelectOK}
	keyTxCommitOK        = protocol.MethodKey{Class: protocol.ClassTx, Method: protocol.TxCommitOK}
	keyTxRollbackOK      = protocol.MethodKey{Class: protocol.ClassTx, Method: protocol.TxRollbackOK}
)

// Channel is a virtual connection multiplexed over a Client. The Client
// owns it; the Channel keeps a non-owning reference back.
type Channel struct {
	id     uint16
	client *Client
	logger *zap.Logger

	state ChannelState
	mode  ChannelMode
	flow  bool
	err   error

	deliveryTag uint64
	confirms    *confirmTracker

	consumers       *consumerTable
	returnListeners registry[*ReturnListener]
	ackListeners    registry[*AckListener]
	cancelListeners registry[*CancelListener]

	// pending holds replies in request order. The broker answers
	// synchronous methods on a channel in the order they were sent.
	pending    []*Reply
	closeReply *Reply
	getSlot    *Reply

	// At most one of the three content-bearing methods is stashed while
	// its header and body are outstanding.
	pendingReturn  *protocol.BasicReturnMethod
	pendingDeliver *protocol.BasicDeliverMethod
	pendingGet     *protocol.BasicGetOKMethod
	header         *protocol.ContentHeader
	body           []byte
	remaining      uint64
}

func newChannel(c *Client, id uint16) *Channel {
	return &Channel{
		id:        id,
		client:    c,
		logger:    c.logger.With(zap.Uint16("channel_id", id)),
		state:     StateReady,
		mode:      ModeRegular,
		flow:      true,
		confirms:  newConfirmTracker(),
		consumers: newConsumerTable(),
	}
}

func (ch *Channel) ID() uint16 { return ch.id }

func (ch *Channel) State() ChannelState { return ch.state }

func (ch *Channel) Mode() ChannelMode { return ch.mode }

// Flow reports whether the broker allows content to flow.
func (ch *Channel) Flow() bool { return ch.flow }

// Err returns the error that closed or failed the channel.
func (ch *Channel) Err() error { return ch.err }

// Client returns the connection the channel belongs to.
func (ch *Channel) Client() *Client { return ch.client }

// ConsumerTags lists the registered consumers.
func (ch *Channel) ConsumerTags() []string { return ch.consumers.tags() }

// onFrameReceived advances the state machine by one frame. It reports
// whether a delivery reached a consumer callback.
func (ch *Channel) onFrameReceived(f protocol.Frame) (bool, error) {
	if _, ok := f.(*protocol.HeartbeatFrame); ok {
		return false, ch.violate(amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameHeartbeat, ch.state.String(), "heartbeat"))
	}

	switch ch.state {
	case StateClosed, StateError:
		return false, amqperrors.NewChannelStateError(ch.id, ch.state.String())
	case StateClosing:
		if mf, ok := f.(*protocol.MethodFrame); ok {
			switch m := mf.Method.(type) {
			case *protocol.ChannelCloseOKMethod:
				ch.closed()
				return false, nil
			case *protocol.ChannelCloseMethod:
				// Both sides closed at once: acknowledge theirs and keep
				// waiting for the close-ok to ours.
				ch.logger.Debug("Broker closed a closing channel",
					zap.Uint16("reply_code", m.ReplyCode), zap.String("reply_text", m.ReplyText))
				return false, ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: &protocol.ChannelCloseOKMethod{}})
			}
		}
		ch.logger.Debug("Dropping frame on closing channel", zap.String("frame", frameName(f)))
		return false, nil
	}

	switch fr := f.(type) {
	case *protocol.MethodFrame:
		if ch.state != StateReady {
			return false, ch.violate(amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameMethod, ch.state.String(), protocol.MethodName(fr.Method)))
		}
		return false, ch.onMethod(fr.Method)

	case *protocol.HeaderFrame:
		if ch.state != StateAwaitingHeader {
			return false, ch.violate(amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameHeader, ch.state.String(), "content header"))
		}
		if fr.Header.ClassID != protocol.ClassBasic {
			return false, ch.violate(amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameHeader, ch.state.String(),
				fmt.Sprintf("content header for class %d", fr.Header.ClassID)))
		}
		ch.header = fr.Header
		if fr.Header.BodySize == 0 {
			return ch.complete()
		}
		ch.remaining = fr.Header.BodySize
		prealloc := fr.Header.BodySize
		if prealloc > maxBodyPrealloc {
			prealloc = maxBodyPrealloc
		}
		ch.body = make([]byte, 0, prealloc)
		ch.state = StateAwaitingBody
		return false, nil

	case *protocol.BodyFrame:
		if ch.state != StateAwaitingBody {
			return false, ch.violate(amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameBody, ch.state.String(), "content body"))
		}
		size := uint64(len(fr.Payload))
		if size > ch.remaining {
			declared := ch.header.BodySize
			received := uint64(len(ch.body)) + size
			return false, ch.violate(amqperrors.NewBodyOverflow(ch.id, declared, received))
		}
		ch.body = append(ch.body, fr.Payload...)
		ch.remaining -= size
		if ch.remaining == 0 {
			return ch.complete()
		}
		return false, nil
	}
	return false, nil
}

func (ch *Channel) onMethod(method protocol.Method) error {
	switch m := method.(type) {
	case *protocol.BasicDeliverMethod:
		ch.pendingDeliver = m
		ch.state = StateAwaitingHeader
		return nil

	case *protocol.BasicReturnMethod:
		ch.pendingReturn = m
		ch.state = StateAwaitingHeader
		return nil

	case *protocol.BasicGetOKMethod:
		if ch.popReply(m.Key()) == nil {
			return ch.unexpected(m)
		}
		ch.pendingGet = m
		ch.state = StateAwaitingHeader
		return nil

	case *protocol.BasicGetEmptyMethod:
		r := ch.popReply(m.Key())
		if r == nil {
			return ch.unexpected(m)
		}
		ch.getSlot = nil
		r.resolve(m)
		return nil

	case *protocol.ChannelCloseMethod:
		return ch.onServerClose(m)

	case *protocol.ChannelFlowMethod:
		ch.flow = m.Active
		ch.logger.Info("Channel flow changed by broker", zap.Bool("active", m.Active))
		return ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: &protocol.ChannelFlowOKMethod{Active: m.Active}})

	case *protocol.BasicCancelMethod:
		ch.consumers.remove(m.ConsumerTag)
		ch.logger.Info("Consumer cancelled by broker", zap.String("consumer_tag", m.ConsumerTag))
		for _, l := range ch.cancelListeners.snapshot() {
			l.fn(m.ConsumerTag)
		}
		if m.NoWait {
			return nil
		}
		return ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: &protocol.BasicCancelOKMethod{ConsumerTag: m.ConsumerTag}})

	case *protocol.BasicAckMethod:
		return ch.onConfirm(m, m.DeliveryTag, m.Multiple, true)

	case *protocol.BasicNackMethod:
		return ch.onConfirm(m, m.DeliveryTag, m.Multiple, false)
	}

	r := ch.popReply(method.Key())
	if r == nil {
		return ch.unexpected(method)
	}
	r.resolve(method)
	return nil
}

func (ch *Channel) unexpected(m protocol.Method) error {
	key := m.Key()
	err := amqperrors.NewUnexpectedFrame(ch.id, protocol.FrameMethod, ch.state.String(), protocol.MethodName(m))
	err.ClassID = key.Class
	err.MethodID = key.Method
	return ch.violate(err)
}

// popReply removes the oldest pending reply if it expects key.
func (ch *Channel) popReply(key protocol.MethodKey) *Reply {
	if len(ch.pending) == 0 || !ch.pending[0].matches(key) {
		return nil
	}
	r := ch.pending[0]
	ch.pending[0] = nil
	ch.pending = ch.pending[1:]
	return r
}

func (ch *Channel) dropReply(r *Reply) {
	for i, p := range ch.pending {
		if p == r {
			ch.pending = append(ch.pending[:i:i], ch.pending[i+1:]...)
			return
		}
	}
}

func (ch *Channel) onConfirm(m protocol.Method, tag uint64, multiple, ack bool) error {
	if ch.mode != ModeConfirm {
		return ch.unexpected(m)
	}
	ch.confirms.settle(tag, multiple, ack)
	ch.client.metrics.RecordConfirm(ack)
	for _, l := range ch.ackListeners.snapshot() {
		l.fn(m)
	}
	return nil
}

// complete builds the message from the stashed method, header and body,
// returns the channel to READY and dispatches to exactly one destination.
func (ch *Channel) complete() (bool, error) {
	header, body := ch.header, ch.body
	deliver, ret, get := ch.pendingDeliver, ch.pendingReturn, ch.pendingGet
	ch.resetContent()

	if body == nil {
		body = []byte{}
	}
	msg := &Message{content: body, headers: header.FlatHeaders()}

	switch {
	case ret != nil:
		msg.exchange = ret.Exchange
		msg.routingKey = ret.RoutingKey
		ch.client.metrics.RecordMessageReturned(len(body))
		listeners := ch.returnListeners.snapshot()
		if len(listeners) == 0 {
			ch.logger.Warn("Message returned with no return listener",
				zap.Uint16("reply_code", ret.ReplyCode),
				zap.String("reply_text", ret.ReplyText),
				zap.String("routing_key", ret.RoutingKey))
		}
		for _, l := range listeners {
			l.fn(msg, ret)
		}
		return false, nil

	case deliver != nil:
		msg.exchange = deliver.Exchange
		msg.routingKey = deliver.RoutingKey
		msg.consumerTag = deliver.ConsumerTag
		msg.deliveryTag = deliver.DeliveryTag
		msg.redelivered = deliver.Redelivered
		fn, ok := ch.consumers.lookup(deliver.ConsumerTag)
		if !ok {
			ch.logger.Debug("Dropping delivery for unknown consumer",
				zap.String("consumer_tag", deliver.ConsumerTag),
				zap.Uint64("delivery_tag", deliver.DeliveryTag))
			return false, nil
		}
		ch.client.metrics.RecordMessageDelivered(len(body))
		fn(msg, ch, ch.client)
		return true, nil

	case get != nil:
		msg.exchange = get.Exchange
		msg.routingKey = get.RoutingKey
		msg.deliveryTag = get.DeliveryTag
		msg.redelivered = get.Redelivered
		ch.client.metrics.RecordMessageFetched(len(body))
		r := ch.getSlot
		ch.getSlot = nil
		if r != nil {
			r.message = msg
			r.resolve(get)
		}
		return false, nil
	}
	return false, nil
}

// resetContent clears in-flight content and returns a receiving channel to
// READY.
func (ch *Channel) resetContent() {
	ch.pendingDeliver = nil
	ch.pendingReturn = nil
	ch.pendingGet = nil
	ch.header = nil
	ch.body = nil
	ch.remaining = 0
	if ch.state == StateAwaitingHeader || ch.state == StateAwaitingBody {
		ch.state = StateReady
	}
}

// violate moves the channel to ERROR and returns err for the client to
// fail the connection with.
func (ch *Channel) violate(err error) error {
	ch.finish(StateError, err)
	return err
}

func (ch *Channel) onServerClose(m *protocol.ChannelCloseMethod) error {
	ch.logger.Warn("Channel closed by broker",
		zap.Uint16("reply_code", m.ReplyCode),
		zap.String("reply_text", m.ReplyText))
	_ = ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: &protocol.ChannelCloseOKMethod{}})
	err := amqperrors.NewChannelClosedByServer(ch.client.id, ch.id, int(m.ReplyCode), m.ReplyText, m.ClassID, m.MethodID)
	ch.finish(StateClosed, err)
	return err
}

// closed handles close-ok for a close this side started.
func (ch *Channel) closed() {
	r := ch.closeReply
	ch.closeReply = nil
	ch.finish(StateClosed, nil)
	if r != nil {
		r.resolve(&protocol.ChannelCloseOKMethod{})
	}
}

// abort fails the channel because its connection failed.
func (ch *Channel) abort(err error) {
	if ch.state.Terminal() {
		return
	}
	ch.finish(StateError, err)
}

// finish moves the channel to a terminal state: consumers are dropped so
// they never fire again, and every pending reply fails.
func (ch *Channel) finish(state ChannelState, cause error) {
	wasOpen := !ch.state.Terminal()
	ch.resetContent()
	ch.state = state
	if cause != nil {
		ch.err = cause
	}
	ch.consumers.clear()

	failure := cause
	if failure == nil {
		failure = amqperrors.NewAlreadyClosed("channel", ch.id)
	}
	pending := ch.pending
	ch.pending = nil
	for _, r := range pending {
		r.fail(failure)
	}
	if r := ch.getSlot; r != nil {
		ch.getSlot = nil
		r.fail(failure)
	}
	if r := ch.closeReply; r != nil {
		ch.closeReply = nil
		r.fail(failure)
	}

	ch.client.removeChannel(ch.id)
	if wasOpen {
		ch.client.metrics.RecordChannelClosed()
		ch.logger.Debug("Channel finished", zap.Stringer("state", state), zap.Error(cause))
	}
}

// usable reports why op cannot be sent right now.
func (ch *Channel) usable(op string) error {
	switch ch.state {
	case StateClosed:
		return amqperrors.NewAlreadyClosed(op, ch.id)
	case StateError:
		return ch.err
	case StateClosing:
		return amqperrors.NewUsageError(op, ch.id, fmt.Sprintf("channel %d is closing", ch.id))
	}
	return ch.client.usable(op)
}

// request sends m. When wait is set, the returned reply resolves with the
// first response matching expect; otherwise it is already resolved.
func (ch *Channel) request(m protocol.Method, wait bool, expect ...protocol.MethodKey) (*Reply, error) {
	if err := ch.usable(protocol.MethodName(m)); err != nil {
		return nil, err
	}
	var r *Reply
	if wait {
		r = newReply(ch.client, expect...)
		ch.pending = append(ch.pending, r)
	}
	if err := ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: m}); err != nil {
		if r != nil {
			ch.dropReply(r)
		}
		return nil, err
	}
	if r == nil {
		r = resolvedReply(ch.client, nil)
	}
	return r, nil
}

// notify sends a method that has no response.
func (ch *Channel) notify(m protocol.Method) error {
	if err := ch.usable(protocol.MethodName(m)); err != nil {
		return err
	}
	return ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: m})
}

func wait(ctx context.Context, r *Reply, err error) (protocol.Method, error) {
	if err != nil {
		return nil, err
	}
	return r.Wait(ctx)
}

// ExchangeDeclareAsync declares an exchange. Reads Passive, Durable,
// AutoDelete, Internal and NoWait.
func (ch *Channel) ExchangeDeclareAsync(name, kind string, flags Flag, args protocol.Table) (*Reply, error) {
	return ch.request(&protocol.ExchangeDeclareMethod{
		Exchange:   name,
		Type:       kind,
		Passive:    flags.Has(Passive),
		Durable:    flags.Has(Durable),
		AutoDelete: flags.Has(AutoDelete),
		Internal:   flags.Has(Internal),
		NoWait:     flags.Has(NoWait),
		Arguments:  args,
	}, !flags.Has(NoWait), keyExchangeDeclareOK)
}

func (ch *Channel) ExchangeDeclare(ctx context.Context, name, kind string, flags Flag, args protocol.Table) error {
	r, err := ch.ExchangeDeclareAsync(name, kind, flags, args)
	_, err = wait(ctx, r, err)
	return err
}

// ExchangeDeleteAsync deletes an exchange. Reads IfUnused and NoWait.
func (ch *Channel) ExchangeDeleteAsync(name string, flags Flag) (*Reply, error) {
	return ch.request(&protocol.ExchangeDeleteMethod{
		Exchange: name,
		IfUnused: flags.Has(IfUnused),
		NoWait:   flags.Has(NoWait),
	}, !flags.Has(NoWait), keyExchangeDeleteOK)
}

func (ch *Channel) ExchangeDelete(ctx context.Context, name string, flags Flag) error {
	r, err := ch.ExchangeDeleteAsync(name, flags)
	_, err = wait(ctx, r, err)
	return err
}

// ExchangeBindAsync routes messages from source to destination. Reads NoWait.
func (ch *Channel) ExchangeBindAsync(destination, source, routingKey string, flags Flag, args protocol.Table) (*Reply, error) {
	return ch.request(&protocol.ExchangeBindMethod{
		Destination: destination,
		Source:      source,
		RoutingKey:  routingKey,
		NoWait:      flags.Has(NoWait),
		Arguments:   args,
	}, !flags.Has(NoWait), keyExchangeBindOK)
}

func (ch *Channel) ExchangeBind(ctx context.Context, destination, source, routingKey string, flags Flag, args protocol.Table) error {
	r, err := ch.ExchangeBindAsync(destination, source, routingKey, flags, args)
	_, err = wait(ctx, r, err)
	return err
}

// ExchangeUnbindAsync removes an exchange binding. Reads NoWait.
func (ch *Channel) ExchangeUnbindAsync(destination, source, routingKey string, flags Flag, args protocol.Table) (*Reply, error) {
	return ch.request(&protocol.ExchangeUnbindMethod{
		Destination: destination,
		Source:      source,
		RoutingKey:  routingKey,
		NoWait:      flags.Has(NoWait),
		Arguments:   args,
	}, !flags.Has(NoWait), keyExchangeUnbindOK)
}

func (ch *Channel) ExchangeUnbind(ctx context.Context, destination, source, routingKey string, flags Flag, args protocol.Table) error {
	r, err := ch.ExchangeUnbindAsync(destination, source, routingKey, flags, args)
	_, err = wait(ctx, r, err)
	return err
}

// QueueDeclareAsync declares a queue. Reads Passive, Durable, Exclusive,
// AutoDelete and NoWait. Configured default queue arguments are merged
// under args.
func (ch *Channel) QueueDeclareAsync(name string, flags Flag, args protocol.Table) (*Reply, error) {
	merged := protocol.Table{}
	for k, v := range ch.client.config.Channel.DefaultQueueArguments {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	r, err := ch.request(&protocol.QueueDeclareMethod{
		Queue:      name,
		Passive:    flags.Has(Passive),
		Durable:    flags.Has(Durable),
		Exclusive:  flags.Has(Exclusive),
		AutoDelete: flags.Has(AutoDelete),
		NoWait:     flags.Has(NoWait),
		Arguments:  merged,
	}, !flags.Has(NoWait), keyQueueDeclareOK)
	if err == nil && flags.Has(NoWait) {
		r.method = &protocol.QueueDeclareOKMethod{Queue: name}
	}
	return r, err
}

// QueueDeclare declares a queue and returns the broker's answer, which
// carries the generated name when name is empty.
func (ch *Channel) QueueDeclare(ctx context.Context, name string, flags Flag, args protocol.Table) (*protocol.QueueDeclareOKMethod, error) {
	r, err := ch.QueueDeclareAsync(name, flags, args)
	m, err := wait(ctx, r, err)
	if err != nil {
		return nil, err
	}
	return m.(*protocol.QueueDeclareOKMethod), nil
}

// QueueBindAsync binds a queue to an exchange. Reads NoWait.
func (ch *Channel) QueueBindAsync(queue, exchange, routingKey string, flags Flag, args protocol.Table) (*Reply, error) {
	return ch.request(&protocol.QueueBindMethod{
		Queue:      queue,
		Exchange:   exchange,
		RoutingKey: routingKey,
		NoWait:     flags.Has(NoWait),
		Arguments:  args,
	}, !flags.Has(NoWait), keyQueueBindOK)
}

func (ch *Channel) QueueBind(ctx context.Context, queue, exchange, routingKey string, flags Flag, args protocol.Table) error {
	r, err := ch.QueueBindAsync(queue, exchange, routingKey, flags, args)
	_, err = wait(ctx, r, err)
	return err
}

// QueueUnbindAsync removes a queue binding. queue.unbind has no no-wait form.
func (ch *Channel) QueueUnbindAsync(queue, exchange, routingKey string, args protocol.Table) (*Reply, error) {
	return ch.request(&protocol.QueueUnbindMethod{
		Queue:      queue,
		Exchange:   exchange,
		RoutingKey: routingKey,
		Arguments:  args,
	}, true, keyQueueUnbindOK)
}

func (ch *Channel) QueueUnbind(ctx context.Context, queue, exchange, routingKey string, args protocol.Table) error {
	r, err := ch.QueueUnbindAsync(queue, exchange, routingKey, args)
	_, err = wait(ctx, r, err)
	return err
}

// QueuePurgeAsync removes all ready messages. Reads NoWait.
func (ch *Channel) QueuePurgeAsync(queue string, flags Flag) (*Reply, error) {
	return ch.request(&protocol.QueuePurgeMethod{
		Queue:  queue,
		NoWait: flags.Has(NoWait),
	}, !flags.Has(NoWait), keyQueuePurgeOK)
}

// QueuePurge returns the number of messages purged, zero with NoWait.
func (ch *Channel) QueuePurge(ctx context.Context, queue string, flags Flag) (uint32, error) {
	r, err := ch.QueuePurgeAsync(queue, flags)
	m, err := wait(ctx, r, err)
	if err != nil || m == nil {
		return 0, err
	}
	return m.(*protocol.QueuePurgeOKMethod).MessageCount, nil
}

// QueueDeleteAsync deletes a queue. Reads IfUnused, IfEmpty and NoWait.
func (ch *Channel) QueueDeleteAsync(queue string, flags Flag) (*Reply, error) {
	return ch.request(&protocol.QueueDeleteMethod{
		Queue:    queue,
		IfUnused: flags.Has(IfUnused),
		IfEmpty:  flags.Has(IfEmpty),
		NoWait:   flags.Has(NoWait),
	}, !flags.Has(NoWait), keyQueueDeleteOK)
}

// QueueDelete returns the number of messages deleted, zero with NoWait.
func (ch *Channel) QueueDelete(ctx context.Context, queue string, flags Flag) (uint32, error) {
	r, err := ch.QueueDeleteAsync(queue, flags)
	m, err := wait(ctx, r, err)
	if err != nil || m == nil {
		return 0, err
	}
	return m.(*protocol.QueueDeleteOKMethod).MessageCount, nil
}

// Qos limits unacknowledged deliveries.
func (ch *Channel) Qos(ctx context.Context, prefetchSize uint32, prefetchCount uint16, global bool) error {
	r, err := ch.request(&protocol.BasicQosMethod{
		PrefetchSize:  prefetchSize,
		PrefetchCount: prefetchCount,
		Global:        global,
	}, true, keyBasicQosOK)
	_, err = wait(ctx, r, err)
	return err
}

// Publish sends body as one message: a method frame, a content header and
// as many body frames as frame-max requires. headers may mix basic
// properties such as "content-type" with custom headers.
//
// On a confirm channel it returns the publish sequence number, starting at
// 1, which later acks and nacks refer to. Otherwise it returns 0.
func (ch *Channel) Publish(body []byte, headers protocol.Table, exchange, routingKey string, mandatory, immediate bool) (uint64, error) {
	if err := ch.usable("basic.publish"); err != nil {
		return 0, err
	}
	header, err := protocol.NewContentHeader(protocol.ClassBasic, uint64(len(body)), headers)
	if err != nil {
		return 0, amqperrors.NewUsageError("basic.publish", ch.id, err.Error())
	}

	chunk := ch.client.maxBodyFrame()
	frames := make([]protocol.Frame, 0, 2+len(body)/chunk+1)
	frames = append(frames,
		&protocol.MethodFrame{Channel: ch.id, Method: &protocol.BasicPublishMethod{
			Exchange:   exchange,
			RoutingKey: routingKey,
			Mandatory:  mandatory,
			Immediate:  immediate,
		}},
		&protocol.HeaderFrame{Channel: ch.id, Header: header},
	)
	for offset := 0; offset < len(body); offset += chunk {
		end := offset + chunk
		if end > len(body) {
			end = len(body)
		}
		frames = append(frames, &protocol.BodyFrame{Channel: ch.id, Payload: body[offset:end]})
	}

	if err := ch.client.send(frames...); err != nil {
		return 0, err
	}
	ch.client.metrics.RecordMessagePublished(len(body))

	if ch.mode != ModeConfirm {
		return 0, nil
	}
	ch.deliveryTag++
	ch.confirms.add(ch.deliveryTag)
	return ch.deliveryTag, nil
}

// ConsumeAsync starts a consumer. Reads NoLocal, NoAck, Exclusive and
// NoWait. The callback is registered when consume-ok arrives, or at once
// with NoWait, in which case an empty tag is replaced by a generated one.
func (ch *Channel) ConsumeAsync(fn DeliveryFunc, queue, tag string, flags Flag, args protocol.Table) (*Reply, error) {
	if fn == nil {
		return nil, amqperrors.NewUsageError("basic.consume", ch.id, "nil delivery callback")
	}
	noWait := flags.Has(NoWait)
	if noWait && tag == "" {
		tag = "ctag-" + uuid.NewString()
	}
	if tag != "" && ch.consumers.has(tag) {
		return nil, amqperrors.NewUsageError("basic.consume", ch.id, fmt.Sprintf("consumer tag %q already registered", tag))
	}

	r, err := ch.request(&protocol.BasicConsumeMethod{
		Queue:       queue,
		ConsumerTag: tag,
		NoLocal:     flags.Has(NoLocal),
		NoAck:       flags.Has(NoAck),
		Exclusive:   flags.Has(Exclusive),
		NoWait:      noWait,
		Arguments:   args,
	}, !noWait, keyBasicConsumeOK)
	if err != nil {
		return nil, err
	}

	if noWait {
		ch.consumers.register(tag, fn)
		r.method = &protocol.BasicConsumeOKMethod{ConsumerTag: tag}
		ch.logger.Debug("Consumer registered", zap.String("consumer_tag", tag), zap.String("queue", queue))
		return r, nil
	}
	r.Then(func(m protocol.Method, err error) {
		if err != nil {
			return
		}
		ok := m.(*protocol.BasicConsumeOKMethod)
		ch.consumers.register(ok.ConsumerTag, fn)
		ch.logger.Debug("Consumer registered", zap.String("consumer_tag", ok.ConsumerTag), zap.String("queue", queue))
	})
	return r, nil
}

// Consume starts a consumer and returns its tag.
func (ch *Channel) Consume(ctx context.Context, fn DeliveryFunc, queue, tag string, flags Flag, args protocol.Table) (string, error) {
	r, err := ch.ConsumeAsync(fn, queue, tag, flags, args)
	m, err := wait(ctx, r, err)
	if err != nil {
		return "", err
	}
	return m.(*protocol.BasicConsumeOKMethod).ConsumerTag, nil
}

// CancelAsync stops a consumer. The callback is unregistered before the
// request is sent, so deliveries already in flight for the tag are dropped.
func (ch *Channel) CancelAsync(consumerTag string, noWait bool) (*Reply, error) {
	ch.consumers.remove(consumerTag)
	return ch.request(&protocol.BasicCancelMethod{ConsumerTag: consumerTag, NoWait: noWait}, !noWait, keyBasicCancelOK)
}

func (ch *Channel) Cancel(ctx context.Context, consumerTag string, noWait bool) error {
	r, err := ch.CancelAsync(consumerTag, noWait)
	_, err = wait(ctx, r, err)
	return err
}

// GetAsync fetches one message. Only one get may be outstanding per
// channel; a second call fails at once instead of queueing.
func (ch *Channel) GetAsync(queue string, noAck bool) (*Reply, error) {
	if err := ch.usable("basic.get"); err != nil {
		return nil, err
	}
	if ch.getSlot != nil {
		return nil, amqperrors.NewGetInProgress(ch.id)
	}
	r, err := ch.request(&protocol.BasicGetMethod{Queue: queue, NoAck: noAck}, true, keyBasicGetOK, keyBasicGetEmpty)
	if err != nil {
		return nil, err
	}
	ch.getSlot = r
	return r, nil
}

// Get fetches one message, or returns nil when the queue is empty.
func (ch *Channel) Get(ctx context.Context, queue string, noAck bool) (*Message, error) {
	r, err := ch.GetAsync(queue, noAck)
	if _, err = wait(ctx, r, err); err != nil {
		return nil, err
	}
	return r.Message(), nil
}

// Ack acknowledges msg, and every earlier unacknowledged delivery when
// multiple is set.
func (ch *Channel) Ack(msg *Message, multiple bool) error {
	if msg.DeliveryTag() == 0 {
		return amqperrors.NewUsageError("basic.ack", ch.id, "message has no delivery tag")
	}
	return ch.AckTag(msg.DeliveryTag(), multiple)
}

func (ch *Channel) AckTag(deliveryTag uint64, multiple bool) error {
	return ch.notify(&protocol.BasicAckMethod{DeliveryTag: deliveryTag, Multiple: multiple})
}

// Nack rejects msg, and every earlier unacknowledged delivery when multiple
// is set.
func (ch *Channel) Nack(msg *Message, multiple, requeue bool) error {
	if msg.DeliveryTag() == 0 {
		return amqperrors.NewUsageError("basic.nack", ch.id, "message has no delivery tag")
	}
	return ch.NackTag(msg.DeliveryTag(), multiple, requeue)
}

func (ch *Channel) NackTag(deliveryTag uint64, multiple, requeue bool) error {
	return ch.notify(&protocol.BasicNackMethod{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue})
}

// Reject rejects a single message.
func (ch *Channel) Reject(msg *Message, requeue bool) error {
	if msg.DeliveryTag() == 0 {
		return amqperrors.NewUsageError("basic.reject", ch.id, "message has no delivery tag")
	}
	return ch.RejectTag(msg.DeliveryTag(), requeue)
}

func (ch *Channel) RejectTag(deliveryTag uint64, requeue bool) error {
	return ch.notify(&protocol.BasicRejectMethod{DeliveryTag: deliveryTag, Requeue: requeue})
}

// Recover asks the broker to redeliver unacknowledged messages.
func (ch *Channel) Recover(ctx context.Context, requeue bool) error {
	r, err := ch.request(&protocol.BasicRecoverMethod{Requeue: requeue}, true, keyBasicRecoverOK)
	_, err = wait(ctx, r, err)
	return err
}

// RecoverAsync sends the deprecated basic.recover-async, which has no reply.
func (ch *Channel) RecoverAsync(requeue bool) error {
	return ch.notify(&protocol.BasicRecoverAsyncMethod{Requeue: requeue})
}

// TxSelectAsync puts a regular channel in transactional mode.
func (ch *Channel) TxSelectAsync() (*Reply, error) {
	if err := ch.usable("tx.select"); err != nil {
		return nil, err
	}
	if ch.mode != ModeRegular {
		return nil, amqperrors.NewModeError("tx.select", ch.id, ch.mode.String(), ModeRegular.String())
	}
	r, err := ch.request(&protocol.TxSelectMethod{}, true, keyTxSelectOK)
	if err != nil {
		return nil, err
	}
	ch.mode = ModeTransactional
	return r, nil
}

func (ch *Channel) TxSelect(ctx context.Context) error {
	r, err := ch.TxSelectAsync()
	_, err = wait(ctx, r, err)
	return err
}

func (ch *Channel) TxCommit(ctx context.Context) error {
	r, err := ch.txRequest("tx.commit", &protocol.TxCommitMethod{}, keyTxCommitOK)
	_, err = wait(ctx, r, err)
	return err
}

func (ch *Channel) TxRollback(ctx context.Context) error {
	r, err := ch.txRequest("tx.rollback", &protocol.TxRollbackMethod{}, keyTxRollbackOK)
	_, err = wait(ctx, r, err)
	return err
}

func (ch *Channel) txRequest(op string, m protocol.Method, expect protocol.MethodKey) (*Reply, error) {
	if err := ch.usable(op); err != nil {
		return nil, err
	}
	if ch.mode != ModeTransactional {
		return nil, amqperrors.NewModeError(op, ch.id, ch.mode.String(), ModeTransactional.String())
	}
	return ch.request(m, true, expect)
}

// ConfirmSelectAsync puts a regular channel in confirm mode, resets the
// publish sequence to zero and registers listener when non-nil.
func (ch *Channel) ConfirmSelectAsync(listener *AckListener, noWait bool) (*Reply, error) {
	if err := ch.usable("confirm.select"); err != nil {
		return nil, err
	}
	if ch.mode != ModeRegular {
		return nil, amqperrors.NewModeError("confirm.select", ch.id, ch.mode.String(), ModeRegular.String())
	}
	r, err := ch.request(&protocol.ConfirmSelectMethod{NoWait: noWait}, !noWait, keyConfirmSelectOK)
	if err != nil {
		return nil, err
	}
	ch.mode = ModeConfirm
	ch.deliveryTag = 0
	ch.confirms.reset()
	if listener != nil {
		ch.ackListeners.add(listener)
	}
	return r, nil
}

func (ch *Channel) ConfirmSelect(ctx context.Context, listener *AckListener, noWait bool) error {
	r, err := ch.ConfirmSelectAsync(listener, noWait)
	_, err = wait(ctx, r, err)
	return err
}

// Unconfirmed lists publish sequence numbers still awaiting ack or nack.
func (ch *Channel) Unconfirmed() []uint64 {
	return ch.confirms.list()
}

// WaitForConfirms pumps the connection until every publish is acked or
// nacked. It reports false if any nack arrived since the previous call.
func (ch *Channel) WaitForConfirms(ctx context.Context) (bool, error) {
	if ch.mode != ModeConfirm {
		return false, amqperrors.NewModeError("wait for confirms", ch.id, ch.mode.String(), ModeConfirm.String())
	}
	err := ch.client.pump(ctx, func() bool {
		return ch.confirms.empty() || ch.state.Terminal()
	})
	if err != nil {
		return false, err
	}
	if ch.state.Terminal() {
		return false, ch.usable("wait for confirms")
	}
	return !ch.confirms.takeNacked(), nil
}

// AddReturnListener registers l for unroutable messages. Adding the same
// handle twice registers it once.
func (ch *Channel) AddReturnListener(l *ReturnListener) {
	ch.returnListeners.add(l)
}

// RemoveReturnListener is a no-op for handles never added.
func (ch *Channel) RemoveReturnListener(l *ReturnListener) {
	ch.returnListeners.remove(l)
}

// AddAckListener registers l for acks and nacks. The channel must be in
// confirm mode.
func (ch *Channel) AddAckListener(l *AckListener) error {
	if ch.mode != ModeConfirm {
		return amqperrors.NewModeError("add ack listener", ch.id, ch.mode.String(), ModeConfirm.String())
	}
	ch.ackListeners.add(l)
	return nil
}

// RemoveAckListener is a no-op for handles never added.
func (ch *Channel) RemoveAckListener(l *AckListener) {
	ch.ackListeners.remove(l)
}

// AddCancelListener registers l for consumers cancelled by the broker.
func (ch *Channel) AddCancelListener(l *CancelListener) {
	ch.cancelListeners.add(l)
}

func (ch *Channel) RemoveCancelListener(l *CancelListener) {
	ch.cancelListeners.remove(l)
}

// CloseAsync starts closing the channel. While the close is in progress it
// returns the same reply; once closed it fails with a usage error.
func (ch *Channel) CloseAsync(code uint16, text string) (*Reply, error) {
	switch ch.state {
	case StateClosing:
		return ch.closeReply, nil
	case StateClosed:
		return nil, amqperrors.NewAlreadyClosed("channel.close", ch.id)
	case StateError:
		return nil, ch.err
	}
	if err := ch.client.usable("channel.close"); err != nil {
		return nil, err
	}
	if err := ch.client.send(&protocol.MethodFrame{Channel: ch.id, Method: &protocol.ChannelCloseMethod{
		ReplyCode: code,
		ReplyText: text,
	}}); err != nil {
		return nil, err
	}
	ch.resetContent()
	ch.state = StateClosing
	ch.closeReply = newReply(ch.client, keyChannelCloseOK)
	return ch.closeReply, nil
}

// Close closes the channel and waits for the broker to confirm.
func (ch *Channel) Close(ctx context.Context, code uint16, text string) error {
	r, err := ch.CloseAsync(code, text)
	_, err = wait(ctx, r, err)
	return err
}
