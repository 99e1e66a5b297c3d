package broker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/digitalnomadru/bunny/protocol"
)

// Reply codes the broker uses when closing a channel.
const (
	codeNoRoute            = 312
	codeNotFound           = 404
	codePreconditionFailed = 406
)

func (b *Broker) handle(f protocol.Frame) {
	switch fr := f.(type) {
	case *protocol.HeartbeatFrame:
	case *protocol.MethodFrame:
		if fr.Channel == 0 {
			b.onConnection(fr.Method)
			return
		}
		b.onChannel(fr.Channel, fr.Method)
	case *protocol.HeaderFrame:
		ch := b.channels[fr.Channel]
		if ch == nil || ch.publish == nil {
			return
		}
		ch.header = fr.Header
		ch.body = make([]byte, 0, fr.Header.BodySize)
		if fr.Header.BodySize == 0 {
			b.published(ch)
		}
	case *protocol.BodyFrame:
		ch := b.channels[fr.Channel]
		if ch == nil || ch.header == nil {
			return
		}
		ch.body = append(ch.body, fr.Payload...)
		if uint64(len(ch.body)) >= ch.header.BodySize {
			b.published(ch)
		}
	}
}

func (b *Broker) onConnection(method protocol.Method) {
	switch m := method.(type) {
	case *protocol.ConnectionStartOKMethod:
		b.mechanism = m.Mechanism
		b.username, b.password = credentials(m.Mechanism, m.Response)
		b.Method(0, &protocol.ConnectionTuneMethod{ChannelMax: 2047, FrameMax: b.frameMax, Heartbeat: b.heartbeat})
	case *protocol.ConnectionTuneOKMethod:
	case *protocol.ConnectionOpenMethod:
		b.vhost = m.VirtualHost
		b.Method(0, &protocol.ConnectionOpenOKMethod{})
	case *protocol.ConnectionCloseMethod:
		b.Method(0, &protocol.ConnectionCloseOKMethod{})
		b.HangUp()
	case *protocol.ConnectionCloseOKMethod:
		b.HangUp()
	}
}

// credentials extracts the username and password from a PLAIN or
// AMQPLAIN response.
func credentials(mechanism string, response []byte) (string, string) {
	switch mechanism {
	case "PLAIN":
		parts := strings.Split(string(response), "\x00")
		if len(parts) == 3 {
			return parts[1], parts[2]
		}
	case "AMQPLAIN":
		size := len(response)
		framed := append([]byte{byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)}, response...)
		if table, err := protocol.DecodeFieldTable(framed); err == nil {
			login, _ := table["LOGIN"].(string)
			password, _ := table["PASSWORD"].(string)
			return login, password
		}
	}
	return "", ""
}

func (b *Broker) onChannel(id uint16, method protocol.Method) {
	if _, ok := method.(*protocol.ChannelOpenMethod); ok {
		b.channels[id] = &channel{id: id}
		b.Method(id, &protocol.ChannelOpenOKMethod{})
		return
	}
	ch := b.channels[id]
	if ch == nil {
		// Frames crossing a broker-initiated close.
		return
	}

	switch m := method.(type) {
	case *protocol.ChannelCloseMethod:
		b.dropChannel(id)
		b.Method(id, &protocol.ChannelCloseOKMethod{})
	case *protocol.ChannelCloseOKMethod:
		b.dropChannel(id)
	case *protocol.ChannelFlowOKMethod:

	case *protocol.ExchangeDeclareMethod:
		if _, ok := b.exchanges[m.Exchange]; !ok && m.Passive {
			b.closeChannel(id, codeNotFound, fmt.Sprintf("NOT_FOUND - no exchange '%s'", m.Exchange), m.Key())
			return
		}
		b.exchanges[m.Exchange] = m.Type
		b.reply(id, m.NoWait, &protocol.ExchangeDeclareOKMethod{})
	case *protocol.ExchangeDeleteMethod:
		delete(b.exchanges, m.Exchange)
		b.reply(id, m.NoWait, &protocol.ExchangeDeleteOKMethod{})
	case *protocol.ExchangeBindMethod:
		b.reply(id, m.NoWait, &protocol.ExchangeBindOKMethod{})
	case *protocol.ExchangeUnbindMethod:
		b.reply(id, m.NoWait, &protocol.ExchangeUnbindOKMethod{})

	case *protocol.QueueDeclareMethod:
		name := m.Queue
		if name == "" {
			b.queueSeq++
			name = fmt.Sprintf("amq.gen-%d", b.queueSeq)
		}
		q, ok := b.queues[name]
		if !ok {
			if m.Passive {
				b.closeChannel(id, codeNotFound, fmt.Sprintf("NOT_FOUND - no queue '%s'", name), m.Key())
				return
			}
			q = &queue{name: name, args: m.Arguments}
			b.queues[name] = q
		}
		b.reply(id, m.NoWait, &protocol.QueueDeclareOKMethod{
			Queue:         name,
			MessageCount:  uint32(len(q.messages)),
			ConsumerCount: uint32(len(q.consumers)),
		})
	case *protocol.QueueBindMethod:
		b.bindings = append(b.bindings, binding{exchange: m.Exchange, routingKey: m.RoutingKey, queue: m.Queue, args: m.Arguments})
		b.reply(id, m.NoWait, &protocol.QueueBindOKMethod{})
	case *protocol.QueueUnbindMethod:
		kept := b.bindings[:0]
		for _, bd := range b.bindings {
			if bd.exchange != m.Exchange || bd.routingKey != m.RoutingKey || bd.queue != m.Queue {
				kept = append(kept, bd)
			}
		}
		b.bindings = kept
		b.Method(id, &protocol.QueueUnbindOKMethod{})
	case *protocol.QueuePurgeMethod:
		var count int
		if q := b.queues[m.Queue]; q != nil {
			count = len(q.messages)
			q.messages = nil
		}
		b.reply(id, m.NoWait, &protocol.QueuePurgeOKMethod{MessageCount: uint32(count)})
	case *protocol.QueueDeleteMethod:
		var count int
		if q := b.queues[m.Queue]; q != nil {
			count = len(q.messages)
			delete(b.queues, m.Queue)
		}
		b.reply(id, m.NoWait, &protocol.QueueDeleteOKMethod{MessageCount: uint32(count)})

	case *protocol.BasicQosMethod:
		b.Method(id, &protocol.BasicQosOKMethod{})
	case *protocol.BasicConsumeMethod:
		b.consume(ch, m)
	case *protocol.BasicCancelMethod:
		if ch.replyTag == m.ConsumerTag {
			ch.replyTag = ""
		} else {
			b.removeConsumer(m.ConsumerTag)
		}
		b.reply(id, m.NoWait, &protocol.BasicCancelOKMethod{ConsumerTag: m.ConsumerTag})
	case *protocol.BasicPublishMethod:
		ch.publish = m
	case *protocol.BasicGetMethod:
		q := b.queues[m.Queue]
		if q == nil || len(q.messages) == 0 {
			b.Method(id, &protocol.BasicGetEmptyMethod{})
			return
		}
		msg := q.messages[0]
		q.messages = q.messages[1:]
		ch.deliveryTag++
		b.Method(id, &protocol.BasicGetOKMethod{
			DeliveryTag:  ch.deliveryTag,
			Exchange:     msg.exchange,
			RoutingKey:   msg.routingKey,
			MessageCount: uint32(len(q.messages)),
		})
		b.content(id, msg)
	case *protocol.BasicAckMethod, *protocol.BasicNackMethod, *protocol.BasicRejectMethod:
	case *protocol.BasicRecoverMethod:
		b.Method(id, &protocol.BasicRecoverOKMethod{})
	case *protocol.BasicRecoverAsyncMethod:
	case *protocol.ConfirmSelectMethod:
		ch.confirm = true
		b.reply(id, m.NoWait, &protocol.ConfirmSelectOKMethod{})
	case *protocol.TxSelectMethod:
		b.Method(id, &protocol.TxSelectOKMethod{})
	case *protocol.TxCommitMethod:
		b.Method(id, &protocol.TxCommitOKMethod{})
	case *protocol.TxRollbackMethod:
		b.Method(id, &protocol.TxRollbackOKMethod{})
	default:
		b.t.Logf("broker: ignoring %s", protocol.MethodName(method))
	}
}

func (b *Broker) consume(ch *channel, m *protocol.BasicConsumeMethod) {
	tag := m.ConsumerTag
	if tag == "" {
		b.tagSeq++
		tag = fmt.Sprintf("amq.ctag-%d", b.tagSeq)
	}

	if m.Queue == DirectReplyTo {
		if !m.NoAck {
			b.closeChannel(ch.id, codePreconditionFailed,
				"PRECONDITION_FAILED - reply consumer cannot acknowledge", m.Key())
			return
		}
		ch.replyTag = tag
		b.reply(ch.id, m.NoWait, &protocol.BasicConsumeOKMethod{ConsumerTag: tag})
		return
	}

	q := b.queues[m.Queue]
	if q == nil {
		b.closeChannel(ch.id, codeNotFound, fmt.Sprintf("NOT_FOUND - no queue '%s'", m.Queue), m.Key())
		return
	}
	q.consumers = append(q.consumers, &consumer{tag: tag, channel: ch.id, queue: q.name})
	b.reply(ch.id, m.NoWait, &protocol.BasicConsumeOKMethod{ConsumerTag: tag})
	b.dispatch(q)
}

func (b *Broker) reply(id uint16, noWait bool, m protocol.Method) {
	if !noWait {
		b.Method(id, m)
	}
}

// closeChannel starts a broker-initiated close of channel id.
func (b *Broker) closeChannel(id uint16, code uint16, text string, cause protocol.MethodKey) {
	b.dropChannel(id)
	b.Method(id, &protocol.ChannelCloseMethod{ReplyCode: code, ReplyText: text, ClassID: cause.Class, MethodID: cause.Method})
}

func (b *Broker) dropChannel(id uint16) {
	delete(b.channels, id)
	for _, q := range b.queues {
		kept := q.consumers[:0]
		for _, c := range q.consumers {
			if c.channel != id {
				kept = append(kept, c)
			}
		}
		q.consumers = kept
	}
}

func (b *Broker) removeConsumer(tag string) *consumer {
	for _, q := range b.queues {
		for i, c := range q.consumers {
			if c.tag == tag {
				q.consumers = append(q.consumers[:i], q.consumers[i+1:]...)
				return c
			}
		}
	}
	return nil
}

func (b *Broker) published(ch *channel) {
	pub, header, body := ch.publish, ch.header, ch.body
	ch.publish, ch.header, ch.body = nil, nil, nil

	if header.ReplyTo == DirectReplyTo {
		if ch.replyTag == "" {
			b.closeChannel(ch.id, codePreconditionFailed,
				"PRECONDITION_FAILED - fast reply consumer does not exist", pub.Key())
			return
		}
		header.ReplyTo = fmt.Sprintf("%s.%d", DirectReplyTo, ch.id)
	}

	msg := message{exchange: pub.Exchange, routingKey: pub.RoutingKey, header: header, body: body}
	routed := b.replyDirect(msg)
	targets := b.route(pub.Exchange, pub.RoutingKey, header.Headers)
	if !routed && len(targets) == 0 && pub.Mandatory {
		b.Method(ch.id, &protocol.BasicReturnMethod{
			ReplyCode:  codeNoRoute,
			ReplyText:  "NO_ROUTE",
			Exchange:   pub.Exchange,
			RoutingKey: pub.RoutingKey,
		})
		b.content(ch.id, msg)
	}
	for _, q := range targets {
		q.messages = append(q.messages, msg)
	}

	if ch.confirm {
		ch.publishSeq++
		if b.nackNext {
			b.nackNext = false
			b.Method(ch.id, &protocol.BasicNackMethod{DeliveryTag: ch.publishSeq})
		} else {
			b.Method(ch.id, &protocol.BasicAckMethod{DeliveryTag: ch.publishSeq})
		}
	}
	for _, q := range targets {
		b.dispatch(q)
	}
}

// replyDirect delivers a message published to the default exchange with a
// direct reply-to routing key straight to the waiting reply consumer.
func (b *Broker) replyDirect(msg message) bool {
	if msg.exchange != "" || !strings.HasPrefix(msg.routingKey, DirectReplyTo+".") {
		return false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(msg.routingKey, DirectReplyTo+"."), 10, 16)
	if err != nil {
		return false
	}
	ch := b.channels[uint16(id)]
	if ch == nil || ch.replyTag == "" {
		return false
	}
	ch.deliveryTag++
	b.Method(ch.id, &protocol.BasicDeliverMethod{
		ConsumerTag: ch.replyTag,
		DeliveryTag: ch.deliveryTag,
		Exchange:    msg.exchange,
		RoutingKey:  msg.routingKey,
	})
	b.content(ch.id, msg)
	return true
}

func (b *Broker) dispatch(q *queue) {
	for len(q.messages) > 0 && len(q.consumers) > 0 {
		c := q.consumers[q.next%len(q.consumers)]
		q.next++
		msg := q.messages[0]
		q.messages = q.messages[1:]
		ch := b.channels[c.channel]
		ch.deliveryTag++
		b.Method(c.channel, &protocol.BasicDeliverMethod{
			ConsumerTag: c.tag,
			DeliveryTag: ch.deliveryTag,
			Exchange:    msg.exchange,
			RoutingKey:  msg.routingKey,
		})
		b.content(c.channel, msg)
	}
}

// content sends a header and the body split at the broker's frame-max.
func (b *Broker) content(channel uint16, msg message) {
	header := *msg.header
	header.BodySize = uint64(len(msg.body))
	b.Send(&protocol.HeaderFrame{Channel: channel, Header: &header})
	chunk := len(msg.body)
	if b.frameMax > 0 {
		chunk = int(b.frameMax) - protocol.FrameOverhead
	}
	for offset := 0; offset < len(msg.body); offset += chunk {
		end := offset + chunk
		if end > len(msg.body) {
			end = len(msg.body)
		}
		b.Send(&protocol.BodyFrame{Channel: channel, Payload: msg.body[offset:end]})
	}
}
