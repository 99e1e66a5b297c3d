// Package broker is a small in-memory AMQP 0-9-1 broker that speaks the
// wire protocol over one end of a net.Pipe. Client and rpc tests run
// against it.
package broker

import (
	"io"
	"net"
	"sync"
	"testing"

	"github.com/digitalnomadru/bunny/protocol"
)

// DirectReplyTo is the pseudo-queue used for direct reply-to.
const DirectReplyTo = "amq.rabbitmq.reply-to"

// Broker manages exchanges, queues, and routing for a single connection.
// A reader goroutine handles client frames; a writer goroutine drains an
// unbounded outbox so the reader never blocks on the client.
type Broker struct {
	t         testing.TB
	conn      net.Conn
	frameMax  uint32
	heartbeat uint16
	offered   string

	outMu   sync.Mutex
	outCond *sync.Cond
	outbox  [][]byte
	stopped bool

	mu         sync.Mutex
	queues     map[string]*queue
	exchanges  map[string]string
	bindings   []binding
	channels   map[uint16]*channel
	received   []protocol.Frame
	mechanism  string
	username   string
	password   string
	vhost      string
	nackNext   bool
	queueSeq   int
	tagSeq     int
	clientGone bool

	done chan struct{}
}

type queue struct {
	name      string
	args      protocol.Table
	messages  []message
	consumers []*consumer
	next      int
}

type message struct {
	exchange   string
	routingKey string
	header     *protocol.ContentHeader
	body       []byte
}

type consumer struct {
	tag     string
	channel uint16
	queue   string
}

type binding struct {
	exchange   string
	routingKey string
	queue      string
	args       protocol.Table
}

type channel struct {
	id          uint16
	confirm     bool
	publishSeq  uint64
	deliveryTag uint64
	replyTag    string
	publish     *protocol.BasicPublishMethod
	header      *protocol.ContentHeader
	body        []byte
}

// New starts a broker and returns it with the client end of the pipe.
// A frameMax of zero means no limit. The broker stops when the test ends.
func New(t testing.TB, frameMax uint32) (*Broker, net.Conn) {
	server, clientConn := net.Pipe()
	b := &Broker{
		t:        t,
		conn:     server,
		frameMax: frameMax,
		offered:  "AMQPLAIN PLAIN",
		queues:   make(map[string]*queue),
		exchanges: map[string]string{
			"":           "direct",
			"amq.direct": "direct",
			"amq.fanout": "fanout",
			"amq.topic":  "topic",
			"amq.match":  "headers",
		},
		channels: make(map[uint16]*channel),
		done:     make(chan struct{}),
	}
	b.outCond = sync.NewCond(&b.outMu)
	go b.serve()
	go b.write()
	t.Cleanup(func() {
		b.stop()
		_ = clientConn.Close()
		<-b.done
	})
	return b, clientConn
}

// SetHeartbeat sets the heartbeat proposed in connection.tune. Call it
// before the client connects.
func (b *Broker) SetHeartbeat(seconds uint16) {
	b.mu.Lock()
	b.heartbeat = seconds
	b.mu.Unlock()
}

// SetMechanisms sets the space-separated SASL mechanisms offered in
// connection.start. Call it before the client connects.
func (b *Broker) SetMechanisms(offered string) {
	b.mu.Lock()
	b.offered = offered
	b.mu.Unlock()
}

func (b *Broker) offeredMechanisms() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offered
}

func (b *Broker) stop() {
	b.outMu.Lock()
	b.stopped = true
	b.outCond.Broadcast()
	b.outMu.Unlock()
	_ = b.conn.Close()
}

func (b *Broker) write() {
	for {
		b.outMu.Lock()
		for len(b.outbox) == 0 && !b.stopped {
			b.outCond.Wait()
		}
		if len(b.outbox) == 0 {
			b.outMu.Unlock()
			return
		}
		data := b.outbox[0]
		b.outbox = b.outbox[1:]
		b.outMu.Unlock()

		// nil asks the writer to hang up once everything before it is out.
		if data == nil {
			_ = b.conn.Close()
			return
		}
		if _, err := b.conn.Write(data); err != nil {
			return
		}
	}
}

func (b *Broker) push(data []byte) {
	b.outMu.Lock()
	b.outbox = append(b.outbox, data)
	b.outCond.Signal()
	b.outMu.Unlock()
}

// Send queues frames for the client.
func (b *Broker) Send(frames ...protocol.Frame) {
	for _, f := range frames {
		data, err := protocol.EncodeFrame(f)
		if err != nil {
			b.t.Errorf("broker encode %T: %v", f, err)
			return
		}
		b.push(data)
	}
}

// Method queues a single method frame.
func (b *Broker) Method(channel uint16, m protocol.Method) {
	b.Send(&protocol.MethodFrame{Channel: channel, Method: m})
}

// SendRaw queues bytes as they are.
func (b *Broker) SendRaw(data []byte) {
	b.push(append([]byte(nil), data...))
}

// HangUp closes the connection after queued output is written.
func (b *Broker) HangUp() {
	b.push(nil)
}

func (b *Broker) serve() {
	defer close(b.done)
	header := make([]byte, len(protocol.ProtocolHeader))
	if _, err := io.ReadFull(b.conn, header); err != nil {
		return
	}
	b.Method(0, &protocol.ConnectionStartMethod{
		VersionMajor:     0,
		VersionMinor:     9,
		ServerProperties: protocol.Table{"product": "bunny-broker"},
		Mechanisms:       b.offeredMechanisms(),
		Locales:          "en_US",
	})

	for {
		raw, err := protocol.ReadFrame(b.conn)
		if err != nil {
			b.mu.Lock()
			b.clientGone = true
			b.mu.Unlock()
			return
		}
		f, err := protocol.Decode(raw)
		if err != nil {
			b.t.Logf("broker: undecodable frame: %v", err)
			return
		}
		b.mu.Lock()
		b.received = append(b.received, f)
		b.handle(f)
		b.mu.Unlock()
	}
}
