package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/digitalnomadru/bunny/protocol"
)

// Collector holds all Prometheus metrics for an AMQP client.
// It implements interfaces.MetricsCollector.
type Collector struct {
	// Frame metrics
	FramesSent         *prometheus.CounterVec
	FramesReceived     *prometheus.CounterVec
	FrameBytesSent     prometheus.Counter
	FrameBytesReceived prometheus.Counter
	HeartbeatsSent     prometheus.Counter

	// Connection metrics
	ConnectionsTotal   prometheus.Gauge
	ConnectionsCreated prometheus.Counter
	ConnectionsClosed  prometheus.Counter

	// Channel metrics
	ChannelsTotal   prometheus.Gauge
	ChannelsCreated prometheus.Counter
	ChannelsClosed  prometheus.Counter

	// Message metrics
	MessagesPublished      prometheus.Counter
	MessagesPublishedBytes prometheus.Counter
	MessagesDelivered      prometheus.Counter
	MessagesDeliveredBytes prometheus.Counter
	MessagesReturned       prometheus.Counter
	MessagesFetched        prometheus.Counter

	// Publisher confirm metrics
	ConfirmsReceived *prometheus.CounterVec

	// Error metrics
	ProtocolErrors *prometheus.CounterVec
}

// NewCollector registers the client metrics with the default registerer.
func NewCollector(namespace string) *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer, namespace)
}

// NewCollectorWith registers the client metrics with reg. A nil reg creates
// unregistered metrics.
func NewCollectorWith(reg prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = "bunny"
	}
	factory := promauto.With(reg)

	return &Collector{
		FramesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Total number of frames written to the broker",
		}, []string{"type"}),
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total number of frames decoded from the broker",
		}, []string{"type"}),
		FrameBytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_sent_total",
			Help:      "Total bytes of frames written to the broker",
		}),
		FrameBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_received_total",
			Help:      "Total bytes of frames decoded from the broker",
		}),
		HeartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeats_sent_total",
			Help:      "Total number of heartbeat frames sent",
		}),

		ConnectionsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Current number of open connections",
		}),
		ConnectionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_created_total",
			Help:      "Total number of connections opened",
		}),
		ConnectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Total number of connections closed",
		}),

		ChannelsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channels_total",
			Help:      "Current number of open channels",
		}),
		ChannelsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_created_total",
			Help:      "Total number of channels opened",
		}),
		ChannelsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_closed_total",
			Help:      "Total number of channels closed",
		}),

		MessagesPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Total number of messages published",
		}),
		MessagesPublishedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_bytes_total",
			Help:      "Total body bytes of messages published",
		}),
		MessagesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_delivered_total",
			Help:      "Total number of messages delivered to consumers",
		}),
		MessagesDeliveredBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_delivered_bytes_total",
			Help:      "Total body bytes of messages delivered to consumers",
		}),
		MessagesReturned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_returned_total",
			Help:      "Total number of messages returned as unroutable",
		}),
		MessagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_fetched_total",
			Help:      "Total number of messages fetched with basic.get",
		}),

		ConfirmsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirms_received_total",
			Help:      "Total number of publisher confirms by outcome",
		}, []string{"outcome"}),

		ProtocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of fatal errors by kind",
		}, []string{"kind"}),
	}
}

func frameTypeLabel(frameType byte) string {
	switch frameType {
	case protocol.FrameMethod:
		return "method"
	case protocol.FrameHeader:
		return "header"
	case protocol.FrameBody:
		return "body"
	case protocol.FrameHeartbeat:
		return "heartbeat"
	default:
		return strconv.Itoa(int(frameType))
	}
}

// RecordFrameSent counts an outbound frame of size bytes
func (c *Collector) RecordFrameSent(frameType byte, size int) {
	c.FramesSent.WithLabelValues(frameTypeLabel(frameType)).Inc()
	c.FrameBytesSent.Add(float64(size))
}

// RecordFrameReceived counts an inbound frame of size bytes
func (c *Collector) RecordFrameReceived(frameType byte, size int) {
	c.FramesReceived.WithLabelValues(frameTypeLabel(frameType)).Inc()
	c.FrameBytesReceived.Add(float64(size))
}

func (c *Collector) RecordHeartbeatSent() {
	c.HeartbeatsSent.Inc()
}

// RecordConnectionOpened increments connection creation counter and total
func (c *Collector) RecordConnectionOpened() {
	c.ConnectionsCreated.Inc()
	c.ConnectionsTotal.Inc()
}

// RecordConnectionClosed increments connection close counter and decrements total
func (c *Collector) RecordConnectionClosed() {
	c.ConnectionsClosed.Inc()
	c.ConnectionsTotal.Dec()
}

// RecordChannelOpened increments channel creation counter and total
func (c *Collector) RecordChannelOpened() {
	c.ChannelsCreated.Inc()
	c.ChannelsTotal.Inc()
}

// RecordChannelClosed increments channel close counter and decrements total
func (c *Collector) RecordChannelClosed() {
	c.ChannelsClosed.Inc()
	c.ChannelsTotal.Dec()
}

// RecordMessagePublished records a published message
func (c *Collector) RecordMessagePublished(size int) {
	c.MessagesPublished.Inc()
	c.MessagesPublishedBytes.Add(float64(size))
}

// RecordMessageDelivered records a delivered message
func (c *Collector) RecordMessageDelivered(size int) {
	c.MessagesDelivered.Inc()
	c.MessagesDeliveredBytes.Add(float64(size))
}

func (c *Collector) RecordMessageReturned(size int) {
	c.MessagesReturned.Inc()
}

func (c *Collector) RecordMessageFetched(size int) {
	c.MessagesFetched.Inc()
}

// RecordConfirm counts an ack or nack from the broker
func (c *Collector) RecordConfirm(ack bool) {
	outcome := "nack"
	if ack {
		outcome = "ack"
	}
	c.ConfirmsReceived.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordProtocolError(kind string) {
	c.ProtocolErrors.WithLabelValues(kind).Inc()
}
