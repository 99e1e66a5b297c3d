package interfaces

// MetricsCollector receives client activity counters
type MetricsCollector interface {
	// Frame metrics
	RecordFrameSent(frameType byte, size int)
	RecordFrameReceived(frameType byte, size int)
	RecordHeartbeatSent()

	// Connection and channel metrics
	RecordConnectionOpened()
	RecordConnectionClosed()
	RecordChannelOpened()
	RecordChannelClosed()

	// Message metrics
	RecordMessagePublished(size int)
	RecordMessageDelivered(size int)
	RecordMessageReturned(size int)
	RecordMessageFetched(size int)

	// Confirm metrics
	RecordConfirm(ack bool)

	// Error metrics
	RecordProtocolError(kind string)
}

// NoOpMetricsCollector is a metrics collector that does nothing
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordFrameSent(frameType byte, size int)     {}
func (n *NoOpMetricsCollector) RecordFrameReceived(frameType byte, size int) {}
func (n *NoOpMetricsCollector) RecordHeartbeatSent()                         {}
func (n *NoOpMetricsCollector) RecordConnectionOpened()                      {}
func (n *NoOpMetricsCollector) RecordConnectionClosed()                      {}
func (n *NoOpMetricsCollector) RecordChannelOpened()                         {}
func (n *NoOpMetricsCollector) RecordChannelClosed()                         {}
func (n *NoOpMetricsCollector) RecordMessagePublished(size int)              {}
func (n *NoOpMetricsCollector) RecordMessageDelivered(size int)              {}
func (n *NoOpMetricsCollector) RecordMessageReturned(size int)               {}
func (n *NoOpMetricsCollector) RecordMessageFetched(size int)                {}
func (n *NoOpMetricsCollector) RecordConfirm(ack bool)                       {}
func (n *NoOpMetricsCollector) RecordProtocolError(kind string)              {}
