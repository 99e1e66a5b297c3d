package config

import (
	"time"

	"github.com/digitalnomadru/bunny/interfaces"
)

// ConfigBuilder provides a fluent API for building client configurations
type ConfigBuilder struct {
	config *ClientConfig
}

// NewConfigBuilder creates a new configuration builder with default values
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: DefaultConfig(),
	}
}

// FromConfig creates a builder starting from an existing configuration
func FromConfig(config *ClientConfig) *ConfigBuilder {
	clone := *config
	clone.Channel.Exchanges = append([]interfaces.ExchangeConfig(nil), config.Channel.Exchanges...)
	clone.Channel.DefaultQueueArguments = make(map[string]interface{}, len(config.Channel.DefaultQueueArguments))
	for k, v := range config.Channel.DefaultQueueArguments {
		clone.Channel.DefaultQueueArguments[k] = v
	}
	return &ConfigBuilder{config: &clone}
}

// WithHost sets the broker host
func (b *ConfigBuilder) WithHost(host string) *ConfigBuilder {
	b.config.Connection.Host = host
	return b
}

// WithPort sets the broker port
func (b *ConfigBuilder) WithPort(port int) *ConfigBuilder {
	b.config.Connection.Port = port
	return b
}

// WithVirtualHost sets the virtual host opened after the handshake
func (b *ConfigBuilder) WithVirtualHost(vhost string) *ConfigBuilder {
	b.config.Connection.VirtualHost = vhost
	return b
}

// WithCredentials sets the PLAIN login
func (b *ConfigBuilder) WithCredentials(username, password string) *ConfigBuilder {
	b.config.Connection.Username = username
	b.config.Connection.Password = password
	return b
}

// WithMechanism sets the SASL mechanism used during the handshake
func (b *ConfigBuilder) WithMechanism(name string) *ConfigBuilder {
	b.config.Connection.Mechanism = name
	return b
}

// WithHeartbeat sets the heartbeat proposed to the broker
func (b *ConfigBuilder) WithHeartbeat(interval time.Duration) *ConfigBuilder {
	b.config.Connection.Heartbeat = interval
	return b
}

// WithConnectionTimeout sets the dial and handshake timeout
func (b *ConfigBuilder) WithConnectionTimeout(timeout time.Duration) *ConfigBuilder {
	b.config.Connection.ConnectionTimeout = timeout
	return b
}

// WithProtocolLimits sets frame-max and channel-max proposed to the broker
func (b *ConfigBuilder) WithProtocolLimits(channelMax uint16, frameMax uint32) *ConfigBuilder {
	b.config.Connection.ChannelMax = channelMax
	b.config.Connection.FrameMax = frameMax
	return b
}

// WithBufferSizes sets the read chunk and the outbound buffer bound
func (b *ConfigBuilder) WithBufferSizes(readSize, writeSize int) *ConfigBuilder {
	b.config.Connection.ReadBufferSize = readSize
	b.config.Connection.WriteBufferSize = writeSize
	return b
}

// WithTLS enables TLS, optionally verifying against caFile
func (b *ConfigBuilder) WithTLS(caFile, serverName string) *ConfigBuilder {
	b.config.Connection.TLSEnabled = true
	b.config.Connection.TLSCAFile = caFile
	b.config.Connection.TLSServerName = serverName
	return b
}

// WithClientCertificate sets the certificate presented to the broker
func (b *ConfigBuilder) WithClientCertificate(certFile, keyFile string) *ConfigBuilder {
	b.config.Connection.TLSCertFile = certFile
	b.config.Connection.TLSKeyFile = keyFile
	return b
}

// WithQos sets the prefetch applied by the channel factory
func (b *ConfigBuilder) WithQos(prefetchSize uint32, prefetchCount uint16, global bool) *ConfigBuilder {
	b.config.Channel.PrefetchSize = prefetchSize
	b.config.Channel.PrefetchCount = prefetchCount
	b.config.Channel.PrefetchGlobal = global
	return b
}

// WithDefaultQueueArgument adds an argument merged into every queue declare
func (b *ConfigBuilder) WithDefaultQueueArgument(key string, value interface{}) *ConfigBuilder {
	if b.config.Channel.DefaultQueueArguments == nil {
		b.config.Channel.DefaultQueueArguments = make(map[string]interface{})
	}
	b.config.Channel.DefaultQueueArguments[key] = value
	return b
}

// WithExchange adds an exchange declared by the channel factory
func (b *ConfigBuilder) WithExchange(name, kind string, flags ...string) *ConfigBuilder {
	b.config.Channel.Exchanges = append(b.config.Channel.Exchanges, interfaces.ExchangeConfig{
		Name:  name,
		Type:  kind,
		Flags: flags,
	})
	return b
}

// WithRPCTimeout sets how long a call waits for its reply
func (b *ConfigBuilder) WithRPCTimeout(timeout time.Duration) *ConfigBuilder {
	b.config.RPC.Timeout = timeout
	return b
}

// WithLogging sets log level and optional log file
func (b *ConfigBuilder) WithLogging(level, logFile string) *ConfigBuilder {
	b.config.Telemetry.LogLevel = level
	b.config.Telemetry.LogFile = logFile
	return b
}

// WithMetrics enables the Prometheus exporter on port
func (b *ConfigBuilder) WithMetrics(enabled bool, port int) *ConfigBuilder {
	b.config.Telemetry.MetricsEnabled = enabled
	b.config.Telemetry.MetricsPort = port
	return b
}

// Build returns the configuration after validation
func (b *ConfigBuilder) Build() (*ClientConfig, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// BuildUnsafe returns the configuration without validation
func (b *ConfigBuilder) BuildUnsafe() *ClientConfig {
	return b.config
}
