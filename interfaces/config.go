package interfaces

import (
	"time"
)

// Config defines the interface for client configuration
type Config interface {
	// GetConnection returns broker connection settings
	GetConnection() ConnectionConfig

	// GetChannel returns per-channel defaults
	GetChannel() ChannelConfig

	// GetRPC returns request/reply settings
	GetRPC() RPCConfig

	// GetTelemetry returns logging and metrics settings
	GetTelemetry() TelemetryConfig

	// Validate validates the configuration
	Validate() error

	// Load loads configuration from a source
	Load(source string) error

	// Save saves configuration to a destination
	Save(destination string) error
}

// ConnectionConfig holds broker connection settings
type ConnectionConfig struct {
	Host        string `koanf:"host" yaml:"host"`
	Port        int    `koanf:"port" yaml:"port"`
	VirtualHost string `koanf:"vhost" yaml:"vhost"`
	Username    string `koanf:"username" yaml:"username"`
	Password    string `koanf:"password" yaml:"password"`

	// SASL mechanism; empty picks the first of PLAIN, AMQPLAIN, EXTERNAL,
	// ANONYMOUS the broker offers
	Mechanism string `koanf:"mechanism" yaml:"mechanism,omitempty"`

	// Heartbeat proposed to the broker; the lower non-zero value wins
	Heartbeat time.Duration `koanf:"heartbeat" yaml:"heartbeat"`

	// Timeout for dialing and for the protocol handshake
	ConnectionTimeout time.Duration `koanf:"connection_timeout" yaml:"connection_timeout"`

	// Protocol limits proposed to the broker (0 = accept the broker's)
	FrameMax   uint32 `koanf:"frame_max" yaml:"frame_max"`
	ChannelMax uint16 `koanf:"channel_max" yaml:"channel_max"`

	// Buffer sizes
	ReadBufferSize  int `koanf:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize int `koanf:"write_buffer_size" yaml:"write_buffer_size"`

	// TLS settings
	TLSEnabled    bool   `koanf:"tls_enabled" yaml:"tls_enabled"`
	TLSCAFile     string `koanf:"tls_ca_file" yaml:"tls_ca_file"`
	TLSCertFile   string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile    string `koanf:"tls_key_file" yaml:"tls_key_file"`
	TLSServerName string `koanf:"tls_server_name" yaml:"tls_server_name"`
}

// ExchangeConfig describes an exchange declared when a channel is built
// by the channel factory
type ExchangeConfig struct {
	Name      string                 `koanf:"name" yaml:"name"`
	Type      string                 `koanf:"type" yaml:"type"`
	Flags     []string               `koanf:"flags" yaml:"flags,omitempty"`
	Arguments map[string]interface{} `koanf:"arguments" yaml:"arguments,omitempty"`
}

// ChannelConfig holds per-channel defaults
type ChannelConfig struct {
	PrefetchSize   uint32 `koanf:"prefetch_size" yaml:"prefetch_size"`
	PrefetchCount  uint16 `koanf:"prefetch_count" yaml:"prefetch_count"`
	PrefetchGlobal bool   `koanf:"prefetch_global" yaml:"prefetch_global"`

	// Arguments merged under the caller's on every queue declare
	DefaultQueueArguments map[string]interface{} `koanf:"default_queue_arguments" yaml:"default_queue_arguments,omitempty"`

	// Exchanges declared by the channel factory
	Exchanges []ExchangeConfig `koanf:"exchanges" yaml:"exchanges,omitempty"`
}

// RPCConfig holds request/reply settings
type RPCConfig struct {
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// TelemetryConfig holds logging and metrics settings
type TelemetryConfig struct {
	LogLevel       string `koanf:"log_level" yaml:"log_level"`
	LogFile        string `koanf:"log_file" yaml:"log_file"`
	MetricsEnabled bool   `koanf:"metrics_enabled" yaml:"metrics_enabled"`
	MetricsPort    int    `koanf:"metrics_port" yaml:"metrics_port"`
	Namespace      string `koanf:"namespace" yaml:"namespace"`
}
