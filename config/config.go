package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/interfaces"
)

// EnvPrefix prefixes environment overrides. Sections are separated by a
// double underscore: BUNNY_CONNECTION__HOST sets connection.host.
const EnvPrefix = "BUNNY_"

// DefaultConfig creates a configuration with sensible defaults
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Connection: interfaces.ConnectionConfig{
			Host:              "127.0.0.1",
			Port:              5672,
			VirtualHost:       "/",
			Username:          "guest",
			Password:          "guest",
			Heartbeat:         300 * time.Second,
			ConnectionTimeout: 30 * time.Second,
			FrameMax:          131072,
			ChannelMax:        2047,
			ReadBufferSize:    64 * 1024,
			WriteBufferSize:   64 * 1024,
		},
		Channel: interfaces.ChannelConfig{
			PrefetchSize:          0,
			PrefetchCount:         1,
			PrefetchGlobal:        true,
			DefaultQueueArguments: make(map[string]interface{}),
			Exchanges:             []interfaces.ExchangeConfig{},
		},
		RPC: interfaces.RPCConfig{
			Timeout: 30 * time.Second,
		},
		Telemetry: interfaces.TelemetryConfig{
			LogLevel:       "info",
			LogFile:        "",
			MetricsEnabled: false,
			MetricsPort:    9419,
			Namespace:      "bunny",
		},
	}
}

// ClientConfig implements interfaces.Config
type ClientConfig struct {
	Connection interfaces.ConnectionConfig `koanf:"connection" yaml:"connection"`
	Channel    interfaces.ChannelConfig    `koanf:"channel" yaml:"channel"`
	RPC        interfaces.RPCConfig        `koanf:"rpc" yaml:"rpc"`
	Telemetry  interfaces.TelemetryConfig  `koanf:"telemetry" yaml:"telemetry"`
}

func (c *ClientConfig) GetConnection() interfaces.ConnectionConfig {
	return c.Connection
}

func (c *ClientConfig) GetChannel() interfaces.ChannelConfig {
	return c.Channel
}

func (c *ClientConfig) GetRPC() interfaces.RPCConfig {
	return c.RPC
}

func (c *ClientConfig) GetTelemetry() interfaces.TelemetryConfig {
	return c.Telemetry
}

// Address returns host:port of the broker.
func (c *ClientConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Connection.Host, c.Connection.Port)
}

// Validate validates the configuration
func (c *ClientConfig) Validate() error {
	conn := c.Connection
	if conn.Host == "" {
		return amqperrors.NewConfigValidationError("connection", "host", "cannot be empty")
	}
	if conn.Port <= 0 || conn.Port > 65535 {
		return amqperrors.NewConfigValidationError("connection", "port", fmt.Sprintf("invalid port %d", conn.Port))
	}
	if conn.VirtualHost == "" {
		return amqperrors.NewConfigValidationError("connection", "vhost", "cannot be empty")
	}
	if conn.Heartbeat < 0 {
		return amqperrors.NewConfigValidationError("connection", "heartbeat", "cannot be negative")
	}
	if conn.Heartbeat%time.Second != 0 || conn.Heartbeat > 65535*time.Second {
		return amqperrors.NewConfigValidationError("connection", "heartbeat", fmt.Sprintf("must be whole seconds up to 65535s, got %v", conn.Heartbeat))
	}
	if conn.ConnectionTimeout <= 0 {
		return amqperrors.NewConfigValidationError("connection", "connection_timeout", fmt.Sprintf("must be positive: %v", conn.ConnectionTimeout))
	}
	if conn.FrameMax != 0 && conn.FrameMax < 4096 {
		return amqperrors.NewConfigValidationError("connection", "frame_max", fmt.Sprintf("must be 0 or at least 4096: %d", conn.FrameMax))
	}
	if conn.ReadBufferSize <= 0 || conn.WriteBufferSize <= 0 {
		return amqperrors.NewConfigValidationError("connection", "buffer_size", "read and write buffer sizes must be positive")
	}
	if conn.TLSEnabled && (conn.TLSCertFile == "") != (conn.TLSKeyFile == "") {
		return amqperrors.NewConfigValidationError("connection", "tls_cert_file", "client certificate and key must be set together")
	}

	for i, ex := range c.Channel.Exchanges {
		if ex.Name == "" {
			return amqperrors.NewConfigValidationError("channel", fmt.Sprintf("exchanges[%d].name", i), "cannot be empty")
		}
		switch ex.Type {
		case "direct", "fanout", "topic", "headers":
		default:
			if !strings.HasPrefix(ex.Type, "x-") {
				return amqperrors.NewConfigValidationError("channel", fmt.Sprintf("exchanges[%d].type", i), fmt.Sprintf("unknown exchange type %q", ex.Type))
			}
		}
	}

	if c.RPC.Timeout <= 0 {
		return amqperrors.NewConfigValidationError("rpc", "timeout", fmt.Sprintf("must be positive: %v", c.RPC.Timeout))
	}

	switch c.Telemetry.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return amqperrors.NewConfigValidationError("telemetry", "log_level", fmt.Sprintf("unknown level %q", c.Telemetry.LogLevel))
	}
	if c.Telemetry.MetricsEnabled && (c.Telemetry.MetricsPort <= 0 || c.Telemetry.MetricsPort > 65535) {
		return amqperrors.NewConfigValidationError("telemetry", "metrics_port", fmt.Sprintf("invalid port %d", c.Telemetry.MetricsPort))
	}

	return nil
}

// Load layers a YAML (or JSON) file and then BUNNY_* environment variables
// over the current values. An empty source skips the file layer.
func (c *ClientConfig) Load(source string) error {
	k := koanf.New(".")

	if source != "" {
		if err := k.Load(file.Provider(source), yaml.Parser()); err != nil {
			return amqperrors.NewConfigError("failed to read configuration file", "file", source, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return amqperrors.NewConfigError("failed to read environment", "env", EnvPrefix, err)
	}

	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return amqperrors.NewConfigError("failed to parse configuration", "file", source, err)
	}

	return c.Validate()
}

// LoadConfig returns the defaults overlaid with source and the environment.
func LoadConfig(source string) (*ClientConfig, error) {
	cfg := DefaultConfig()
	if err := cfg.Load(source); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file
func (c *ClientConfig) Save(destination string) error {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}

	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(destination, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
