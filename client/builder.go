package client

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/digitalnomadru/bunny/config"
	"github.com/digitalnomadru/bunny/interfaces"
	"github.com/digitalnomadru/bunny/metrics"
)

// Builder provides a fluent API for building clients
type Builder struct {
	config    *config.ClientConfig
	logger    *zap.Logger
	metrics   interfaces.MetricsCollector
	transport Transport
	dial      Dialer
	err       error
}

// NewBuilder creates a builder with the default configuration
func NewBuilder() *Builder {
	return &Builder{config: config.DefaultConfig()}
}

// NewBuilderWithConfig creates a builder with the given configuration
func NewBuilderWithConfig(cfg *config.ClientConfig) *Builder {
	return &Builder{config: cfg}
}

// WithConfig sets the client configuration
func (b *Builder) WithConfig(cfg *config.ClientConfig) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the logger. A nil logger discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithZapLogger creates a logger using zap with the specified level
func (b *Builder) WithZapLogger(level string) *Builder {
	logger, err := NewZapLogger(level, "")
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	b.logger = logger
	return b
}

// WithMetrics sets a custom metrics collector
func (b *Builder) WithMetrics(collector interfaces.MetricsCollector) *Builder {
	b.metrics = collector
	return b
}

// WithPrometheusMetrics registers a Prometheus collector on reg under the
// configured namespace.
func (b *Builder) WithPrometheusMetrics(reg prometheus.Registerer) *Builder {
	b.metrics = metrics.NewCollectorWith(reg, b.config.Telemetry.Namespace)
	return b
}

// WithTransport uses an already connected byte stream instead of dialing.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithDialer replaces the TCP/TLS dialer.
func (b *Builder) WithDialer(d Dialer) *Builder {
	b.dial = d
	return b
}

// Build validates the configuration and returns an unconnected client
func (b *Builder) Build() (*Client, error) {
	if b.config == nil {
		b.config = config.DefaultConfig()
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := b.metrics
	if collector == nil {
		collector = &interfaces.NoOpMetricsCollector{}
	}

	c := newClient(b.config, logger, collector)
	c.transport = b.transport
	c.dial = b.dial
	return c, nil
}

// Dial builds the client and performs the connection handshake.
func (b *Builder) Dial(ctx context.Context) (*Client, error) {
	c, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// NewZapLogger builds a development logger for "debug" and a production
// logger otherwise, writing to logFile when set.
func NewZapLogger(level, logFile string) (*zap.Logger, error) {
	var zapConfig zap.Config

	if level == "debug" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = parseZapLevel(level)
	}

	if logFile != "" {
		zapConfig.OutputPaths = []string{logFile}
	}

	return zapConfig.Build()
}
