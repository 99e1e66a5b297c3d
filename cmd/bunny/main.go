package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/config"
	"github.com/digitalnomadru/bunny/metrics"
)

const usage = `bunny - AMQP 0-9-1 client

Usage:
  bunny [global flags] <command> [command flags]

Commands:
  publish   publish one message
  consume   consume messages from a queue and print them
  get       fetch a single message from a queue
  declare   declare a queue or an exchange
  call      send an RPC request and print the reply
  serve     answer RPC requests on a queue by echoing them
  config    print the effective configuration as YAML
  version   print the version

Global flags:
`

// globals holds flags shared by every command.
type globals struct {
	configFile string
	host       string
	port       int
	vhost      string
	username   string
	password   string
	logLevel   string
	metrics    bool
	metricsAt  int
}

func main() {
	var g globals
	fs := flag.NewFlagSet("bunny", flag.ExitOnError)
	fs.StringVar(&g.configFile, "config", "", "Configuration file path (YAML/JSON)")
	fs.StringVar(&g.host, "host", "", "Broker host (overrides config)")
	fs.IntVar(&g.port, "port", 0, "Broker port (overrides config)")
	fs.StringVar(&g.vhost, "vhost", "", "Virtual host (overrides config)")
	fs.StringVar(&g.username, "user", "", "Username (overrides config)")
	fs.StringVar(&g.password, "password", "", "Password (overrides config)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&g.metrics, "enable-metrics", false, "Serve Prometheus metrics while the command runs")
	fs.IntVar(&g.metricsAt, "metrics-port", 0, "Metrics HTTP port")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, g, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bunny: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, g globals, command string, args []string) error {
	switch command {
	case "version":
		printVersion(os.Stdout)
		return nil
	case "config":
		return runConfig(g, args)
	case "publish":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runPublish(ctx, f, args) })
	case "consume":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runConsume(ctx, f, args) })
	case "get":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runGet(ctx, f, args) })
	case "declare":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runDeclare(ctx, f, args) })
	case "call":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runCall(ctx, f, args) })
	case "serve":
		return withClient(ctx, g, func(ctx context.Context, f *client.Factory) error { return runServe(ctx, f, args) })
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// loadConfig layers the config file, BUNNY_* variables and flags.
func loadConfig(g globals) (*config.ClientConfig, error) {
	cfg, err := config.LoadConfig(g.configFile)
	if err != nil {
		return nil, err
	}
	b := config.FromConfig(cfg)
	if g.host != "" {
		b.WithHost(g.host)
	}
	if g.port != 0 {
		b.WithPort(g.port)
	}
	if g.vhost != "" {
		b.WithVirtualHost(g.vhost)
	}
	if g.username != "" || g.password != "" {
		user, pass := cfg.Connection.Username, cfg.Connection.Password
		if g.username != "" {
			user = g.username
		}
		if g.password != "" {
			pass = g.password
		}
		b.WithCredentials(user, pass)
	}
	if g.logLevel != "" {
		b.WithLogging(g.logLevel, cfg.Telemetry.LogFile)
	}
	if g.metrics {
		port := g.metricsAt
		if port == 0 {
			port = cfg.Telemetry.MetricsPort
		}
		b.WithMetrics(true, port)
	}
	return b.Build()
}

// withClient runs fn with a connection factory. When metrics are enabled
// the exporter runs alongside and stops once fn returns.
func withClient(ctx context.Context, g globals, fn func(context.Context, *client.Factory) error) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, err := client.NewZapLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	builder := client.NewBuilderWithConfig(cfg).WithLogger(logger)
	if !cfg.Telemetry.MetricsEnabled {
		return fn(ctx, client.NewFactory(builder))
	}

	reg := prometheus.NewRegistry()
	builder.WithPrometheusMetrics(reg)
	exporter := metrics.NewServerFor(reg, cfg.Telemetry.MetricsPort)
	logger.Info("Metrics exporter listening",
		zap.String("metrics", fmt.Sprintf("http://localhost:%d/metrics", exporter.Port())),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", exporter.Port())))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(exporter.Start)
	group.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := exporter.Stop(shutdownCtx); err != nil {
				logger.Warn("Metrics exporter shutdown failed", zap.Error(err))
			}
		}()
		return fn(gctx, client.NewFactory(builder))
	})
	return group.Wait()
}

// printVersion reports the client version sent to brokers.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "bunny version %s\n", client.Version)
}
