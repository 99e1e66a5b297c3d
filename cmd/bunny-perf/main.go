// Command bunny-perf drives publish and consume load against a broker and
// reports throughput and end-to-end latency.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/config"
	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/protocol"
)

// sentAtHeader carries the publish time in nanoseconds. The timestamp
// property only has second resolution.
const sentAtHeader = "x-sent-at"

type options struct {
	configFile string
	host       string
	port       int
	producers  int
	consumers  int
	duration   time.Duration
	rate       int
	size       int
	batch      int
	persistent bool
	queue      string
	autoAck    bool
	prefetch   int
	logLevel   string
}

func main() {
	var o options
	flag.StringVar(&o.configFile, "config", "", "Configuration file path (YAML/JSON)")
	flag.StringVar(&o.host, "host", "", "Broker host (overrides config)")
	flag.IntVar(&o.port, "port", 0, "Broker port (overrides config)")
	flag.IntVar(&o.producers, "producers", 1, "Number of producers")
	flag.IntVar(&o.consumers, "consumers", 1, "Number of consumers")
	flag.DurationVar(&o.duration, "duration", 30*time.Second, "Test duration")
	flag.IntVar(&o.rate, "rate", 0, "Publishing rate limit (msg/s, 0 = unlimited)")
	flag.IntVar(&o.size, "size", 1024, "Message size in bytes")
	flag.IntVar(&o.batch, "batch", 100, "Publishes between waits for confirms")
	flag.BoolVar(&o.persistent, "persistent", false, "Use persistent messages")
	flag.StringVar(&o.queue, "queue", "perftest", "Queue name")
	flag.BoolVar(&o.autoAck, "auto-ack", false, "Auto-acknowledge messages")
	flag.IntVar(&o.prefetch, "prefetch", 1, "Consumer prefetch count")
	flag.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "bunny-perf: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return err
	}
	cb := config.FromConfig(cfg).WithQos(0, uint16(o.prefetch), false)
	if o.host != "" {
		cb.WithHost(o.host)
	}
	if o.port != 0 {
		cb.WithPort(o.port)
	}
	cfg, err = cb.Build()
	if err != nil {
		return err
	}
	logger, err := client.NewZapLogger(o.logLevel, cfg.Telemetry.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	factory := client.NewFactory(client.NewBuilderWithConfig(cfg).WithLogger(logger))
	st := newStats()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, o.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.consumers; i++ {
		g.Go(func() error { return consume(gctx, factory, o, st) })
	}
	for i := 0; i < o.producers; i++ {
		rate := 0
		if o.rate > 0 {
			rate = max(o.rate/o.producers, 1)
		}
		g.Go(func() error { return produce(gctx, factory, o, rate, st) })
	}
	g.Go(func() error {
		report(gctx, st)
		return nil
	})

	err = g.Wait()
	st.print(os.Stdout)
	if err != nil && !finished(err) {
		return err
	}
	return nil
}

// finished reports whether err only says the run is over.
func finished(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func declare(ctx context.Context, ch *client.Channel, queue string) error {
	_, err := ch.QueueDeclare(ctx, queue, client.Durable, nil)
	return err
}

func disconnect(c *client.Client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Disconnect(ctx, amqperrors.ReplySuccess, "perf test done"); err != nil {
		logger.Debug("Disconnect failed", zap.Error(err))
	}
}

func produce(ctx context.Context, f *client.Factory, o options, rate int, st *stats) error {
	ch, err := f.Channel(ctx)
	if err != nil {
		return fmt.Errorf("producer connect: %w", err)
	}
	c := ch.Client()
	defer disconnect(c, c.Logger())

	if err := declare(ctx, ch, o.queue); err != nil {
		return fmt.Errorf("producer declare: %w", err)
	}
	// Callbacks run on this goroutine, so settled needs no locking.
	var settled uint64
	confirms := client.NewAckListener(func(m protocol.Method) {
		var tag uint64
		var multiple bool
		counter := &st.confirmed
		switch m := m.(type) {
		case *protocol.BasicAckMethod:
			tag, multiple = m.DeliveryTag, m.Multiple
		case *protocol.BasicNackMethod:
			tag, multiple = m.DeliveryTag, m.Multiple
			counter = &st.nacked
		default:
			return
		}
		n := uint64(1)
		if multiple && tag > settled {
			n = tag - settled
		}
		counter.Add(int64(n))
		settled = max(settled, tag)
	})
	if err := ch.ConfirmSelect(ctx, confirms, false); err != nil {
		return fmt.Errorf("producer confirm.select: %w", err)
	}

	body := make([]byte, o.size)
	for i := range body {
		body[i] = byte(i % 256)
	}

	var limiter <-chan time.Time
	if rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		limiter = ticker.C
	}

	inBatch := 0
	for {
		if limiter != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-limiter:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		headers := protocol.Table{
			protocol.HeaderContentType: "application/octet-stream",
			sentAtHeader:               time.Now().UnixNano(),
		}
		if o.persistent {
			headers[protocol.HeaderDeliveryMode] = uint8(2)
		}
		_, err := ch.Publish(body, headers, "", o.queue, false, false)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		st.published.Add(1)
		inBatch++

		if inBatch >= o.batch {
			inBatch = 0
			if _, err := ch.WaitForConfirms(ctx); err != nil {
				if finished(err) {
					return nil
				}
				return fmt.Errorf("wait for confirms: %w", err)
			}
		}
	}
}

func consume(ctx context.Context, f *client.Factory, o options, st *stats) error {
	ch, err := f.Channel(ctx)
	if err != nil {
		return fmt.Errorf("consumer connect: %w", err)
	}
	c := ch.Client()
	defer disconnect(c, c.Logger())

	if err := declare(ctx, ch, o.queue); err != nil {
		return fmt.Errorf("consumer declare: %w", err)
	}

	var flags client.Flag
	if o.autoAck {
		flags |= client.NoAck
	}
	_, err = ch.Consume(ctx, func(msg *client.Message, ch *client.Channel, c *client.Client) {
		if sent, ok := msg.Header(sentAtHeader).(int64); ok {
			st.recordLatency(time.Since(time.Unix(0, sent)))
		}
		st.consumed.Add(1)
		if !o.autoAck {
			if err := ch.Ack(msg, false); err != nil {
				c.Logger().Warn("Ack failed", zap.Error(err))
			}
		}
	}, o.queue, "", flags, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	if err := c.Run(ctx, 0); err != nil && !finished(err) {
		return err
	}
	return nil
}

// report prints per-second rates until ctx ends.
func report(ctx context.Context, s *stats) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var lastPub, lastCon int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pub, con := s.published.Load(), s.consumed.Load()
			fmt.Printf("published: %d msg/s, consumed: %d msg/s, confirmed: %d\n",
				pub-lastPub, con-lastCon, s.confirmed.Load())
			lastPub, lastCon = pub, con
		}
	}
}
