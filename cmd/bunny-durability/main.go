// Command bunny-durability publishes persistent messages with publisher
// confirms and later checks that they survived a broker restart.
//
//	bunny-durability publish -count 1000 -queue crash_test_queue
//	# restart or kill the broker
//	bunny-durability verify -count 1000 -queue crash_test_queue
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

	"go.uber.org/zap"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/config"
	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/protocol"
)

const usage = `Usage: bunny-durability [publish|verify] [options]

Publish messages:
  bunny-durability publish -count 1000 -queue test_queue

Verify recovery:
  bunny-durability verify -count 1000 -queue test_queue
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	configFile := fs.String("config", "", "Configuration file path (YAML/JSON)")
	count := fs.Int("count", 1000, "number of messages to publish or expect")
	queue := fs.String("queue", "crash_test_queue", "queue name")
	batch := fs.Int("batch", 500, "publishes between waits for confirms")
	sample := fs.Int("sample", 100, "messages to fetch and check during verify")
	_ = fs.Parse(os.Args[2:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var run func(context.Context, *client.Channel) error
	switch os.Args[1] {
	case "publish":
		run = func(ctx context.Context, ch *client.Channel) error {
			return publishDurable(ctx, ch, os.Stdout, *queue, *count, *batch)
		}
	case "verify":
		run = func(ctx context.Context, ch *client.Channel) error {
			return verifyRecovery(ctx, ch, os.Stdout, *queue, *count, *sample)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err := withChannel(ctx, *configFile, run); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func withChannel(ctx context.Context, configFile string, fn func(context.Context, *client.Channel) error) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := client.NewZapLogger(cfg.Telemetry.LogLevel, cfg.Telemetry.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.NewBuilderWithConfig(cfg).WithLogger(logger).Dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Disconnect(closeCtx, amqperrors.ReplySuccess, "done"); err != nil {
			logger.Debug("Disconnect failed", zap.Error(err))
		}
	}()

	ch, err := c.Channel(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, ch)
}

func messageBody(i int) []byte {
	return []byte(fmt.Sprintf("crash test message %d", i))
}

// publishDurable publishes count persistent messages to a durable queue
// and returns once the broker has confirmed every one of them.
func publishDurable(ctx context.Context, ch *client.Channel, out io.Writer, queue string, count, batch int) error {
	if _, err := ch.QueueDeclare(ctx, queue, client.Durable, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.ConfirmSelect(ctx, nil, false); err != nil {
		return fmt.Errorf("enable confirms: %w", err)
	}

	headers := protocol.Table{
		protocol.HeaderContentType:  "text/plain",
		protocol.HeaderDeliveryMode: uint8(2),
	}
	start := time.Now()
	for i := 1; i <= count; i++ {
		if _, err := ch.Publish(messageBody(i), headers, "", queue, false, false); err != nil {
			return fmt.Errorf("publish message %d: %w", i, err)
		}
		if i%batch == 0 || i == count {
			ok, err := ch.WaitForConfirms(ctx)
			if err != nil {
				return fmt.Errorf("wait for confirms: %w", err)
			}
			if !ok {
				return fmt.Errorf("broker nacked messages up to %d", i)
			}
			rate := float64(i) / time.Since(start).Seconds()
			fmt.Fprintf(out, "\rConfirmed %d/%d messages (%.0f msg/s)...", i, count, rate)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Published and confirmed %d durable messages in %v\n", count, time.Since(start))
	return nil
}

// verifyRecovery checks the queue still holds at least expected messages
// and that the first sample of them arrive in publish order.
func verifyRecovery(ctx context.Context, ch *client.Channel, out io.Writer, queue string, expected, sample int) error {
	ok, err := ch.QueueDeclare(ctx, queue, client.Passive, nil)
	if err != nil {
		return fmt.Errorf("queue %s: %w", queue, err)
	}
	if int(ok.MessageCount) < expected {
		return fmt.Errorf("queue %s holds %d messages, expected %d", queue, ok.MessageCount, expected)
	}
	fmt.Fprintf(out, "Queue %s holds %d messages\n", queue, ok.MessageCount)

	sample = min(sample, expected)
	start := time.Now()
	for i := 1; i <= sample; i++ {
		msg, err := ch.Get(ctx, queue, false)
		if err != nil {
			return fmt.Errorf("get message %d: %w", i, err)
		}
		if msg == nil {
			return fmt.Errorf("queue drained after %d messages", i-1)
		}
		if want := string(messageBody(i)); string(msg.Content()) != want {
			return fmt.Errorf("message %d: got %q, want %q", i, msg.Content(), want)
		}
		if err := ch.Ack(msg, false); err != nil {
			return fmt.Errorf("ack message %d: %w", i, err)
		}
	}
	fmt.Fprintf(out, "Verified %d sample messages in %v\n", sample, time.Since(start))
	return nil
}
