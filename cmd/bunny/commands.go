package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/codec"
	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/protocol"
	"github.com/digitalnomadru/bunny/rpc"
)

// headerFlags collects repeated -header key=value flags.
type headerFlags protocol.Table

func (h headerFlags) String() string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (h headerFlags) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("header %q is not key=value", v)
	}
	h[key] = value
	return nil
}

// session opens a prepared channel and disconnects once fn returns.
func session(ctx context.Context, f *client.Factory, fn func(*client.Channel) error) error {
	ch, err := f.Channel(ctx)
	if err != nil {
		return err
	}
	c := ch.Client()
	err = fn(ch)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.Connected() {
		if cerr := c.Disconnect(closeCtx, amqperrors.ReplySuccess, "bye"); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(os.Stderr)
	return fs.Parse(args)
}

func runConfig(g globals, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	out := fs.String("o", "", "Write to this file instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if *out != "" {
		if err := cfg.Save(*out); err != nil {
			return err
		}
		fmt.Printf("Wrote configuration: %s\n", *out)
		return nil
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func runPublish(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	exchange := fs.String("exchange", "", "Exchange to publish to")
	key := fs.String("key", "", "Routing key")
	body := fs.String("body", "", "Message body; read from stdin when empty")
	mandatory := fs.Bool("mandatory", false, "Ask the broker to return unroutable messages")
	confirm := fs.Bool("confirm", false, "Wait for a publisher confirm")
	headers := headerFlags{}
	fs.Var(headers, "header", "Header key=value (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	payload := []byte(*body)
	if *body == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		payload = data
	}

	return session(ctx, f, func(ch *client.Channel) error {
		returned := false
		ch.AddReturnListener(client.NewReturnListener(func(msg *client.Message, ret *protocol.BasicReturnMethod) {
			returned = true
			fmt.Fprintf(os.Stderr, "returned: %d %s\n", ret.ReplyCode, ret.ReplyText)
		}))
		if *confirm {
			if err := ch.ConfirmSelect(ctx, nil, false); err != nil {
				return err
			}
		}
		seq, err := ch.Publish(payload, protocol.Table(headers), *exchange, *key, *mandatory, false)
		if err != nil {
			return err
		}
		if *confirm {
			ok, err := ch.WaitForConfirms(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("message %d was nacked", seq)
			}
		} else if *mandatory {
			// Give a return a chance to arrive.
			if err := ch.Client().Run(ctx, 500*time.Millisecond); err != nil {
				return err
			}
		}
		if returned {
			return errors.New("message was returned")
		}
		fmt.Printf("Published %d bytes\n", len(payload))
		return nil
	})
}

func runConsume(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("consume", flag.ContinueOnError)
	queue := fs.String("queue", "", "Queue to consume from")
	count := fs.Int("count", 0, "Stop after this many messages (0 = run until interrupted)")
	noAck := fs.Bool("no-ack", false, "Consume without acknowledgements")
	timeout := fs.Duration("timeout", 0, "Stop after this long (0 = no limit)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *queue == "" {
		return errors.New("consume: -queue is required")
	}

	return session(ctx, f, func(ch *client.Channel) error {
		var flags client.Flag
		if *noAck {
			flags |= client.NoAck
		}
		_, err := ch.Consume(ctx, func(msg *client.Message, ch *client.Channel, _ *client.Client) {
			printMessage(os.Stdout, msg)
			if !*noAck {
				if err := ch.Ack(msg, false); err != nil {
					fmt.Fprintf(os.Stderr, "ack: %v\n", err)
				}
			}
		}, *queue, "", flags, nil)
		if err != nil {
			return err
		}
		_, err = ch.Client().RunN(ctx, *timeout, *count)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

func runGet(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	queue := fs.String("queue", "", "Queue to fetch from")
	noAck := fs.Bool("no-ack", false, "Fetch without acknowledgement")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return session(ctx, f, func(ch *client.Channel) error {
		msg, err := ch.Get(ctx, *queue, *noAck)
		if err != nil {
			return err
		}
		if msg == nil {
			fmt.Println("Queue is empty")
			return nil
		}
		printMessage(os.Stdout, msg)
		if *noAck {
			return nil
		}
		return ch.Ack(msg, false)
	})
}

func runDeclare(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("declare", flag.ContinueOnError)
	queue := fs.String("queue", "", "Queue to declare")
	exchange := fs.String("exchange", "", "Exchange to declare")
	kind := fs.String("type", "direct", "Exchange type")
	bind := fs.String("bind", "", "Bind the queue to this exchange")
	key := fs.String("key", "", "Binding key")
	flagNames := fs.String("flags", "", "Comma separated flags, e.g. durable,auto_delete")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *queue == "" && *exchange == "" {
		return errors.New("declare: -queue or -exchange is required")
	}
	var names []string
	if *flagNames != "" {
		names = strings.Split(*flagNames, ",")
	}
	flags, ok := client.ParseFlags(names)
	if !ok {
		return fmt.Errorf("declare: unknown flag in %q", *flagNames)
	}

	return session(ctx, f, func(ch *client.Channel) error {
		if *exchange != "" {
			if err := ch.ExchangeDeclare(ctx, *exchange, *kind, flags, nil); err != nil {
				return err
			}
			fmt.Printf("Exchange %s (%s) declared\n", *exchange, *kind)
		}
		if *queue != "" {
			ok, err := ch.QueueDeclare(ctx, *queue, flags, nil)
			if err != nil {
				return err
			}
			fmt.Printf("Queue %s declared: %d messages, %d consumers\n", ok.Queue, ok.MessageCount, ok.ConsumerCount)
			if *bind != "" {
				if err := ch.QueueBind(ctx, ok.Queue, *bind, *key, 0, nil); err != nil {
					return err
				}
				fmt.Printf("Queue %s bound to %s with key %q\n", ok.Queue, *bind, *key)
			}
		}
		return nil
	})
}

func runCall(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	exchange := fs.String("exchange", "", "Exchange to send the request to")
	key := fs.String("key", "", "Routing key, usually the server's queue")
	body := fs.String("body", "", "Request body")
	codecName := fs.String("codec", "json", "Content type to label the request with: "+strings.Join(codec.Names(), ", "))
	timeout := fs.Duration("timeout", 0, "Call timeout (0 = rpc.timeout from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cd, err := codec.ByName(*codecName)
	if err != nil {
		return err
	}

	return session(ctx, f, func(ch *client.Channel) error {
		opts := []rpc.Option{rpc.WithCodec(cd)}
		if *timeout > 0 {
			opts = append(opts, rpc.WithTimeout(*timeout))
		}
		caller := rpc.NewCaller(ch, opts...)
		defer func() { _ = caller.Close(ctx) }()

		reply, err := caller.Call(ctx, *exchange, *key, []byte(*body),
			protocol.Table{protocol.HeaderContentType: cd.ContentType()})
		if err != nil {
			return err
		}
		printMessage(os.Stdout, reply)
		return nil
	})
}

func runServe(ctx context.Context, f *client.Factory, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	queue := fs.String("queue", "", "Queue to answer requests on; declared if missing")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *queue == "" {
		return errors.New("serve: -queue is required")
	}

	return session(ctx, f, func(ch *client.Channel) error {
		if _, err := ch.QueueDeclare(ctx, *queue, 0, nil); err != nil {
			return err
		}
		srv := rpc.NewServer(ch, *queue, func(_ context.Context, req *client.Message) ([]byte, protocol.Table, error) {
			return req.Content(), protocol.Table{protocol.HeaderContentType: req.ContentType()}, nil
		})
		err := srv.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

func printMessage(w io.Writer, msg *client.Message) {
	fmt.Fprintf(w, "exchange=%q routing_key=%q delivery_tag=%d redelivered=%t\n",
		msg.Exchange(), msg.RoutingKey(), msg.DeliveryTag(), msg.Redelivered())
	headers := msg.Headers()
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, headers[k])
	}
	fmt.Fprintf(w, "%s\n", msg.Content())
}
