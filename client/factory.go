package client

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	amqperrors "github.com/digitalnomadru/bunny/errors"
	"github.com/digitalnomadru/bunny/protocol"
)

// Factory produces ready channels from configuration: connected, with qos
// applied and the configured exchanges declared.
type Factory struct {
	builder *Builder
}

// NewFactory wraps b. Configuration, logger and metrics come from b.
func NewFactory(b *Builder) *Factory {
	return &Factory{builder: b}
}

// Connect builds and connects a new client.
func (f *Factory) Connect(ctx context.Context) (*Client, error) {
	return f.builder.Dial(ctx)
}

// Channel connects a new client and returns a prepared channel on it.
func (f *Factory) Channel(ctx context.Context) (*Channel, error) {
	c, err := f.Connect(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := f.Prepare(ctx, c)
	if err != nil {
		c.Abort()
		return nil, err
	}
	return ch, nil
}

// Prepare opens a channel on an existing client and applies the channel
// configuration to it.
func (f *Factory) Prepare(ctx context.Context, c *Client) (*Channel, error) {
	ch, err := c.Channel(ctx)
	if err != nil {
		return nil, err
	}

	cfg := c.Config().Channel
	if err := ch.Qos(ctx, cfg.PrefetchSize, cfg.PrefetchCount, cfg.PrefetchGlobal); err != nil {
		return nil, fmt.Errorf("apply qos: %w", err)
	}

	for i, ex := range cfg.Exchanges {
		flags, ok := ParseFlags(ex.Flags)
		if !ok {
			return nil, amqperrors.NewConfigValidationError("channel", fmt.Sprintf("exchanges[%d].flags", i),
				fmt.Sprintf("unknown flag in [%s]", strings.Join(ex.Flags, ", ")))
		}
		if err := ch.ExchangeDeclare(ctx, ex.Name, ex.Type, flags, protocol.Table(ex.Arguments)); err != nil {
			return nil, fmt.Errorf("declare exchange %q: %w", ex.Name, err)
		}
		ch.logger.Debug("Exchange declared",
			zap.String("exchange", ex.Name),
			zap.String("type", ex.Type),
			zap.Stringer("flags", flags))
	}
	return ch, nil
}
