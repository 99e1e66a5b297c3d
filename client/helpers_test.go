package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/digitalnomadru/bunny/config"
	"github.com/digitalnomadru/bunny/internal/broker"
)

// newTestClient connects a client to a fresh in-memory broker.
func newTestClient(t testing.TB, frameMax uint32, tweak func(*config.ConfigBuilder)) (*Client, *broker.Broker) {
	b, conn := broker.New(t, frameMax)
	cb := config.NewConfigBuilder().
		WithHeartbeat(0).
		WithConnectionTimeout(5 * time.Second)
	if tweak != nil {
		tweak(cb)
	}
	cfg, err := cb.Build()
	require.NoError(t, err)

	c, err := NewBuilderWithConfig(cfg).
		WithLogger(zaptest.NewLogger(t)).
		WithTransport(conn).
		Dial(testContext(t))
	require.NoError(t, err)
	return c, b
}

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
