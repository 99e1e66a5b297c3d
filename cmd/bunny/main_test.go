package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalnomadru/bunny/client"
	"github.com/digitalnomadru/bunny/protocol"
)

func TestHeaderFlags(t *testing.T) {
	h := headerFlags{}
	require.NoError(t, h.Set("x-trace=abc"))
	require.NoError(t, h.Set("content-type=text/plain"))
	assert.Error(t, h.Set("novalue"))
	assert.Error(t, h.Set("=value"))

	assert.Equal(t, "abc", h["x-trace"])
	assert.Equal(t, "content-type,x-trace", h.String())
}

func TestLoadConfigLayersFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bunny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  host: broker.internal
  port: 5673
  username: svc
  password: from-file
rpc:
  timeout: 3s
`), 0600))

	cfg, err := loadConfig(globals{
		configFile: path,
		password:   "from-flag",
		logLevel:   "debug",
		metrics:    true,
		metricsAt:  9500,
	})
	require.NoError(t, err)
	assert.Equal(t, "broker.internal", cfg.Connection.Host)
	assert.Equal(t, 5673, cfg.Connection.Port)
	assert.Equal(t, "svc", cfg.Connection.Username)
	assert.Equal(t, "from-flag", cfg.Connection.Password)
	assert.Equal(t, 3*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
	assert.True(t, cfg.Telemetry.MetricsEnabled)
	assert.Equal(t, 9500, cfg.Telemetry.MetricsPort)
}

func TestLoadConfigRejectsInvalidLevel(t *testing.T) {
	_, err := loadConfig(globals{logLevel: "loud"})
	assert.Error(t, err)
}

func TestPrintMessage(t *testing.T) {
	msg := client.NewMessage([]byte("hello"), protocol.Table{"b": "2", "a": "1"}, "ex", "rk")
	var buf bytes.Buffer
	printMessage(&buf, msg)
	assert.Equal(t, "exchange=\"ex\" routing_key=\"rk\" delivery_tag=0 redelivered=false\n  a: 1\n  b: 2\nhello\n", buf.String())
}

func TestPrintVersionMatchesClient(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	assert.Equal(t, "bunny version "+client.Version+"\n", out.String())
}
