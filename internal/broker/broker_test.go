package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitalnomadru/bunny/protocol"
)

func newRouter(kinds map[string]string, bindings ...binding) *Broker {
	b := &Broker{queues: make(map[string]*queue), exchanges: kinds, bindings: bindings}
	for _, bd := range bindings {
		b.queues[bd.queue] = &queue{name: bd.queue}
	}
	return b
}

func queueNames(qs []*queue) []string {
	var names []string
	for _, q := range qs {
		names = append(names, q.name)
	}
	return names
}

func TestDirectExchangeRouting(t *testing.T) {
	b := newRouter(map[string]string{"test-exchange": "direct"},
		binding{exchange: "test-exchange", routingKey: "test-key", queue: "test-queue"})

	assert.Equal(t, []string{"test-queue"}, queueNames(b.route("test-exchange", "test-key", nil)))
	assert.Empty(t, b.route("test-exchange", "other-key", nil))
}

func TestDefaultExchangeRoutesByQueueName(t *testing.T) {
	b := newRouter(map[string]string{})
	b.queues["jobs"] = &queue{name: "jobs"}

	assert.Equal(t, []string{"jobs"}, queueNames(b.route("", "jobs", nil)))
	assert.Empty(t, b.route("", "missing", nil))
}

func TestFanoutExchangeRouting(t *testing.T) {
	b := newRouter(map[string]string{"test-exchange": "fanout"},
		binding{exchange: "test-exchange", queue: "test-queue-1"},
		binding{exchange: "test-exchange", queue: "test-queue-2"})

	got := queueNames(b.route("test-exchange", "any-key", nil))
	assert.ElementsMatch(t, []string{"test-queue-1", "test-queue-2"}, got)
}

func TestTopicExchangeRouting(t *testing.T) {
	b := newRouter(map[string]string{"test-exchange": "topic"},
		binding{exchange: "test-exchange", routingKey: "stock.#", queue: "all-stock"},
		binding{exchange: "test-exchange", routingKey: "stock.*", queue: "one-level"})

	assert.Equal(t, []string{"all-stock"}, queueNames(b.route("test-exchange", "stock.usd.nyse", nil)))
	assert.ElementsMatch(t, []string{"all-stock", "one-level"}, queueNames(b.route("test-exchange", "stock.usd", nil)))
	assert.Empty(t, b.route("test-exchange", "news.usd.nyse", nil))
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"stock.#", "stock", true},
		{"stock.#", "stock.usd.nyse", true},
		{"#", "", true},
		{"#", "a.b.c", true},
		{"*.usd.*", "stock.usd.nyse", true},
		{"*.usd.*", "stock.usd", false},
		{"stock.*", "stock", false},
		{"#.nyse", "stock.usd.nyse", true},
		{"a.#.z", "a.z", true},
		{"a.#.z", "a.b.c.z", true},
		{"a.#.z", "a.b.c", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, topicMatches(tt.pattern, tt.key), "%q vs %q", tt.pattern, tt.key)
	}
}

func TestHeadersMatch(t *testing.T) {
	headers := protocol.Table{"format": "pdf", "type": "report"}

	assert.True(t, headersMatch(protocol.Table{"format": "pdf", "type": "report"}, headers))
	assert.True(t, headersMatch(protocol.Table{"x-match": "all", "format": "pdf"}, headers))
	assert.False(t, headersMatch(protocol.Table{"format": "pdf", "type": "log"}, headers))
	assert.True(t, headersMatch(protocol.Table{"x-match": "any", "format": "zip", "type": "report"}, headers))
	assert.False(t, headersMatch(protocol.Table{"x-match": "any", "format": "zip"}, headers))
	assert.False(t, headersMatch(protocol.Table{"x-match": "any"}, headers))
}

func TestHeadersExchangeRouting(t *testing.T) {
	b := newRouter(map[string]string{"amq.match": "headers"},
		binding{exchange: "amq.match", queue: "pdfs", args: protocol.Table{"format": "pdf"}})

	assert.Equal(t, []string{"pdfs"}, queueNames(b.route("amq.match", "", protocol.Table{"format": "pdf"})))
	assert.Empty(t, b.route("amq.match", "", protocol.Table{"format": "zip"}))
}
