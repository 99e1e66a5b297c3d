package broker

import (
	"reflect"
	"strings"

	"github.com/digitalnomadru/bunny/protocol"
)

// route returns the queues a message published to exchange with key and
// headers lands on. The default exchange routes by queue name.
func (b *Broker) route(exchange, key string, headers protocol.Table) []*queue {
	if exchange == "" {
		if q := b.queues[key]; q != nil {
			return []*queue{q}
		}
		return nil
	}
	kind := b.exchanges[exchange]
	var out []*queue
	for _, bd := range b.bindings {
		if bd.exchange != exchange || !bindingMatches(kind, bd, key, headers) {
			continue
		}
		if q := b.queues[bd.queue]; q != nil {
			out = append(out, q)
		}
	}
	return out
}

func bindingMatches(kind string, bd binding, key string, headers protocol.Table) bool {
	switch kind {
	case "fanout":
		return true
	case "topic":
		return topicMatches(bd.routingKey, key)
	case "headers":
		return headersMatch(bd.args, headers)
	default:
		return bd.routingKey == key
	}
}

// topicMatches checks if a routing key matches a topic pattern. "*"
// matches exactly one word and "#" matches zero or more.
func topicMatches(pattern, routingKey string) bool {
	return matchWords(splitTopic(pattern), splitTopic(routingKey))
}

func splitTopic(topic string) []string {
	if topic == "" {
		return nil
	}
	return strings.Split(topic, ".")
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		// Zero words, then one or more.
		if matchWords(pattern[1:], key) {
			return true
		}
		return len(key) > 0 && matchWords(pattern, key[1:])
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}

// headersMatch checks message headers against binding arguments.
// x-match=any needs one matching pair; anything else needs all of them.
// Arguments starting with "x-" take no part in matching.
func headersMatch(bindingArgs, msgHeaders protocol.Table) bool {
	matchAny := bindingArgs["x-match"] == "any"
	matched := 0
	for key, want := range bindingArgs {
		if strings.HasPrefix(key, "x-") {
			continue
		}
		got, ok := msgHeaders[key]
		if ok && reflect.DeepEqual(got, want) {
			if matchAny {
				return true
			}
			matched++
			continue
		}
		if !matchAny {
			return false
		}
	}
	return !matchAny || matched > 0
}
