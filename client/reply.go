package client

import (
	"context"

	"github.com/digitalnomadru/bunny/protocol"
)

// Reply is the pending result of a request sent on a channel. The state
// machine resolves it when the matching response frame arrives.
//
// Synchronous callers block in Wait, which pumps the connection until the
// reply resolves. Asynchronous callers attach continuations with Then and
// keep driving the connection with Run.
type Reply struct {
	client  *Client
	expect  []protocol.MethodKey
	done    bool
	method  protocol.Method
	message *Message
	err     error
	thens   []func(protocol.Method, error)
}

func newReply(c *Client, expect ...protocol.MethodKey) *Reply {
	return &Reply{client: c, expect: expect}
}

// resolvedReply returns a reply that is already complete, used for no-wait
// requests.
func resolvedReply(c *Client, m protocol.Method) *Reply {
	return &Reply{client: c, done: true, method: m}
}

func (r *Reply) matches(key protocol.MethodKey) bool {
	for _, k := range r.expect {
		if k == key {
			return true
		}
	}
	return false
}

// Done reports whether the reply has resolved or failed.
func (r *Reply) Done() bool {
	return r.done
}

// Result returns the response method and error. Both are nil until Done.
func (r *Reply) Result() (protocol.Method, error) {
	return r.method, r.err
}

// Message returns the fetched message of a get reply, nil when the queue
// was empty.
func (r *Reply) Message() *Message {
	return r.message
}

// Then runs fn when the reply completes, or immediately if it already has.
// Continuations run on the goroutine driving the connection.
func (r *Reply) Then(fn func(protocol.Method, error)) *Reply {
	if r.done {
		fn(r.method, r.err)
		return r
	}
	r.thens = append(r.thens, fn)
	return r
}

// Wait pumps the connection until the reply completes or ctx ends.
func (r *Reply) Wait(ctx context.Context) (protocol.Method, error) {
	if !r.done {
		if err := r.client.pump(ctx, r.Done); err != nil && !r.done {
			return nil, err
		}
	}
	return r.method, r.err
}

func (r *Reply) resolve(m protocol.Method) {
	r.complete(m, nil)
}

func (r *Reply) fail(err error) {
	r.complete(nil, err)
}

func (r *Reply) complete(m protocol.Method, err error) {
	if r.done {
		return
	}
	r.done = true
	r.method = m
	r.err = err
	thens := r.thens
	r.thens = nil
	for _, fn := range thens {
		fn(m, err)
	}
}
