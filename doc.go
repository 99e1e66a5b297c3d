// Package bunny is an AMQP 0-9-1 client built around a single-threaded
// channel protocol engine.
//
// The client package holds the connection, the per-channel frame state
// machine and every channel operation. The protocol package is the wire
// codec, errors holds the typed error taxonomy, config loads settings and
// metrics exports Prometheus counters. The rpc package layers
// request/reply on top of a channel and codec provides payload encodings.
package bunny
