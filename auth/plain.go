package auth

import (
	"fmt"

	"github.com/digitalnomadru/bunny/protocol"
)

// PlainMechanism implements SASL PLAIN authentication
type PlainMechanism struct{}

// Name returns the mechanism name
func (p *PlainMechanism) Name() string {
	return "PLAIN"
}

// Response returns [authorization-identity] NUL username NUL password with
// an empty authorization identity
func (p *PlainMechanism) Response(username, password string) ([]byte, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	return []byte("\x00" + username + "\x00" + password), nil
}

// AMQPlainMechanism implements the RabbitMQ AMQPLAIN mechanism: a field
// table with LOGIN and PASSWORD, sent without its length prefix
type AMQPlainMechanism struct{}

// Name returns the mechanism name
func (a *AMQPlainMechanism) Name() string {
	return "AMQPLAIN"
}

// Response encodes the credentials as field-table entries
func (a *AMQPlainMechanism) Response(username, password string) ([]byte, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	table, err := protocol.EncodeFieldTable(protocol.Table{"LOGIN": username, "PASSWORD": password})
	if err != nil {
		return nil, fmt.Errorf("encode AMQPLAIN response: %w", err)
	}
	return table[4:], nil
}
