// Package auth provides the SASL mechanisms a client can answer
// connection.start with.
package auth

import (
	"fmt"
	"strings"
)

// Mechanism produces the connection.start-ok response for one SASL
// mechanism.
type Mechanism interface {
	// Name returns the mechanism name (e.g., "PLAIN", "AMQPLAIN")
	Name() string

	// Response encodes the credentials for the broker
	Response(username, password string) ([]byte, error)
}

// Registry manages available authentication mechanisms in preference order
type Registry struct {
	mechanisms []Mechanism
}

// NewRegistry creates a new mechanism registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a mechanism. Earlier registrations are preferred; a name
// registered twice keeps its first position with the new implementation.
func (r *Registry) Register(mechanism Mechanism) {
	for i, m := range r.mechanisms {
		if m.Name() == mechanism.Name() {
			r.mechanisms[i] = mechanism
			return
		}
	}
	r.mechanisms = append(r.mechanisms, mechanism)
}

// Get retrieves a mechanism by name
func (r *Registry) Get(name string) (Mechanism, error) {
	for _, m := range r.mechanisms {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unsupported authentication mechanism: %s", name)
}

// List returns all registered mechanism names in preference order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.mechanisms))
	for _, m := range r.mechanisms {
		names = append(names, m.Name())
	}
	return names
}

// String returns a space-separated list of mechanism names for AMQP
func (r *Registry) String() string {
	return strings.Join(r.List(), " ")
}

// Select picks the mechanism to use against a broker offering the
// space-separated list offered. A non-empty preferred name must be offered
// and registered; otherwise the first registered mechanism the broker
// offers wins.
func (r *Registry) Select(offered, preferred string) (Mechanism, error) {
	available := make(map[string]bool)
	for _, name := range strings.Fields(offered) {
		available[strings.ToUpper(name)] = true
	}

	if preferred != "" {
		m, err := r.Get(preferred)
		if err != nil {
			return nil, err
		}
		if !available[strings.ToUpper(m.Name())] {
			return nil, fmt.Errorf("mechanism %s not offered by server (offered %q)", m.Name(), offered)
		}
		return m, nil
	}

	for _, m := range r.mechanisms {
		if available[strings.ToUpper(m.Name())] {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no supported mechanism offered by server (offered %q, supported %q)", offered, r.String())
}

// DefaultRegistry returns a registry preferring PLAIN, then AMQPLAIN,
// EXTERNAL and ANONYMOUS
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(&PlainMechanism{})
	registry.Register(&AMQPlainMechanism{})
	registry.Register(&ExternalMechanism{})
	registry.Register(&AnonymousMechanism{})
	return registry
}
