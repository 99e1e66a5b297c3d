package auth

import (
	"bytes"
	"testing"

	"github.com/digitalnomadru/bunny/protocol"
)

func TestPlainMechanism(t *testing.T) {
	plain := &PlainMechanism{}

	if plain.Name() != "PLAIN" {
		t.Errorf("Expected mechanism name 'PLAIN', got '%s'", plain.Name())
	}

	response, err := plain.Response("testuser", "testpass")
	if err != nil {
		t.Fatalf("Expected a response, got error: %v", err)
	}
	want := []byte{0, 't', 'e', 's', 't', 'u', 's', 'e', 'r', 0, 't', 'e', 's', 't', 'p', 'a', 's', 's'}
	if !bytes.Equal(response, want) {
		t.Errorf("Expected %q, got %q", want, response)
	}

	// Empty passwords are the broker's call
	if _, err := plain.Response("user", ""); err != nil {
		t.Errorf("Expected empty password to be encoded, got error: %v", err)
	}

	if _, err := plain.Response("", "pass"); err == nil {
		t.Error("Expected empty username to be rejected")
	}
}

func TestAMQPlainMechanism(t *testing.T) {
	amqplain := &AMQPlainMechanism{}

	if amqplain.Name() != "AMQPLAIN" {
		t.Errorf("Expected mechanism name 'AMQPLAIN', got '%s'", amqplain.Name())
	}

	response, err := amqplain.Response("guest", "secret")
	if err != nil {
		t.Fatalf("Expected a response, got error: %v", err)
	}

	// The response is a field table body; restore the length prefix to decode it
	framed := append([]byte{0, 0, 0, byte(len(response))}, response...)
	table, err := protocol.DecodeFieldTable(framed)
	if err != nil {
		t.Fatalf("Expected a decodable table, got error: %v", err)
	}
	if table["LOGIN"] != "guest" || table["PASSWORD"] != "secret" {
		t.Errorf("Unexpected AMQPLAIN table: %v", table)
	}

	if _, err := amqplain.Response("", "secret"); err == nil {
		t.Error("Expected empty username to be rejected")
	}
}

func TestCredentiallessMechanisms(t *testing.T) {
	for _, m := range []Mechanism{&AnonymousMechanism{}, &ExternalMechanism{}} {
		response, err := m.Response("ignored", "ignored")
		if err != nil {
			t.Errorf("%s: unexpected error: %v", m.Name(), err)
		}
		if len(response) != 0 {
			t.Errorf("%s: expected empty response, got %q", m.Name(), response)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if len(registry.List()) != 0 {
		t.Errorf("Expected empty registry, got %d mechanisms", len(registry.List()))
	}

	registry.Register(&PlainMechanism{})
	registry.Register(&AnonymousMechanism{})
	registry.Register(&PlainMechanism{})

	if got := registry.String(); got != "PLAIN ANONYMOUS" {
		t.Errorf("Expected 'PLAIN ANONYMOUS', got '%s'", got)
	}

	mech, err := registry.Get("plain")
	if err != nil {
		t.Errorf("Expected to find PLAIN mechanism, got error: %v", err)
	}
	if mech.Name() != "PLAIN" {
		t.Errorf("Expected PLAIN mechanism, got %s", mech.Name())
	}

	if _, err := registry.Get("CRAM-MD5"); err == nil {
		t.Error("Expected error for unregistered mechanism")
	}
}

func TestRegistrySelect(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		offered   string
		preferred string
		want      string
		wantErr   bool
	}{
		{"AMQPLAIN PLAIN", "", "PLAIN", false},
		{"AMQPLAIN", "", "AMQPLAIN", false},
		{"EXTERNAL PLAIN", "EXTERNAL", "EXTERNAL", false},
		{"plain", "", "PLAIN", false},
		{"PLAIN", "AMQPLAIN", "", true},
		{"PLAIN", "GSSAPI", "", true},
		{"CRAM-MD5", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		mech, err := registry.Select(tt.offered, tt.preferred)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Select(%q, %q): expected error, got %s", tt.offered, tt.preferred, mech.Name())
			}
			continue
		}
		if err != nil {
			t.Errorf("Select(%q, %q): unexpected error: %v", tt.offered, tt.preferred, err)
			continue
		}
		if mech.Name() != tt.want {
			t.Errorf("Select(%q, %q): expected %s, got %s", tt.offered, tt.preferred, tt.want, mech.Name())
		}
	}
}
