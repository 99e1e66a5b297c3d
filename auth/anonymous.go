package auth

// AnonymousMechanism implements SASL ANONYMOUS. The broker decides which
// user the connection runs as.
type AnonymousMechanism struct{}

// Name returns the mechanism name
func (a *AnonymousMechanism) Name() string {
	return "ANONYMOUS"
}

// Response is empty; credentials are ignored
func (a *AnonymousMechanism) Response(string, string) ([]byte, error) {
	return []byte{}, nil
}

// ExternalMechanism implements SASL EXTERNAL, where the broker takes the
// identity from the TLS client certificate
type ExternalMechanism struct{}

// Name returns the mechanism name
func (e *ExternalMechanism) Name() string {
	return "EXTERNAL"
}

// Response is empty; credentials are ignored
func (e *ExternalMechanism) Response(string, string) ([]byte, error) {
	return []byte{}, nil
}
