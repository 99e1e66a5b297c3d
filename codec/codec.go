// Package codec converts request and reply payloads to and from bytes,
// selected by the message content type.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// Codec marshals payloads for one content type.
type Codec interface {
	ContentType() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// UnsupportedContentTypeError names a content type no codec handles.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

// JSON encodes payloads as JSON.
type JSON struct{}

func (JSON) ContentType() string { return ContentTypeJSON }

func (JSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// CBOR encodes payloads as deterministic CBOR.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds a CBOR codec using core deterministic encoding, so equal
// values always produce equal bytes.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 64,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (c *CBOR) ContentType() string { return ContentTypeCBOR }

func (c *CBOR) Marshal(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBOR) Unmarshal(data []byte, v interface{}) error {
	return c.dec.Unmarshal(data, v)
}

// ForContentType returns the codec for a content-type header value.
// Parameters such as "; charset=utf-8" are ignored and an empty value
// means JSON.
func ForContentType(contentType string) (Codec, error) {
	base := strings.TrimSpace(strings.ToLower(strings.SplitN(contentType, ";", 2)[0]))
	switch base {
	case "", ContentTypeJSON, "text/json":
		return JSON{}, nil
	case ContentTypeCBOR:
		return NewCBOR()
	default:
		return nil, &UnsupportedContentTypeError{ContentType: contentType}
	}
}

// Names lists the short names accepted by ByName.
func Names() []string {
	return []string{"json", "cbor"}
}

// ByName returns the codec for a short name such as "json" or "cbor".
func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{}, nil
	case "cbor":
		return NewCBOR()
	default:
		return nil, &UnsupportedContentTypeError{ContentType: name}
	}
}
