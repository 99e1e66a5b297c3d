package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string            `json:"name" cbor:"name"`
	Count int               `json:"count" cbor:"count"`
	Tags  map[string]string `json:"tags" cbor:"tags"`
}

func TestForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"", ContentTypeJSON, false},
		{"application/json", ContentTypeJSON, false},
		{"Application/JSON; charset=utf-8", ContentTypeJSON, false},
		{"application/cbor", ContentTypeCBOR, false},
		{"text/plain", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			c, err := ForContentType(tt.contentType)
			if tt.wantErr {
				var unsupported *UnsupportedContentTypeError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, tt.contentType, unsupported.ContentType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ContentType())
		})
	}
}

func TestCodecsDecodeWhatTheyEncode(t *testing.T) {
	cborCodec, err := NewCBOR()
	require.NoError(t, err)

	in := payload{Name: "resize", Count: 3, Tags: map[string]string{"b": "2", "a": "1"}}
	for _, c := range []Codec{JSON{}, cborCodec} {
		t.Run(c.ContentType(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	c, err := NewCBOR()
	require.NoError(t, err)

	first, err := c.Marshal(map[string]int{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Marshal(map[string]int{"m": 3, "z": 1, "a": 2})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	c, err := NewCBOR()
	require.NoError(t, err)

	// {"a": 1, "a": 2}
	data := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	var out map[string]int
	assert.Error(t, c.Unmarshal(data, &out))
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, err := ByName(name)
		require.NoError(t, err)
		assert.Contains(t, c.ContentType(), name)
	}
	_, err := ByName("xml")
	assert.Error(t, err)
}
