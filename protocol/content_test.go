package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHeaderSplitsPropertiesFromHeaders(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	h, err := NewContentHeader(ClassBasic, 10, Table{
		HeaderContentType:   "application/json",
		HeaderDeliveryMode:  2,
		HeaderCorrelationID: "abc",
		HeaderTimestamp:     ts,
		"x-custom":          "value",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", h.ContentType)
	assert.Equal(t, uint8(2), h.DeliveryMode)
	assert.Equal(t, "abc", h.CorrelationID)
	assert.Equal(t, Table{"x-custom": "value"}, h.Headers)
	assert.Equal(t, uint16(FlagContentType|FlagDeliveryMode|FlagCorrelationID|FlagTimestamp|FlagHeaders), h.PropertyFlags)

	payload, err := h.Serialize()
	require.NoError(t, err)
	decoded, err := ReadContentHeader(payload)
	require.NoError(t, err)

	assert.Equal(t, Table{
		HeaderContentType:   "application/json",
		HeaderDeliveryMode:  uint8(2),
		HeaderCorrelationID: "abc",
		HeaderTimestamp:     ts,
		"x-custom":          "value",
	}, decoded.FlatHeaders())
	assert.Equal(t, uint64(10), decoded.BodySize)
}

func TestContentHeaderWithoutProperties(t *testing.T) {
	h, err := NewContentHeader(ClassBasic, 0, nil)
	require.NoError(t, err)

	payload, err := h.Serialize()
	require.NoError(t, err)
	assert.Len(t, payload, 14)

	decoded, err := ReadContentHeader(payload)
	require.NoError(t, err)
	assert.Empty(t, decoded.FlatHeaders())
}

func TestContentHeaderRejectsBadPropertyTypes(t *testing.T) {
	_, err := NewContentHeader(ClassBasic, 0, Table{HeaderContentType: 5})
	assert.Error(t, err)

	_, err = NewContentHeader(ClassBasic, 0, Table{HeaderPriority: 300})
	assert.Error(t, err)
}

func TestReadContentHeaderTruncated(t *testing.T) {
	h, _ := NewContentHeader(ClassBasic, 1, Table{HeaderMessageID: "m-1"})
	payload, _ := h.Serialize()

	_, err := ReadContentHeader(payload[:len(payload)-1])
	assert.Error(t, err)
	_, err = ReadContentHeader(payload[:10])
	assert.Error(t, err)
}
