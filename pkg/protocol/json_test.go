package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeJSON_RoundTrip(t *testing.T) {
	msg := NewDisplayText("hello from the phone")
	msg.Binary = []byte{0x01, 0x02, 0x03}

	data, err := EncodeJSON(msg)
	require.NoError(t, err, "Failed to encode message")

	decoded, ok := DecodeJSON(data)
	require.True(t, ok, "Failed to decode round-tripped message")

	assert.Equal(t, msg.Type, decoded.Type)
	assert.Equal(t, msg.Payload, decoded.Payload)
	assert.Equal(t, msg.Binary, decoded.Binary)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.True(t, msg.Equal(decoded), "Round trip should preserve identity")
}

func TestEncodeJSON_GeneratesMissingIDAndTimestamp(t *testing.T) {
	msg := &Message{Type: Heartbeat}

	data, err := EncodeJSON(msg)
	require.NoError(t, err)

	decoded, ok := DecodeJSON(data)
	require.True(t, ok)

	assert.NotEmpty(t, decoded.ID, "Missing ID should be generated at encode time")
	assert.False(t, decoded.Timestamp.IsZero(), "Missing timestamp should default")
	// The input message itself is not mutated
	assert.Empty(t, msg.ID)
}

func TestDecodeJSON_MalformedStructure(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("this is not json")},
		{"empty", []byte{}},
		{"truncated object", []byte(`{"id":"x","type":`)},
		{"wrong field type", []byte(`{"id":"x","type":"HANDSHAKE"}`)},
		{"corrupt binary field", []byte(`{"id":"x","type":101,"binary_data":"@@@not-base64@@@"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, ok := DecodeJSON(tc.data)
			assert.False(t, ok, "Decode should fail for %s", tc.name)
			assert.Nil(t, decoded)
		})
	}
}

func TestDecodeJSON_UnknownTypeCode(t *testing.T) {
	decoded, ok := DecodeJSON([]byte(`{"id":"abc","type":999,"timestamp":"2026-01-02T15:04:05Z"}`))
	assert.False(t, ok, "Unregistered type code must fail, not default")
	assert.Nil(t, decoded)
}

func TestDecodeJSON_PreservesExplicitTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	msg := NewAIResponse("forty-two")
	msg.Timestamp = ts

	data, err := EncodeJSON(msg)
	require.NoError(t, err)

	decoded, ok := DecodeJSON(data)
	require.True(t, ok)
	assert.True(t, decoded.Timestamp.Equal(ts), "Present timestamp must survive the round trip")
}

func TestMessageEqual_IdentityIsIDAndTypeOnly(t *testing.T) {
	a := NewDisplayText("first")
	b := &Message{ID: a.ID, Type: a.Type, Payload: "different content"}

	assert.True(t, a.Equal(b), "Content must not affect identity")

	c := &Message{ID: a.ID, Type: DisplayClear}
	assert.False(t, a.Equal(c), "Different type breaks identity")

	var nilMsg *Message
	assert.False(t, a.Equal(nilMsg))
	assert.True(t, nilMsg.Equal(nil))
}
