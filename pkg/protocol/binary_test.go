package protocol

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBinary_RoundTrip(t *testing.T) {
	audio := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x42}
	msg := NewVoiceData(audio)

	frame := EncodeBinary(msg)
	require.Len(t, frame, BinaryHeaderSize+len(audio))

	decoded, ok := DecodeBinary(frame)
	require.True(t, ok, "Failed to decode binary frame")

	assert.Equal(t, VoiceData, decoded.Type)
	assert.Equal(t, audio, decoded.Binary)
	// ID and timestamp are intentionally not carried by the binary frame;
	// fresh values are generated on decode.
	assert.NotEmpty(t, decoded.ID)
	assert.NotEqual(t, msg.ID, decoded.ID)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestEncodeBinary_EmptyPayload(t *testing.T) {
	frame := EncodeBinary(NewVoiceEnd())
	require.Len(t, frame, BinaryHeaderSize)

	decoded, ok := DecodeBinary(frame)
	require.True(t, ok)
	assert.Equal(t, VoiceEnd, decoded.Type)
	assert.Empty(t, decoded.Binary)
}

func TestDecodeBinary_ShortBuffer(t *testing.T) {
	for length := 0; length < BinaryHeaderSize; length++ {
		decoded, ok := DecodeBinary(make([]byte, length))
		assert.False(t, ok, "Buffer of %d bytes must not decode", length)
		assert.Nil(t, decoded)
	}
}

func TestDecodeBinary_DeclaredLengthOverrunsBuffer(t *testing.T) {
	frame := make([]byte, BinaryHeaderSize+2)
	binary.BigEndian.PutUint32(frame[0:4], uint32(VoiceData))
	binary.BigEndian.PutUint32(frame[4:8], 100) // only 2 bytes follow

	decoded, ok := DecodeBinary(frame)
	assert.False(t, ok, "Length overrun must fail decode")
	assert.Nil(t, decoded)
}

func TestDecodeBinary_UnknownTypeCode(t *testing.T) {
	frame := make([]byte, BinaryHeaderSize)
	binary.BigEndian.PutUint32(frame[0:4], 999)
	binary.BigEndian.PutUint32(frame[4:8], 0)

	decoded, ok := DecodeBinary(frame)
	assert.False(t, ok, "Unregistered type code must fail, not default")
	assert.Nil(t, decoded)
}

func TestBinaryFraming_VoiceSequencePreservesOrderAndBytes(t *testing.T) {
	audio := make([]byte, 1500)
	for i := range audio {
		audio[i] = byte(i % 251)
	}

	frames := [][]byte{
		EncodeBinary(NewVoiceStart()),
		EncodeBinary(NewVoiceData(audio)),
		EncodeBinary(NewVoiceEnd()),
	}

	var decoded []*Message
	for i, frame := range frames {
		msg, ok := DecodeBinary(frame)
		require.True(t, ok, "Frame %d failed to decode", i)
		decoded = append(decoded, msg)
	}

	require.Len(t, decoded, 3)
	assert.Equal(t, VoiceStart, decoded[0].Type)
	assert.Equal(t, VoiceData, decoded[1].Type)
	assert.Equal(t, VoiceEnd, decoded[2].Type)
	assert.Equal(t, audio, decoded[1].Binary, "VOICE_DATA bytes must survive framing exactly")
}
