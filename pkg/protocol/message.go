package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Message is the typed envelope exchanged between the phone and the glasses.
// A message carries either text content (Payload), raw bytes (Binary), both,
// or neither, depending on its type.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   string      `json:"payload,omitempty"`
	Binary    []byte      `json:"binary_data,omitempty"`
}

// New creates a message of the given type with a fresh ID and the current
// time.
func New(t MessageType) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
	}
}

// Equal reports whether two messages are the same logical message. Identity
// is defined by ID and type only; content is deliberately excluded so that
// dedup and log correlation survive re-encoding.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.ID == other.ID && m.Type == other.Type
}

// Convenience constructors for each control and content shape. They fix the
// type and fill payload/binary; all validation lives in the wire codecs.

func NewHandshake(deviceName string) *Message {
	msg := New(Handshake)
	msg.Payload = deviceName
	return msg
}

func NewHandshakeAck(deviceName string) *Message {
	msg := New(HandshakeAck)
	msg.Payload = deviceName
	return msg
}

func NewHeartbeat() *Message {
	return New(Heartbeat)
}

func NewHeartbeatAck() *Message {
	return New(HeartbeatAck)
}

func NewDisconnect(reason string) *Message {
	msg := New(Disconnect)
	msg.Payload = reason
	return msg
}

func NewVoiceStart() *Message {
	return New(VoiceStart)
}

func NewVoiceData(audio []byte) *Message {
	msg := New(VoiceData)
	msg.Binary = audio
	return msg
}

func NewVoiceEnd() *Message {
	return New(VoiceEnd)
}

func NewAIProcessing(status string) *Message {
	msg := New(AIProcessing)
	msg.Payload = status
	return msg
}

func NewAIResponse(text string) *Message {
	msg := New(AIResponse)
	msg.Payload = text
	return msg
}

// NewAIResponseAudio carries a TTS rendering alongside the response text.
func NewAIResponseAudio(text string, audio []byte) *Message {
	msg := New(AIResponse)
	msg.Payload = text
	msg.Binary = audio
	return msg
}

func NewAIError(reason string) *Message {
	msg := New(AIError)
	msg.Payload = reason
	return msg
}

func NewDisplayText(text string) *Message {
	msg := New(DisplayText)
	msg.Payload = text
	return msg
}

func NewDisplayClear() *Message {
	return New(DisplayClear)
}

func NewPhotoRequest() *Message {
	return New(PhotoRequest)
}

func NewPhotoCancel() *Message {
	return New(PhotoCancel)
}

func NewBatteryLevel(percent string) *Message {
	msg := New(BatteryLevel)
	msg.Payload = percent
	return msg
}
