package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// jsonMessage is the textual wire shape. Binary rides as base64 via
// encoding/json's []byte handling.
type jsonMessage struct {
	ID        string    `json:"id"`
	Type      uint32    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload,omitempty"`
	Binary    []byte    `json:"binary_data,omitempty"`
}

// EncodeJSON renders the message in the textual wire format. A missing ID is
// generated and a zero timestamp defaults to encode time; the input message
// is not mutated.
func EncodeJSON(msg *Message) ([]byte, error) {
	id := msg.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return json.Marshal(jsonMessage{
		ID:        id,
		Type:      uint32(msg.Type),
		Timestamp: ts,
		Payload:   msg.Payload,
		Binary:    msg.Binary,
	})
}

// DecodeJSON parses a textual frame. Decoding is tolerant: bad structure, a
// corrupt binary field, or an unrecognized type code all yield (nil, false)
// so the caller drops the frame instead of crashing.
func DecodeJSON(data []byte) (*Message, bool) {
	var wire jsonMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, false
	}
	t := MessageType(wire.Type)
	if !t.Valid() {
		return nil, false
	}
	msg := &Message{
		ID:        wire.ID,
		Type:      t,
		Timestamp: wire.Timestamp,
		Payload:   wire.Payload,
		Binary:    wire.Binary,
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg, true
}
