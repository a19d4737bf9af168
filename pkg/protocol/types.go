package protocol

// MessageType is the numeric wire identity of a message. The code space is
// partitioned into ranges by concern; a new type consumes the next free code
// in its range and ranges never overlap.
type MessageType uint32

const (
	// Connection management: 1-99
	Handshake    MessageType = 1
	HandshakeAck MessageType = 2
	Heartbeat    MessageType = 3
	HeartbeatAck MessageType = 4
	Disconnect   MessageType = 5

	// Voice streaming: 100-199
	VoiceStart MessageType = 100
	VoiceData  MessageType = 101
	VoiceEnd   MessageType = 102

	// AI processing and status: 200-299
	AIProcessing MessageType = 200
	AIResponse   MessageType = 201
	AIError      MessageType = 202

	// Display control: 300-399
	DisplayText  MessageType = 300
	DisplayClear MessageType = 301

	// Photo transfer control: 400-499
	PhotoRequest MessageType = 400
	PhotoCancel  MessageType = 401

	// System control: 500-599
	DeviceInfo   MessageType = 500
	BatteryLevel MessageType = 501
)

// Category groups message types by the concern their code range belongs to.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryConnection
	CategoryVoice
	CategoryAI
	CategoryDisplay
	CategoryPhoto
	CategorySystem
)

// String returns a human-readable name for the category
func (c Category) String() string {
	switch c {
	case CategoryConnection:
		return "connection"
	case CategoryVoice:
		return "voice"
	case CategoryAI:
		return "ai"
	case CategoryDisplay:
		return "display"
	case CategoryPhoto:
		return "photo"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// registry is the closed set of recognized type codes. Decoding any code
// absent from this map fails rather than defaulting.
var registry = map[MessageType]string{
	Handshake:    "HANDSHAKE",
	HandshakeAck: "HANDSHAKE_ACK",
	Heartbeat:    "HEARTBEAT",
	HeartbeatAck: "HEARTBEAT_ACK",
	Disconnect:   "DISCONNECT",
	VoiceStart:   "VOICE_START",
	VoiceData:    "VOICE_DATA",
	VoiceEnd:     "VOICE_END",
	AIProcessing: "AI_PROCESSING",
	AIResponse:   "AI_RESPONSE",
	AIError:      "AI_ERROR",
	DisplayText:  "DISPLAY_TEXT",
	DisplayClear: "DISPLAY_CLEAR",
	PhotoRequest: "PHOTO_REQUEST",
	PhotoCancel:  "PHOTO_CANCEL",
	DeviceInfo:   "DEVICE_INFO",
	BatteryLevel: "BATTERY_LEVEL",
}

// Valid reports whether the code is a recognized message type.
func (t MessageType) Valid() bool {
	_, ok := registry[t]
	return ok
}

// String returns the symbolic name of the type, or "UNKNOWN" for
// unrecognized codes. The name is for program logic and logs only; the
// numeric code is the wire identity.
func (t MessageType) String() string {
	if name, ok := registry[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Category returns the concern range the code falls in. Unlike Valid, this
// is purely range-based so it also classifies codes reserved for future
// types.
func (t MessageType) Category() Category {
	switch {
	case t >= 1 && t <= 99:
		return CategoryConnection
	case t >= 100 && t <= 199:
		return CategoryVoice
	case t >= 200 && t <= 299:
		return CategoryAI
	case t >= 300 && t <= 399:
		return CategoryDisplay
	case t >= 400 && t <= 499:
		return CategoryPhoto
	case t >= 500 && t <= 599:
		return CategorySystem
	default:
		return CategoryUnknown
	}
}
