package protocol

import (
	"encoding/binary"
)

// BinaryHeaderSize is the fixed frame header: 4-byte type code followed by a
// 4-byte payload length, both big-endian.
const BinaryHeaderSize = 8

// EncodeBinary renders the message in the compact binary frame used on the
// high-frequency voice path: header plus Binary verbatim. The frame carries
// no ID and no timestamp; both are regenerated on decode. This loss is
// deliberate, textual re-encoding of every audio chunk costs too much on a
// low-throughput link.
func EncodeBinary(msg *Message) []byte {
	frame := make([]byte, BinaryHeaderSize+len(msg.Binary))
	binary.BigEndian.PutUint32(frame[0:4], uint32(msg.Type))
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(msg.Binary)))
	copy(frame[BinaryHeaderSize:], msg.Binary)
	return frame
}

// DecodeBinary parses a compact binary frame. It returns (nil, false) when
// fewer than 8 bytes are available, when the declared payload length does
// not fit the remaining buffer, or when the type code is unrecognized.
func DecodeBinary(data []byte) (*Message, bool) {
	if len(data) < BinaryHeaderSize {
		return nil, false
	}
	t := MessageType(binary.BigEndian.Uint32(data[0:4]))
	if !t.Valid() {
		return nil, false
	}
	length := binary.BigEndian.Uint32(data[4:8])
	if uint64(length) > uint64(len(data)-BinaryHeaderSize) {
		return nil, false
	}
	msg := New(t)
	if length > 0 {
		payload := make([]byte, length)
		copy(payload, data[BinaryHeaderSize:BinaryHeaderSize+int(length)])
		msg.Binary = payload
	}
	return msg, true
}
