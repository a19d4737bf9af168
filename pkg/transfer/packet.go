package transfer

import (
	"encoding/binary"
)

// PacketKind is the leading opcode byte of every transfer packet. The opcode
// space 0xA0-0xA4 is disjoint from both message-frame lead bytes, which is
// what lets the link demultiplex by first byte alone.
type PacketKind byte

const (
	PacketStart PacketKind = 0xA0
	PacketData  PacketKind = 0xA1
	PacketAck   PacketKind = 0xA2
	PacketRetry PacketKind = 0xA3
	PacketEnd   PacketKind = 0xA4
)

// String returns the packet kind name for logs.
func (k PacketKind) String() string {
	switch k {
	case PacketStart:
		return "START"
	case PacketData:
		return "DATA"
	case PacketAck:
		return "ACK"
	case PacketRetry:
		return "RETRY"
	case PacketEnd:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Status codes carried by ACK and END packets.
const (
	StatusSuccess byte = 0x00
	StatusFailure byte = 0x01
)

// DigestSize is the fixed width of the whole-payload digest in a START
// packet (MD5).
const DigestSize = 16

// Packet is the tagged union of all transfer packet shapes. Which fields are
// meaningful depends on Kind; the codec below fixes the field order and
// widths that both devices must agree on.
//
//	START  0xA0: totalSize u32, totalChunks u32, digest [16]byte
//	DATA   0xA1: chunkIndex u32, payloadLength u32, checksum u32, payload
//	ACK    0xA2: chunkIndex u32, status byte
//	RETRY  0xA3: chunkIndex u32
//	END    0xA4: status byte
//
// All integers are big-endian.
type Packet struct {
	Kind        PacketKind
	TotalSize   uint32
	TotalChunks uint32
	Digest      [DigestSize]byte
	ChunkIndex  uint32
	Checksum    uint32
	Payload     []byte
	Status      byte
}

// Encode renders the packet in its binary wire form.
func (p *Packet) Encode() []byte {
	switch p.Kind {
	case PacketStart:
		buf := make([]byte, 1+4+4+DigestSize)
		buf[0] = byte(PacketStart)
		binary.BigEndian.PutUint32(buf[1:5], p.TotalSize)
		binary.BigEndian.PutUint32(buf[5:9], p.TotalChunks)
		copy(buf[9:], p.Digest[:])
		return buf
	case PacketData:
		buf := make([]byte, 1+4+4+4+len(p.Payload))
		buf[0] = byte(PacketData)
		binary.BigEndian.PutUint32(buf[1:5], p.ChunkIndex)
		binary.BigEndian.PutUint32(buf[5:9], uint32(len(p.Payload)))
		binary.BigEndian.PutUint32(buf[9:13], p.Checksum)
		copy(buf[13:], p.Payload)
		return buf
	case PacketAck:
		buf := make([]byte, 1+4+1)
		buf[0] = byte(PacketAck)
		binary.BigEndian.PutUint32(buf[1:5], p.ChunkIndex)
		buf[5] = p.Status
		return buf
	case PacketRetry:
		buf := make([]byte, 1+4)
		buf[0] = byte(PacketRetry)
		binary.BigEndian.PutUint32(buf[1:5], p.ChunkIndex)
		return buf
	case PacketEnd:
		return []byte{byte(PacketEnd), p.Status}
	default:
		return nil
	}
}

// DecodePacket parses a transfer packet. It returns (nil, false) on an
// unknown opcode or a truncated buffer; the caller drops the frame. A DATA
// packet whose payload fails its checksum still decodes here — index and
// checksum are validated independently of payload integrity so the receiver
// can name the chunk it wants resent.
func DecodePacket(data []byte) (*Packet, bool) {
	if len(data) < 1 {
		return nil, false
	}
	kind := PacketKind(data[0])
	body := data[1:]
	switch kind {
	case PacketStart:
		if len(body) != 4+4+DigestSize {
			return nil, false
		}
		p := &Packet{
			Kind:        PacketStart,
			TotalSize:   binary.BigEndian.Uint32(body[0:4]),
			TotalChunks: binary.BigEndian.Uint32(body[4:8]),
		}
		copy(p.Digest[:], body[8:])
		return p, true
	case PacketData:
		if len(body) < 12 {
			return nil, false
		}
		length := binary.BigEndian.Uint32(body[4:8])
		if uint64(length) != uint64(len(body)-12) {
			return nil, false
		}
		payload := make([]byte, length)
		copy(payload, body[12:])
		return &Packet{
			Kind:       PacketData,
			ChunkIndex: binary.BigEndian.Uint32(body[0:4]),
			Checksum:   binary.BigEndian.Uint32(body[8:12]),
			Payload:    payload,
		}, true
	case PacketAck:
		if len(body) != 5 {
			return nil, false
		}
		return &Packet{
			Kind:       PacketAck,
			ChunkIndex: binary.BigEndian.Uint32(body[0:4]),
			Status:     body[4],
		}, true
	case PacketRetry:
		if len(body) != 4 {
			return nil, false
		}
		return &Packet{
			Kind:       PacketRetry,
			ChunkIndex: binary.BigEndian.Uint32(body[0:4]),
		}, true
	case PacketEnd:
		if len(body) != 1 {
			return nil, false
		}
		return &Packet{Kind: PacketEnd, Status: body[0]}, true
	default:
		return nil, false
	}
}

// IsPacket reports whether a raw frame's leading byte is a transfer opcode.
// The link demultiplexer uses this before attempting any message decode.
func IsPacket(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	k := PacketKind(data[0])
	return k >= PacketStart && k <= PacketEnd
}
