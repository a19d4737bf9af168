package transfer

import (
	"crypto/md5"
)

// Session is the receive-side state of one in-progress transfer. It is
// created on START, fed by accepted DATA packets, and torn down on END or
// cancellation. Reassembly is only valid once every index in
// [0, totalChunks) is present.
type Session struct {
	totalSize   uint32
	totalChunks uint32
	digest      [DigestSize]byte
	chunks      map[uint32][]byte
	received    uint32 // bytes accepted so far
}

// NewSession opens a session from the fields of a START packet.
func NewSession(totalSize, totalChunks uint32, digest [DigestSize]byte) *Session {
	return &Session{
		totalSize:   totalSize,
		totalChunks: totalChunks,
		digest:      digest,
		chunks:      make(map[uint32][]byte),
	}
}

// TotalChunks returns the chunk count announced by START.
func (s *Session) TotalChunks() uint32 { return s.totalChunks }

// TotalSize returns the payload size announced by START.
func (s *Session) TotalSize() uint32 { return s.totalSize }

// ReceivedBytes returns how many payload bytes have been accepted.
func (s *Session) ReceivedBytes() uint32 { return s.received }

// ChunkCount returns how many distinct chunk indices have been accepted.
func (s *Session) ChunkCount() int { return len(s.chunks) }

// AddChunk validates a DATA packet's payload against its declared checksum
// and stores it on match. It returns false on a checksum mismatch, in which
// case nothing is stored and the caller answers with a retry for that index.
// A duplicate index overwrites; the payload is identical if both copies were
// valid.
func (s *Session) AddChunk(index uint32, payload []byte, checksum uint32) bool {
	if ChunkChecksum(payload) != checksum {
		return false
	}
	if prev, ok := s.chunks[index]; ok {
		s.received -= uint32(len(prev))
	}
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.chunks[index] = stored
	s.received += uint32(len(payload))
	return true
}

// Complete reports whether every index in [0, totalChunks) has been
// received.
func (s *Session) Complete() bool {
	if uint32(len(s.chunks)) != s.totalChunks {
		return false
	}
	for i := uint32(0); i < s.totalChunks; i++ {
		if _, ok := s.chunks[i]; !ok {
			return false
		}
	}
	return true
}

// Reassemble concatenates the chunks in index order and verifies the result
// against the START digest. It returns (nil, false) if any index is missing
// or the digest disagrees; a short or corrupt payload is never returned.
func (s *Session) Reassemble() ([]byte, bool) {
	if !s.Complete() {
		return nil, false
	}
	payload := make([]byte, 0, s.totalSize)
	for i := uint32(0); i < s.totalChunks; i++ {
		payload = append(payload, s.chunks[i]...)
	}
	if md5.Sum(payload) != s.digest {
		return nil, false
	}
	return payload, true
}
