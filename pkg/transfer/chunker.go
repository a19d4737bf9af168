package transfer

import (
	"crypto/md5"
	"errors"
	"hash/crc32"
	"io"
)

// Chunk is one fixed-size slice of a payload, carrying the CRC-32 checksum
// the receiver revalidates before storing it.
type Chunk struct {
	Index    uint32
	Data     []byte
	Checksum uint32
	IsLast   bool
}

// Chunker walks an in-memory payload (a captured photo) in fixed-size
// chunks. The final chunk may be shorter; every other chunk is exactly
// chunkSize bytes.
type Chunker struct {
	payload   []byte
	chunkSize int
	offset    int
	nextIndex uint32
}

var ErrEmptyPayload = errors.New("cannot chunk an empty payload")

// NewChunker prepares a chunker over payload. The chunk size must be within
// the configured bounds.
func NewChunker(payload []byte, chunkSize int) (*Chunker, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return nil, errors.New("chunk size out of bounds")
	}
	return &Chunker{payload: payload, chunkSize: chunkSize}, nil
}

// TotalChunks is ceil(len(payload) / chunkSize).
func (c *Chunker) TotalChunks() uint32 {
	return uint32((len(c.payload) + c.chunkSize - 1) / c.chunkSize)
}

// TotalSize is the payload length in bytes.
func (c *Chunker) TotalSize() uint32 {
	return uint32(len(c.payload))
}

// Digest computes the whole-payload MD5 used for end-to-end verification
// after reassembly.
func (c *Chunker) Digest() [DigestSize]byte {
	return md5.Sum(c.payload)
}

// Next returns the next chunk in index order, or io.EOF once the payload is
// exhausted. The returned data aliases the payload; callers must not mutate
// it.
func (c *Chunker) Next() (*Chunk, error) {
	if c.offset >= len(c.payload) {
		return nil, io.EOF
	}
	end := c.offset + c.chunkSize
	if end > len(c.payload) {
		end = len(c.payload)
	}
	data := c.payload[c.offset:end]
	chunk := &Chunk{
		Index:    c.nextIndex,
		Data:     data,
		Checksum: ChunkChecksum(data),
		IsLast:   end == len(c.payload),
	}
	c.offset = end
	c.nextIndex++
	return chunk, nil
}

// ChunkAt re-reads the chunk at the given index, for targeted retransmission
// without rewinding the iterator.
func (c *Chunker) ChunkAt(index uint32) (*Chunk, bool) {
	start := int(index) * c.chunkSize
	if start >= len(c.payload) {
		return nil, false
	}
	end := start + c.chunkSize
	if end > len(c.payload) {
		end = len(c.payload)
	}
	data := c.payload[start:end]
	return &Chunk{
		Index:    index,
		Data:     data,
		Checksum: ChunkChecksum(data),
		IsLast:   end == len(c.payload),
	}, true
}

// ChunkChecksum is the cheap per-chunk integrity check: CRC-32 (IEEE). It
// localizes corruption to one chunk so only that unit is retransmitted; the
// expensive MD5 digest over the reassembled payload remains the end-to-end
// guarantee.
func ChunkChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
