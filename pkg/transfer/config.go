package transfer

import (
	"errors"
	"time"
)

// Chunk size bounds. The link is low-throughput, so chunks stay small enough
// that a single retransmission is cheap.
const (
	DefaultChunkSize = 4 * 1024
	MaxChunkSize     = 64 * 1024
	MinChunkSize     = 256
)

// Config holds all tunables of the chunked transfer protocol. Timeouts and
// limits are construction inputs, not package state, so several links and
// tests can run side by side without interfering.
type Config struct {
	// ChunkSize is the fixed unit of transfer; the final chunk may be
	// shorter.
	ChunkSize int `json:"chunk_size"`

	// MaxChunkRetries bounds how often a single chunk is resent before the
	// whole transfer is abandoned.
	MaxChunkRetries int `json:"max_chunk_retries"`

	// AckTimeout is how long the sender waits for an ACK or RETRY before
	// resending the in-flight chunk.
	AckTimeout time.Duration `json:"ack_timeout"`

	// EventBufferSize sizes the outward event channel.
	EventBufferSize int `json:"event_buffer_size"`
}

// DefaultConfig returns a configuration with sensible defaults for a
// Bluetooth-class serial link.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:       DefaultChunkSize,
		MaxChunkRetries: 3,
		AckTimeout:      2 * time.Second,
		EventBufferSize: 64,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return errors.New("chunk_size out of bounds")
	}
	if c.MaxChunkRetries < 0 {
		return errors.New("max_chunk_retries cannot be negative")
	}
	if c.AckTimeout <= 0 {
		return errors.New("ack_timeout must be positive")
	}
	if c.EventBufferSize <= 0 {
		return errors.New("event_buffer_size must be positive")
	}
	return nil
}
