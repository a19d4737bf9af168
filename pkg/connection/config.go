package connection

import (
	"errors"
	"time"
)

// Config holds the supervisor's timing inputs. These are configuration, not
// protocol constants: tests run with millisecond values, real links with
// second values, without touching the algorithm.
type Config struct {
	// HandshakeTimeout bounds how long a HANDSHAKE waits for its ack.
	HandshakeTimeout time.Duration `json:"handshake_timeout"`

	// HeartbeatInterval is the period of outbound HEARTBEAT messages while
	// connected.
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`

	// HeartbeatMisses is how many silent intervals are tolerated before the
	// link is considered lost.
	HeartbeatMisses int `json:"heartbeat_misses"`

	// ReconnectDelay is the pause before each reconnect attempt.
	ReconnectDelay time.Duration `json:"reconnect_delay"`

	// MaxReconnectAttempts bounds supervised reconnection; exceeding it is
	// terminal.
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`

	// EventBufferSize sizes the state-change event channel.
	EventBufferSize int `json:"event_buffer_size"`
}

// DefaultConfig returns timings suited to a Bluetooth-class link.
func DefaultConfig() *Config {
	return &Config{
		HandshakeTimeout:     5 * time.Second,
		HeartbeatInterval:    10 * time.Second,
		HeartbeatMisses:      3,
		ReconnectDelay:       2 * time.Second,
		MaxReconnectAttempts: 5,
		EventBufferSize:      16,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake_timeout must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat_interval must be positive")
	}
	if c.HeartbeatMisses <= 0 {
		return errors.New("heartbeat_misses must be positive")
	}
	if c.ReconnectDelay <= 0 {
		return errors.New("reconnect_delay must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.New("max_reconnect_attempts cannot be negative")
	}
	if c.EventBufferSize <= 0 {
		return errors.New("event_buffer_size must be positive")
	}
	return nil
}
