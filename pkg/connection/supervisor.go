package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rkwon17/glassLink/pkg/protocol"
)

// Conn is the outbound half of the link the supervisor writes control
// messages to.
type Conn interface {
	Send(data []byte) error
}

var (
	ErrHandshakeTimeout  = errors.New("handshake timed out")
	ErrAlreadyConnecting = errors.New("a connect attempt is already in progress")
	ErrNotConnected      = errors.New("link is not connected")
)

// StateChange is emitted on every transition. Side effects of the supervisor
// are observable only through these events and the control messages it puts
// on the wire.
type StateChange struct {
	From   State
	To     State
	Reason string
}

// Supervisor owns the connection lifecycle of one logical session:
// handshake, periodic heartbeat, and bounded supervised reconnection. It
// never touches business payloads; the link layer refuses those while the
// supervisor is not in StateConnected.
type Supervisor struct {
	cfg        *Config
	conn       Conn
	deviceName string

	mu          sync.Mutex
	state       State
	lastTraffic time.Time
	hbCancel    context.CancelFunc

	ackCh  chan struct{}
	events chan StateChange
}

// NewSupervisor creates a supervisor for one link. deviceName identifies the
// local device in handshakes. A nil config gets defaults.
func NewSupervisor(cfg *Config, conn Conn, deviceName string) (*Supervisor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}
	return &Supervisor{
		cfg:        cfg,
		conn:       conn,
		deviceName: deviceName,
		state:      StateDisconnected,
		ackCh:      make(chan struct{}, 1),
		events:     make(chan StateChange, cfg.EventBufferSize),
	}, nil
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether business payloads may be sent.
func (s *Supervisor) Ready() bool {
	return s.State() == StateConnected
}

// Events returns the state-change event stream.
func (s *Supervisor) Events() <-chan StateChange {
	return s.events
}

// Connect performs the active side of the handshake. It is legal from
// StateDisconnected, and from StateError as the explicit external reset that
// leaves the terminal state. On success the heartbeat loop starts; on
// timeout the session lands in StateError.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateDisconnected:
	case StateError:
		// Explicit reset: a new connect request restarts the lifecycle.
		s.transitionLocked(StateDisconnected, "reset")
	default:
		s.mu.Unlock()
		return ErrAlreadyConnecting
	}
	s.transitionLocked(StateConnecting, "connect requested")
	s.mu.Unlock()

	if err := s.handshake(ctx); err != nil {
		s.setState(StateError, "handshake failed")
		return err
	}
	s.setState(StateConnected, "handshake complete")
	s.startHeartbeat()
	return nil
}

// Disconnect tears the session down from any state, bypassing retries. A
// DISCONNECT message is sent best effort if the transport still works.
func (s *Supervisor) Disconnect(reason string) {
	if data, err := protocol.EncodeJSON(protocol.NewDisconnect(reason)); err == nil {
		if err := s.conn.Send(data); err != nil {
			slog.Debug("Failed to send DISCONNECT", "error", err)
		}
	}
	s.stopHeartbeat()
	s.setState(StateDisconnected, reason)
}

// HandleMessage processes one inbound connection-management message. Every
// inbound message counts as link traffic for heartbeat supervision, so the
// link layer calls MarkTraffic for non-control messages and this for
// control ones.
func (s *Supervisor) HandleMessage(msg *protocol.Message) {
	s.MarkTraffic()

	switch msg.Type {
	case protocol.Handshake:
		s.acceptHandshake(msg)
	case protocol.HandshakeAck:
		select {
		case s.ackCh <- struct{}{}:
		default:
		}
	case protocol.Heartbeat:
		if data, err := protocol.EncodeJSON(protocol.NewHeartbeatAck()); err == nil {
			if err := s.conn.Send(data); err != nil {
				slog.Warn("Failed to send HEARTBEAT_ACK", "error", err)
			}
		}
	case protocol.HeartbeatAck:
		// Traffic mark above is all an ack needs to do.
	case protocol.Disconnect:
		slog.Info("Peer disconnected", "reason", msg.Payload)
		s.stopHeartbeat()
		s.setState(StateDisconnected, "peer disconnect")
	}
}

// MarkTraffic records link activity. Any inbound traffic resets the
// heartbeat silence window, not just acks.
func (s *Supervisor) MarkTraffic() {
	s.mu.Lock()
	s.lastTraffic = time.Now()
	s.mu.Unlock()
}

// acceptHandshake is the passive side: reply with an ack and bring the
// session up.
func (s *Supervisor) acceptHandshake(msg *protocol.Message) {
	slog.Info("Handshake from peer", "peer", msg.Payload)
	if data, err := protocol.EncodeJSON(protocol.NewHandshakeAck(s.deviceName)); err == nil {
		if err := s.conn.Send(data); err != nil {
			slog.Warn("Failed to send HANDSHAKE_ACK", "error", err)
			return
		}
	}

	s.mu.Lock()
	alreadyUp := s.state == StateConnected
	if !alreadyUp {
		s.transitionLocked(StateConnecting, "handshake received")
		s.transitionLocked(StateConnected, "handshake accepted")
	}
	s.mu.Unlock()
	if !alreadyUp {
		s.startHeartbeat()
	}
}

// handshake sends HANDSHAKE and waits for HANDSHAKE_ACK within the
// configured timeout.
func (s *Supervisor) handshake(ctx context.Context) error {
	// Drain a stale ack from a previous attempt.
	select {
	case <-s.ackCh:
	default:
	}

	data, err := protocol.EncodeJSON(protocol.NewHandshake(s.deviceName))
	if err != nil {
		return err
	}
	if err := s.conn.Send(data); err != nil {
		return fmt.Errorf("failed to send HANDSHAKE: %w", err)
	}

	timer := time.NewTimer(s.cfg.HandshakeTimeout)
	defer timer.Stop()
	select {
	case <-s.ackCh:
		return nil
	case <-timer.C:
		return ErrHandshakeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) startHeartbeat() {
	s.mu.Lock()
	if s.hbCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.hbCancel = cancel
	s.lastTraffic = time.Now()
	s.mu.Unlock()
	go s.heartbeatLoop(ctx)
}

func (s *Supervisor) stopHeartbeat() {
	s.mu.Lock()
	cancel := s.hbCancel
	s.hbCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// heartbeatLoop emits HEARTBEAT at the configured interval and watches for
// silence. When the link goes quiet for HeartbeatMisses intervals it runs
// supervised reconnection; exhaustion is terminal.
func (s *Supervisor) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		silence := time.Since(s.lastTraffic)
		s.mu.Unlock()

		if silence > time.Duration(s.cfg.HeartbeatMisses)*s.cfg.HeartbeatInterval {
			slog.Warn("Heartbeat lost", "silence", silence)
			s.setState(StateReconnecting, "heartbeat timeout")
			if !s.reconnect(ctx) {
				return
			}
			continue
		}

		if data, err := protocol.EncodeJSON(protocol.NewHeartbeat()); err == nil {
			if err := s.conn.Send(data); err != nil {
				slog.Warn("Failed to send HEARTBEAT", "error", err)
			}
		}
	}
}

// reconnect runs the bounded reconnection attempts. It returns true when the
// session is back up and the heartbeat loop should continue, false when the
// loop must exit (terminal error or cancellation).
func (s *Supervisor) reconnect(ctx context.Context) bool {
	for attempt := 1; attempt <= s.cfg.MaxReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.cfg.ReconnectDelay):
		}

		slog.Info("Reconnect attempt", "attempt", attempt, "max", s.cfg.MaxReconnectAttempts)
		s.setState(StateConnecting, "reconnect attempt")
		if err := s.handshake(ctx); err != nil {
			slog.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
			if attempt < s.cfg.MaxReconnectAttempts {
				s.setState(StateReconnecting, "reconnect attempt failed")
			}
			continue
		}

		s.setState(StateConnected, "reconnected")
		s.MarkTraffic()
		return true
	}

	slog.Error("Reconnect attempts exhausted")
	s.setState(StateError, "reconnect attempts exhausted")
	s.stopHeartbeat()
	return false
}

func (s *Supervisor) setState(next State, reason string) {
	s.mu.Lock()
	s.transitionLocked(next, reason)
	s.mu.Unlock()
}

// transitionLocked applies a transition and emits the change event. Illegal
// transitions are contract violations of the caller and are logged loudly
// rather than applied.
func (s *Supervisor) transitionLocked(next State, reason string) {
	if s.state == next {
		return
	}
	if !s.state.CanTransitionTo(next) {
		slog.Error("Illegal state transition", "from", s.state.String(), "to", next.String())
		return
	}
	change := StateChange{From: s.state, To: next, Reason: reason}
	s.state = next
	slog.Info("Connection state", "from", change.From.String(), "to", change.To.String(), "reason", reason)
	select {
	case s.events <- change:
	default:
		slog.Warn("Dropping state change event, buffer full")
	}
}
