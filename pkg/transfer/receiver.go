package transfer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrIntegrity    = errors.New("whole-payload digest mismatch")
	ErrMissingChunk = errors.New("reassembly attempted with missing chunks")
	ErrPeerAborted  = errors.New("transfer aborted by sender")
)

// Receiver is the receive side of the chunked transfer protocol. It owns at
// most one Session at a time; a new START discards any in-flight session so
// a transfer whose END was lost can never wedge the link.
type Receiver struct {
	cfg     *Config
	conn    Conn
	events  chan Event
	mu      sync.Mutex
	session *Session
}

// NewReceiver creates a receiver over conn. A nil config gets defaults.
func NewReceiver(cfg *Config, conn Conn) (*Receiver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	return &Receiver{
		cfg:    cfg,
		conn:   conn,
		events: make(chan Event, cfg.EventBufferSize),
	}, nil
}

// Events returns the receiver's lifecycle event stream.
func (r *Receiver) Events() <-chan Event {
	return r.events
}

// Active reports whether a session is currently open.
func (r *Receiver) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// HandlePacket processes one inbound transfer packet, replying with
// ACK/RETRY as the protocol requires. ACK and RETRY packets are ignored;
// they belong to the send side.
func (r *Receiver) HandlePacket(p *Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch p.Kind {
	case PacketStart:
		r.handleStart(p)
	case PacketData:
		r.handleData(p)
	case PacketEnd:
		r.handleEnd(p)
	}
}

// Cancel aborts and discards the current session immediately, releasing its
// chunk map. Safe to call when no session is open.
func (r *Receiver) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return
	}
	r.session = nil
	r.emit(Failed{Reason: ErrCancelled})
	slog.Info("Transfer cancelled, session discarded")
}

func (r *Receiver) handleStart(p *Packet) {
	if r.session != nil {
		slog.Warn("New START while a session is in flight, discarding prior session")
		r.emit(Failed{Reason: ErrCancelled})
	}
	r.session = NewSession(p.TotalSize, p.TotalChunks, p.Digest)
	r.emit(Started{TotalSize: p.TotalSize, TotalChunks: p.TotalChunks})
	slog.Info("Transfer session opened", "total_size", p.TotalSize, "total_chunks", p.TotalChunks)
}

func (r *Receiver) handleData(p *Packet) {
	if r.session == nil {
		slog.Warn("DATA without a session, dropping", "chunk", p.ChunkIndex)
		return
	}
	if r.session.AddChunk(p.ChunkIndex, p.Payload, p.Checksum) {
		ack := Packet{Kind: PacketAck, ChunkIndex: p.ChunkIndex, Status: StatusSuccess}
		if err := r.conn.Send(ack.Encode()); err != nil {
			slog.Error("Failed to send ACK", "chunk", p.ChunkIndex, "error", err)
		}
		r.emit(Progress{
			ChunkIndex:    p.ChunkIndex,
			ChunksDone:    uint32(r.session.ChunkCount()),
			TotalChunks:   r.session.TotalChunks(),
			ReceivedBytes: r.session.ReceivedBytes(),
			TotalSize:     r.session.TotalSize(),
		})
		return
	}

	// Checksum mismatch. The index still parsed correctly, so the sender
	// can be told exactly which chunk to resend. Exactly one resend signal
	// goes back; pairing it with a failed ACK would make the sender burn
	// two retry attempts for one corruption.
	slog.Warn("Chunk checksum mismatch", "chunk", p.ChunkIndex)
	retry := Packet{Kind: PacketRetry, ChunkIndex: p.ChunkIndex}
	if err := r.conn.Send(retry.Encode()); err != nil {
		slog.Error("Failed to send RETRY", "chunk", p.ChunkIndex, "error", err)
	}
}

func (r *Receiver) handleEnd(p *Packet) {
	if r.session == nil {
		slog.Warn("END without a session, dropping")
		return
	}
	session := r.session
	r.session = nil

	if p.Status != StatusSuccess {
		r.emit(Failed{Reason: ErrPeerAborted})
		slog.Info("Transfer aborted by sender")
		return
	}

	payload, ok := session.Reassemble()
	if !ok {
		reason := ErrIntegrity
		if !session.Complete() {
			reason = ErrMissingChunk
		}
		r.emit(Failed{Reason: reason})
		slog.Error("Reassembly failed", "error", reason)
		return
	}
	r.emit(Completed{Payload: payload})
	slog.Info("Transfer completed", "bytes", len(payload))
}

func (r *Receiver) emit(e Event) {
	select {
	case r.events <- e:
	default:
		slog.Warn("Dropping transfer event, buffer full")
	}
}
