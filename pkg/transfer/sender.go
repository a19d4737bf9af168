package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rkwon17/glassLink/pkg/concurrency"
)

// Conn is the outbound half of the link. The physical transport behind it is
// external; the protocol only ever hands it encoded frames.
type Conn interface {
	Send(data []byte) error
}

var (
	ErrRetryExhausted = errors.New("chunk retry limit exhausted")
	ErrCancelled      = errors.New("transfer cancelled")
)

// Sender moves one binary payload across the link with stop-and-wait flow
// control: at most one DATA packet is in flight, and a corrupted chunk costs
// exactly one retransmission, never the whole payload.
type Sender struct {
	cfg    *Config
	conn   Conn
	guard  *concurrency.ConcurrencyGuard
	acks   chan *Packet
	events chan Event
}

// NewSender creates a sender over conn. A nil config gets defaults.
func NewSender(cfg *Config, conn Conn) (*Sender, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transfer config: %w", err)
	}
	return &Sender{
		cfg:    cfg,
		conn:   conn,
		guard:  concurrency.NewConcurrencyGuard(),
		acks:   make(chan *Packet, 8),
		events: make(chan Event, cfg.EventBufferSize),
	}, nil
}

// Events returns the sender's lifecycle event stream.
func (s *Sender) Events() <-chan Event {
	return s.events
}

// HandlePacket feeds an inbound ACK or RETRY to the in-flight send loop.
// Other packet kinds are ignored; they belong to the receive side.
func (s *Sender) HandlePacket(p *Packet) {
	if p.Kind != PacketAck && p.Kind != PacketRetry {
		return
	}
	select {
	case s.acks <- p:
	default:
		slog.Warn("Dropping transfer response, ack queue full", "kind", p.Kind.String(), "chunk", p.ChunkIndex)
	}
}

// Send transmits payload chunk by chunk and blocks until the transfer
// succeeds, fails, or ctx is cancelled. Only one transfer may be in flight
// per link direction; a concurrent call returns concurrency.ErrBusy.
func (s *Sender) Send(ctx context.Context, payload []byte) error {
	return s.guard.Execute(func() error {
		err := s.run(ctx, payload)
		if err != nil {
			// Tell the peer to discard its partial session. Best effort:
			// the link may already be gone.
			end := Packet{Kind: PacketEnd, Status: StatusFailure}
			if sendErr := s.conn.Send(end.Encode()); sendErr != nil {
				slog.Debug("Failed to send END(FAILURE)", "error", sendErr)
			}
			s.emit(Failed{Reason: err})
			return err
		}
		end := Packet{Kind: PacketEnd, Status: StatusSuccess}
		if sendErr := s.conn.Send(end.Encode()); sendErr != nil {
			s.emit(Failed{Reason: sendErr})
			return sendErr
		}
		s.emit(Completed{})
		return nil
	})
}

func (s *Sender) run(ctx context.Context, payload []byte) error {
	chunker, err := NewChunker(payload, s.cfg.ChunkSize)
	if err != nil {
		return err
	}

	digest := chunker.Digest()
	start := Packet{
		Kind:        PacketStart,
		TotalSize:   chunker.TotalSize(),
		TotalChunks: chunker.TotalChunks(),
		Digest:      digest,
	}
	if err := s.conn.Send(start.Encode()); err != nil {
		return fmt.Errorf("failed to send START: %w", err)
	}
	s.emit(Started{TotalSize: chunker.TotalSize(), TotalChunks: chunker.TotalChunks()})

	slog.Info("Transfer started",
		"total_size", chunker.TotalSize(),
		"total_chunks", chunker.TotalChunks(),
		"chunk_size", s.cfg.ChunkSize)

	var done uint32
	var sent uint32
	for {
		chunk, err := chunker.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.sendChunk(ctx, chunk); err != nil {
			return err
		}
		done++
		sent += uint32(len(chunk.Data))
		s.emit(Progress{
			ChunkIndex:    chunk.Index,
			ChunksDone:    done,
			TotalChunks:   chunker.TotalChunks(),
			ReceivedBytes: sent,
			TotalSize:     chunker.TotalSize(),
		})
	}
}

// sendChunk transmits one chunk and waits for its acknowledgment, resending
// on RETRY, failed ACK, or timeout, up to the configured retry limit.
func (s *Sender) sendChunk(ctx context.Context, chunk *Chunk) error {
	pkt := Packet{
		Kind:       PacketData,
		ChunkIndex: chunk.Index,
		Checksum:   chunk.Checksum,
		Payload:    chunk.Data,
	}
	encoded := pkt.Encode()

	for attempt := 0; attempt <= s.cfg.MaxChunkRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Resending chunk", "chunk", chunk.Index, "attempt", attempt)
		}
		if err := s.conn.Send(encoded); err != nil {
			return fmt.Errorf("failed to send chunk %d: %w", chunk.Index, err)
		}

		ok, err := s.awaitAck(ctx, chunk.Index)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: chunk %d", ErrRetryExhausted, chunk.Index)
}

// awaitAck blocks for one acknowledgment of the given chunk. It returns
// (true, nil) on ACK(SUCCESS), (false, nil) when the chunk must be resent
// (RETRY, failed ACK, or timeout), and an error on cancellation. Stale
// responses for other indices are discarded.
func (s *Sender) awaitAck(ctx context.Context, index uint32) (bool, error) {
	timer := time.NewTimer(s.cfg.AckTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-timer.C:
			slog.Warn("Ack timeout", "chunk", index)
			return false, nil
		case resp := <-s.acks:
			if resp.ChunkIndex != index {
				continue
			}
			if resp.Kind == PacketRetry {
				return false, nil
			}
			return resp.Status == StatusSuccess, nil
		}
	}
}

func (s *Sender) emit(e Event) {
	select {
	case s.events <- e:
	default:
		slog.Warn("Dropping transfer event, buffer full")
	}
}
