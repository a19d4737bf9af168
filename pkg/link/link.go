package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rkwon17/glassLink/pkg/connection"
	"github.com/rkwon17/glassLink/pkg/protocol"
	"github.com/rkwon17/glassLink/pkg/transfer"
)

var ErrNotConnected = errors.New("link is not connected")

// Config bundles the per-component configurations of one link.
type Config struct {
	Connection *connection.Config `json:"connection"`
	Transfer   *transfer.Config   `json:"transfer"`
}

// DefaultConfig returns defaults for both layers.
func DefaultConfig() *Config {
	return &Config{
		Connection: connection.DefaultConfig(),
		Transfer:   transfer.DefaultConfig(),
	}
}

// Link is the facade over one logical session: one connection supervisor,
// one transfer sender, one transfer receiver, and the demux read loop that
// feeds them. Cross-component effects flow only through events and outbound
// frames; no component reaches into another's state.
type Link struct {
	transport  Transport
	supervisor *connection.Supervisor
	sender     *transfer.Sender
	receiver   *transfer.Receiver

	messages       chan *protocol.Message
	stateChanges   chan connection.StateChange
	transferEvents chan transfer.Event

	mu         sync.Mutex
	sendCancel context.CancelFunc
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a link over transport. deviceName identifies the local device
// in handshakes. A nil config gets defaults.
func New(cfg *Config, transport Transport, deviceName string) (*Link, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Connection == nil {
		cfg.Connection = connection.DefaultConfig()
	}
	if cfg.Transfer == nil {
		cfg.Transfer = transfer.DefaultConfig()
	}
	supervisor, err := connection.NewSupervisor(cfg.Connection, transport, deviceName)
	if err != nil {
		return nil, err
	}
	sender, err := transfer.NewSender(cfg.Transfer, transport)
	if err != nil {
		return nil, err
	}
	receiver, err := transfer.NewReceiver(cfg.Transfer, transport)
	if err != nil {
		return nil, err
	}
	bufferSize := cfg.Connection.EventBufferSize
	return &Link{
		transport:      transport,
		supervisor:     supervisor,
		sender:         sender,
		receiver:       receiver,
		messages:       make(chan *protocol.Message, bufferSize),
		stateChanges:   make(chan connection.StateChange, bufferSize),
		transferEvents: make(chan transfer.Event, cfg.Transfer.EventBufferSize),
	}, nil
}

// Start launches the demux read loop and the event forwarding. It must be
// called before Connect.
func (l *Link) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	l.wg.Add(3)
	go l.readLoop()
	go l.forwardTransferEvents(ctx)
	go l.superviseState(ctx)
}

// Stop tears the link down without a DISCONNECT message; use Disconnect for
// an orderly shutdown.
func (l *Link) Stop() {
	l.abortTransfer()
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if err := l.transport.Close(); err != nil {
		slog.Warn("Failed to close transport", "error", err)
	}
	l.wg.Wait()
}

// Connect performs the active handshake.
func (l *Link) Connect(ctx context.Context) error {
	return l.supervisor.Connect(ctx)
}

// Disconnect shuts the session down from any state, bypassing retries.
func (l *Link) Disconnect(reason string) {
	l.abortTransfer()
	l.supervisor.Disconnect(reason)
}

// State returns the current connection state.
func (l *Link) State() connection.State {
	return l.supervisor.State()
}

// Messages delivers inbound business messages. Nothing is delivered while
// the session is not connected.
func (l *Link) Messages() <-chan *protocol.Message {
	return l.messages
}

// StateChanges delivers connection state transitions.
func (l *Link) StateChanges() <-chan connection.StateChange {
	return l.stateChanges
}

// TransferEvents delivers the merged send- and receive-side transfer
// lifecycle events.
func (l *Link) TransferEvents() <-chan transfer.Event {
	return l.transferEvents
}

// SendMessage encodes and sends one message. Voice messages ride the
// compact binary framing; everything else is textual. Business messages are
// refused while the session is not connected.
func (l *Link) SendMessage(msg *protocol.Message) error {
	if msg.Type.Category() != protocol.CategoryConnection && !l.supervisor.Ready() {
		return ErrNotConnected
	}
	if msg.Type.Category() == protocol.CategoryVoice {
		return l.transport.Send(protocol.EncodeBinary(msg))
	}
	data, err := protocol.EncodeJSON(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return l.transport.Send(data)
}

// SendPhoto transfers one binary payload with the chunked protocol and
// blocks until it completes, fails, or ctx is cancelled. Link loss while in
// flight aborts the transfer.
func (l *Link) SendPhoto(ctx context.Context, payload []byte) error {
	if !l.supervisor.Ready() {
		return ErrNotConnected
	}
	sendCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.sendCancel = cancel
	l.mu.Unlock()
	defer func() {
		cancel()
		l.mu.Lock()
		l.sendCancel = nil
		l.mu.Unlock()
	}()
	return l.sender.Send(sendCtx, payload)
}

// CancelPhoto aborts the in-flight transfer in both directions: the local
// send loop is cancelled and the peer is told to discard its session.
func (l *Link) CancelPhoto() {
	l.abortTransfer()
	if l.supervisor.Ready() {
		if err := l.SendMessage(protocol.NewPhotoCancel()); err != nil {
			slog.Warn("Failed to send PHOTO_CANCEL", "error", err)
		}
	}
}

func (l *Link) abortTransfer() {
	l.mu.Lock()
	cancel := l.sendCancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	l.receiver.Cancel()
}

// readLoop drains the transport and demultiplexes each frame by its leading
// byte: transfer opcodes route to the transfer endpoints, '{' to the JSON
// decoder, and a zero byte to the compact binary decoder. Frames that fail
// to decode are dropped, never fatal.
func (l *Link) readLoop() {
	defer l.wg.Done()
	for frame := range l.transport.Frames() {
		if len(frame) == 0 {
			continue
		}
		if transfer.IsPacket(frame) {
			pkt, ok := transfer.DecodePacket(frame)
			if !ok {
				slog.Debug("Dropping malformed transfer packet")
				continue
			}
			l.supervisor.MarkTraffic()
			switch pkt.Kind {
			case transfer.PacketAck, transfer.PacketRetry:
				l.sender.HandlePacket(pkt)
			default:
				l.receiver.HandlePacket(pkt)
			}
			continue
		}

		var msg *protocol.Message
		var ok bool
		if frame[0] == '{' {
			msg, ok = protocol.DecodeJSON(frame)
		} else {
			msg, ok = protocol.DecodeBinary(frame)
		}
		if !ok {
			slog.Debug("Dropping undecodable frame", "lead_byte", frame[0])
			continue
		}
		l.dispatch(msg)
	}
}

func (l *Link) dispatch(msg *protocol.Message) {
	if msg.Type.Category() == protocol.CategoryConnection {
		l.supervisor.HandleMessage(msg)
		return
	}
	l.supervisor.MarkTraffic()

	if msg.Type == protocol.PhotoCancel {
		l.abortTransfer()
		return
	}

	if !l.supervisor.Ready() {
		slog.Debug("Dropping business message while not connected", "type", msg.Type.String())
		return
	}
	select {
	case l.messages <- msg:
	default:
		slog.Warn("Dropping inbound message, buffer full", "type", msg.Type.String())
	}
}

// forwardTransferEvents merges both transfer endpoints' events into one
// outward stream.
func (l *Link) forwardTransferEvents(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-l.sender.Events():
			l.emitTransferEvent(e)
		case e := <-l.receiver.Events():
			l.emitTransferEvent(e)
		}
	}
}

func (l *Link) emitTransferEvent(e transfer.Event) {
	select {
	case l.transferEvents <- e:
	default:
		slog.Warn("Dropping transfer event, buffer full")
	}
}

// superviseState re-emits supervisor state changes outward and aborts any
// in-flight transfer the moment the link leaves CONNECTED. Application
// messages survive a reconnect transparently; transfers do not.
func (l *Link) superviseState(ctx context.Context) {
	defer l.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-l.supervisor.Events():
			if change.From == connection.StateConnected {
				l.abortTransfer()
			}
			select {
			case l.stateChanges <- change:
			default:
				slog.Warn("Dropping state change event, buffer full")
			}
		}
	}
}
