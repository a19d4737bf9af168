// Package link wires the protocol components onto one transport: it
// demultiplexes inbound frames, routes them to the connection supervisor or
// the transfer endpoints, and exposes the outward event streams the
// application consumes.
package link

import (
	"errors"
	"sync"
)

// Transport is the physical serial/radio link abstraction. Discovery,
// pairing, and the physical connection lifecycle are the transport's
// problem; the protocol core only sends frames and drains the inbound
// stream. The transport must deliver frames in order.
type Transport interface {
	Send(data []byte) error
	Frames() <-chan []byte
	Close() error
}

var ErrTransportClosed = errors.New("transport is closed")

// pipeEnd is one side of an in-process transport pair, used by tests and the
// demo command in place of a real radio.
type pipeEnd struct {
	mu     sync.Mutex
	peer   *pipeEnd
	frames chan []byte
	closed bool
}

// Pipe returns two connected in-memory transports. Frames written to one
// side arrive on the other in order.
func Pipe() (Transport, Transport) {
	a := &pipeEnd{frames: make(chan []byte, 64)}
	b := &pipeEnd{frames: make(chan []byte, 64)}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *pipeEnd) Send(data []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	frame := make([]byte, len(data))
	copy(frame, data)

	p.peer.mu.Lock()
	defer p.peer.mu.Unlock()
	if p.peer.closed {
		return ErrTransportClosed
	}
	p.peer.frames <- frame
	return nil
}

func (p *pipeEnd) Frames() <-chan []byte {
	return p.frames
}

func (p *pipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.frames)
	return nil
}
