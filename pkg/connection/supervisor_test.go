package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkwon17/glassLink/pkg/protocol"
)

// fakePeer is the remote end of the control channel: it records every frame
// the supervisor sends and can answer handshakes and heartbeats like a real
// peer would.
type fakePeer struct {
	mu         sync.Mutex
	sup        *Supervisor
	sent       []*protocol.Message
	ackAllowed int // remaining handshakes to ack, -1 for unlimited
	ackBeats   bool
}

func (p *fakePeer) Send(data []byte) error {
	msg, ok := protocol.DecodeJSON(data)
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.sent = append(p.sent, msg)
	sup := p.sup
	allowed := p.ackAllowed
	if msg.Type == protocol.Handshake && allowed > 0 {
		p.ackAllowed--
	}
	ackBeats := p.ackBeats
	p.mu.Unlock()

	if sup == nil {
		return nil
	}
	switch msg.Type {
	case protocol.Handshake:
		if allowed != 0 {
			sup.HandleMessage(protocol.NewHandshakeAck("peer"))
		}
	case protocol.Heartbeat:
		if ackBeats {
			sup.HandleMessage(protocol.NewHeartbeatAck())
		}
	}
	return nil
}

func (p *fakePeer) sentTypes() []protocol.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]protocol.MessageType, len(p.sent))
	for i, msg := range p.sent {
		types[i] = msg.Type
	}
	return types
}

func (p *fakePeer) countType(t protocol.MessageType) int {
	count := 0
	for _, typ := range p.sentTypes() {
		if typ == t {
			count++
		}
	}
	return count
}

func testSupervisorConfig() *Config {
	return &Config{
		HandshakeTimeout:     50 * time.Millisecond,
		HeartbeatInterval:    20 * time.Millisecond,
		HeartbeatMisses:      2,
		ReconnectDelay:       10 * time.Millisecond,
		MaxReconnectAttempts: 2,
		EventBufferSize:      32,
	}
}

func newTestSupervisor(t *testing.T, peer *fakePeer) *Supervisor {
	t.Helper()
	sup, err := NewSupervisor(testSupervisorConfig(), peer, "phone-under-test")
	require.NoError(t, err)
	peer.sup = sup
	t.Cleanup(func() { sup.stopHeartbeat() })
	return sup
}

// awaitState drains events until the supervisor reaches want.
func awaitState(t *testing.T, sup *Supervisor, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case change := <-sup.Events():
			if change.To == want {
				return
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for state %s, currently %s", want, sup.State())
		}
	}
}

func TestSupervisor_ConnectSuccess(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: true}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	assert.Equal(t, StateConnected, sup.State())
	assert.True(t, sup.Ready())
	assert.Equal(t, 1, peer.countType(protocol.Handshake))
}

func TestSupervisor_HandshakeTimeoutIsTerminalUntilReset(t *testing.T) {
	peer := &fakePeer{ackAllowed: 0}
	sup := newTestSupervisor(t, peer)

	err := sup.Connect(context.Background())
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Equal(t, StateError, sup.State())
	assert.False(t, sup.Ready())

	// A new connect request is the explicit reset that leaves ERROR.
	peer.mu.Lock()
	peer.ackAllowed = -1
	peer.mu.Unlock()
	require.NoError(t, sup.Connect(context.Background()))
	assert.Equal(t, StateConnected, sup.State())
}

func TestSupervisor_ConnectWhileConnectedIsRefused(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: true}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	assert.ErrorIs(t, sup.Connect(context.Background()), ErrAlreadyConnecting)
}

func TestSupervisor_PassiveHandshakeAccept(t *testing.T) {
	peer := &fakePeer{}
	sup := newTestSupervisor(t, peer)

	sup.HandleMessage(protocol.NewHandshake("glasses"))

	assert.Equal(t, StateConnected, sup.State())
	assert.Equal(t, 1, peer.countType(protocol.HandshakeAck))
}

func TestSupervisor_HeartbeatsFlowWhileConnected(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: true}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	time.Sleep(5 * testSupervisorConfig().HeartbeatInterval)

	assert.GreaterOrEqual(t, peer.countType(protocol.Heartbeat), 2,
		"Heartbeats must be emitted at the configured interval")
	assert.Equal(t, StateConnected, sup.State(), "Acked heartbeats must keep the session up")
}

func TestSupervisor_HeartbeatAnswered(t *testing.T) {
	peer := &fakePeer{}
	sup := newTestSupervisor(t, peer)

	sup.HandleMessage(protocol.NewHeartbeat())
	assert.Equal(t, 1, peer.countType(protocol.HeartbeatAck))
}

func TestSupervisor_HeartbeatLossTriggersSupervisedReconnect(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: false}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	// No heartbeat ack and no other traffic: the silence window lapses,
	// then the (always-acking) peer lets the reconnect succeed.
	awaitState(t, sup, StateReconnecting)
	awaitState(t, sup, StateConnected)
	assert.GreaterOrEqual(t, peer.countType(protocol.Handshake), 2,
		"Reconnection must run a fresh handshake")
}

func TestSupervisor_ReconnectExhaustionIsTerminal(t *testing.T) {
	peer := &fakePeer{ackAllowed: 1, ackBeats: false}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	awaitState(t, sup, StateReconnecting)
	awaitState(t, sup, StateError)

	assert.Equal(t, StateError, sup.State())
	// MaxReconnectAttempts handshakes beyond the initial one.
	assert.Equal(t, 1+testSupervisorConfig().MaxReconnectAttempts, peer.countType(protocol.Handshake))
}

func TestSupervisor_DisconnectBypassesRetries(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: true}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	sup.Disconnect("user request")

	assert.Equal(t, StateDisconnected, sup.State())
	assert.Equal(t, 1, peer.countType(protocol.Disconnect))
}

func TestSupervisor_PeerDisconnectMessage(t *testing.T) {
	peer := &fakePeer{ackAllowed: -1, ackBeats: true}
	sup := newTestSupervisor(t, peer)

	require.NoError(t, sup.Connect(context.Background()))
	sup.HandleMessage(protocol.NewDisconnect("battery died"))
	assert.Equal(t, StateDisconnected, sup.State())
}

func TestState_TransitionTable(t *testing.T) {
	cases := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateDisconnected, StateConnecting, true},
		{StateDisconnected, StateConnected, false},
		{StateConnecting, StateConnected, true},
		{StateConnecting, StateError, true},
		{StateConnecting, StateReconnecting, false},
		{StateConnected, StateReconnecting, true},
		{StateConnected, StateConnecting, false},
		{StateReconnecting, StateConnecting, true},
		{StateReconnecting, StateError, true},
		{StateError, StateConnecting, false},
		// Explicit disconnect is legal from everywhere.
		{StateConnected, StateDisconnected, true},
		{StateReconnecting, StateDisconnected, true},
		{StateError, StateDisconnected, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "DISCONNECTED", StateDisconnected.String())
	assert.Equal(t, "CONNECTED", StateConnected.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
