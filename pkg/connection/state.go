package connection

// State is the lifecycle state of the logical session. Exactly one state is
// active per link at a time; transitions go through the table below so an
// illegal jump is a programming error caught at the call site, not a silent
// flag flip.
type State int

const (
	// StateDisconnected is the idle state before any connect attempt.
	StateDisconnected State = iota
	// StateConnecting means a handshake is in flight.
	StateConnecting
	// StateConnected means the handshake completed and heartbeats flow.
	StateConnected
	// StateReconnecting means heartbeats stopped and supervised reconnect
	// attempts are running.
	StateReconnecting
	// StateError is terminal until an explicit new connect request.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CanTransitionTo checks the transition table. An explicit disconnect is
// legal from every state, so StateDisconnected is always reachable.
func (s State) CanTransitionTo(next State) bool {
	if next == StateDisconnected {
		return true
	}
	switch s {
	case StateDisconnected:
		return next == StateConnecting
	case StateConnecting:
		return next == StateConnected || next == StateError
	case StateConnected:
		return next == StateReconnecting
	case StateReconnecting:
		return next == StateConnecting || next == StateError
	case StateError:
		// Terminal. Reset goes through StateDisconnected first.
		return false
	default:
		return false
	}
}
