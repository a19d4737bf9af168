package transfer

// Event is a marker interface for transfer lifecycle events emitted to the
// application layer. The unexported method keeps the set closed to this
// package.
type Event interface {
	isTransferEvent()
}

type event struct{}

func (event) isTransferEvent() {}

// Started is emitted when a transfer begins (START sent or received).
type Started struct {
	event
	TotalSize   uint32
	TotalChunks uint32
}

// Progress is emitted per acknowledged chunk.
type Progress struct {
	event
	ChunkIndex    uint32
	ChunksDone    uint32
	TotalChunks   uint32
	ReceivedBytes uint32
	TotalSize     uint32
}

// Completed is emitted when the whole payload has been verified. Payload is
// set on the receive side only.
type Completed struct {
	event
	Payload []byte
}

// Failed is emitted when a transfer is aborted for any reason.
type Failed struct {
	event
	Reason error
}
