package transfer

import (
	"crypto/md5"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionFor opens a session matching the given payload's announced
// dimensions without delivering any chunks.
func sessionFor(tb testing.TB, payload []byte, chunkSize int) (*Session, *Chunker) {
	tb.Helper()
	chunker, err := NewChunker(payload, chunkSize)
	require.NoError(tb, err)
	return NewSession(chunker.TotalSize(), chunker.TotalChunks(), chunker.Digest()), chunker
}

func TestSession_AddChunkRejectsChecksumMismatch(t *testing.T) {
	payload := patternPayload(t, 2*MinChunkSize)
	session, chunker := sessionFor(t, payload, MinChunkSize)

	chunk, err := chunker.Next()
	require.NoError(t, err)

	corrupted := make([]byte, len(chunk.Data))
	copy(corrupted, chunk.Data)
	corrupted[10] ^= 0x01

	assert.False(t, session.AddChunk(chunk.Index, corrupted, chunk.Checksum),
		"Corrupted payload must be rejected")
	assert.Equal(t, 0, session.ChunkCount(), "Nothing may be stored on mismatch")

	assert.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))
	assert.Equal(t, 1, session.ChunkCount())
}

func TestSession_ReassembleRequiresEveryIndex(t *testing.T) {
	payload := patternPayload(t, 3 * MinChunkSize)
	session, chunker := sessionFor(t, payload, MinChunkSize)

	// Deliver chunks 0 and 2 only; chunk 1 is missing.
	for _, idx := range []uint32{0, 2} {
		chunk, ok := chunker.ChunkAt(idx)
		require.True(t, ok)
		require.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))
	}

	assert.False(t, session.Complete())
	rebuilt, ok := session.Reassemble()
	assert.False(t, ok, "Reassembly with a missing index must fail regardless of the other chunks")
	assert.Nil(t, rebuilt, "No partial payload may leak out")
}

func TestSession_ReassembleVerifiesWholePayloadDigest(t *testing.T) {
	payload := patternPayload(t, 2*MinChunkSize)
	chunker, err := NewChunker(payload, MinChunkSize)
	require.NoError(t, err)

	// Announce a digest that will not match the reassembled bytes.
	wrong := md5.Sum([]byte("something else entirely"))
	session := NewSession(chunker.TotalSize(), chunker.TotalChunks(), wrong)

	for {
		chunk, chunkErr := chunker.Next()
		if chunkErr != nil {
			break
		}
		require.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))
	}

	require.True(t, session.Complete(), "Every per-chunk check passed")
	rebuilt, ok := session.Reassemble()
	assert.False(t, ok, "End-to-end digest mismatch must fail reassembly")
	assert.Nil(t, rebuilt)
}

func TestSession_ReassembleSuccess(t *testing.T) {
	payload := patternPayload(t, 4*MinChunkSize+33)
	session, chunker := sessionFor(t, payload, MinChunkSize)

	// Deliver out of order; index-ordered reassembly must not care.
	total := chunker.TotalChunks()
	for i := int(total) - 1; i >= 0; i-- {
		chunk, ok := chunker.ChunkAt(uint32(i))
		require.True(t, ok)
		require.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))
	}

	rebuilt, ok := session.Reassemble()
	require.True(t, ok)
	assert.Equal(t, payload, rebuilt, "Reassembled payload must be bit-identical")
}

func TestSession_DuplicateChunkDoesNotInflateByteCount(t *testing.T) {
	payload := patternPayload(t, 2*MinChunkSize)
	session, chunker := sessionFor(t, payload, MinChunkSize)

	chunk, ok := chunker.ChunkAt(0)
	require.True(t, ok)
	require.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))
	require.True(t, session.AddChunk(chunk.Index, chunk.Data, chunk.Checksum))

	assert.Equal(t, 1, session.ChunkCount())
	assert.Equal(t, uint32(len(chunk.Data)), session.ReceivedBytes())
}
