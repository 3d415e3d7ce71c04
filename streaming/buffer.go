package streaming

import (
	"sync"

	"github.com/kbukum/transcriptfeed/meeting"
)

// DefaultBufferCapacity is the number of transcripts kept per subscription.
const DefaultBufferCapacity = 100

// TranscriptBuffer keeps the most recent transcripts in arrival order.
// Appending to a full buffer evicts the oldest entry.
type TranscriptBuffer struct {
	mu    sync.RWMutex
	items []meeting.TranscriptData
	start int
	size  int
}

// NewTranscriptBuffer creates a buffer; capacity <= 0 uses the default.
func NewTranscriptBuffer(capacity int) *TranscriptBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &TranscriptBuffer{items: make([]meeting.TranscriptData, capacity)}
}

// Append adds t as the newest entry.
func (b *TranscriptBuffer) Append(t meeting.TranscriptData) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.start+b.size)%capacity] = t
		b.size++
		return
	}
	b.items[b.start] = t
	b.start = (b.start + 1) % capacity
}

// Items returns a copy of the buffered transcripts, oldest first.
func (b *TranscriptBuffer) Items() []meeting.TranscriptData {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]meeting.TranscriptData, b.size)
	for i := range out {
		out[i] = b.items[(b.start+i)%len(b.items)]
	}
	return out
}

// Len returns the number of buffered transcripts.
func (b *TranscriptBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *TranscriptBuffer) Cap() int {
	return len(b.items)
}
