package gesture

import (
	"strings"
	"time"
)

// SequenceEntry is one confirmed sign in the sequence buffer.
type SequenceEntry struct {
	Key  string    `json:"key"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// SequenceBuffer keeps the most recent confirmations. It holds at most max
// entries and is cleared when a new entry arrives more than timeout after
// the previous one. It is not safe for concurrent use.
type SequenceBuffer struct {
	max     int
	timeout time.Duration
	entries []SequenceEntry
}

// NewSequenceBuffer creates an empty buffer.
func NewSequenceBuffer(maxLen int, timeout time.Duration) *SequenceBuffer {
	return &SequenceBuffer{max: maxLen, timeout: timeout}
}

// Append adds a confirmation, starting over if the previous entry is older
// than the timeout and dropping the oldest entries beyond max.
func (b *SequenceBuffer) Append(g GestureConfirmed) {
	if n := len(b.entries); n > 0 && g.At.Sub(b.entries[n-1].At) > b.timeout {
		b.entries = b.entries[:0]
	}
	b.entries = append(b.entries, SequenceEntry{Key: g.Key, Text: g.Text, At: g.At})
	if over := len(b.entries) - b.max; over > 0 {
		b.entries = append(b.entries[:0], b.entries[over:]...)
	}
}

// Text concatenates the entry texts in order.
func (b *SequenceBuffer) Text() string {
	var sb strings.Builder
	for _, e := range b.entries {
		sb.WriteString(e.Text)
	}
	return sb.String()
}

// Entries returns a copy of the buffer contents, oldest first.
func (b *SequenceBuffer) Entries() []SequenceEntry {
	out := make([]SequenceEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *SequenceBuffer) Len() int {
	return len(b.entries)
}

// Clear empties the buffer.
func (b *SequenceBuffer) Clear() {
	b.entries = b.entries[:0]
}
