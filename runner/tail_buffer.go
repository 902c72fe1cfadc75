package runner

import (
	"fmt"
	"sync"
)

const defaultTailBytes = 1 << 20

// tailBuffer keeps only the last maxBytes written to it so a chatty test tool
// cannot grow the error output without bound.
type tailBuffer struct {
	maxBytes int

	mu       sync.Mutex
	total    int64
	contents []byte
}

func newTailBuffer(maxBytes int) *tailBuffer {
	if maxBytes <= 0 {
		maxBytes = defaultTailBytes
	}
	return &tailBuffer{maxBytes: maxBytes}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(p))
	b.contents = append(b.contents, p...)
	if len(b.contents) > b.maxBytes {
		// Copy down so the backing array does not keep growing.
		n := copy(b.contents, b.contents[len(b.contents)-b.maxBytes:])
		b.contents = b.contents[:n]
	}
	return len(p), nil
}

func (b *tailBuffer) TotalBytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *tailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.contents)) < b.total
}

// String returns the retained text, prefixed with a marker when older output was dropped.
func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := b.total - int64(len(b.contents))
	if dropped <= 0 {
		return string(b.contents)
	}
	return fmt.Sprintf("... (truncated %d bytes)\n%s", dropped, b.contents)
}
