// Package capture provides size-bounded output buffers for child processes.
package capture

import (
	"bytes"
	"sync"
)

// Buffer is an io.Writer that keeps at most maxBytes and discards the rest.
// It is safe for concurrent writes from stdout and stderr pipes.
type Buffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	maxBytes  int64
	truncated bool
}

// NewBuffer creates a bounded buffer. A non-positive limit disables capture.
func NewBuffer(maxBytes int64) *Buffer {
	return &Buffer{maxBytes: maxBytes}
}

// Write implements io.Writer. Writes past the bound report success so the
// child never sees a broken pipe.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.maxBytes <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	remaining := b.maxBytes - int64(b.buf.Len())
	if remaining <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// String returns the captured bytes.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Truncated reports whether output exceeded the bound.
func (b *Buffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
