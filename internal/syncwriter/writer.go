// Package syncwriter provides an in-memory writer that serializes writes
// from multiple goroutines.
package syncwriter

import (
	"bytes"
	"sync"
)

// Writer collects writes from multiple goroutines into a single buffer.
// Individual writes are kept intact, but their relative order depends on
// scheduling. The zero value is ready for use.
type Writer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p to the buffer. It never fails.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// String returns the collected output.
func (w *Writer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// Len returns the number of bytes collected so far.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Len()
}
