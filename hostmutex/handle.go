package hostmutex

import (
	"os"
	"sync"
)

// Handle represents an acquired lock on a host-wide resource.
//
// The lock is held until the handle is released or the owning process
// exits, whichever comes first. The operating system releases the
// underlying file lock when the process terminates for any reason.
type Handle struct {
	resource string
	path     string

	mu   sync.Mutex
	file *os.File
}

// Resource returns the name of the locked resource.
func (h *Handle) Resource() string {
	return h.resource
}

// Path returns the file system path of the lock file.
func (h *Handle) Path() string {
	return h.path
}

// Release releases the lock. It is safe to call more than once; calls after
// the first have no effect.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}
	file := h.file
	h.file = nil

	// Closing the file releases the lock held by its file description.
	return file.Close()
}
