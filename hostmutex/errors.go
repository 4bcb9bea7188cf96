package hostmutex

import (
	"fmt"
	"time"
)

// TimeoutError is an error returned when a lock cannot be acquired within
// the caller's timeout.
type TimeoutError struct {
	Resource string
	Timeout  time.Duration
}

// Error returns a string describing the error.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("failed to acquire a lock on \"%s\" within %s: the resource is held by another process", e.Resource, e.Timeout)
}
