// Package hostmutex provides cross-process locks on named resources.
//
// Locks are advisory file locks held in a shared lock directory. A lock is
// released when its handle is released or when the owning process exits,
// whichever comes first. Lock files persist after release; removing a lock
// file while another process holds or awaits its lock would split the lock
// across two inodes.
package hostmutex

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// pollInterval is the amount of time to wait between attempts to acquire
// a contended lock.
const pollInterval = 100 * time.Millisecond

// Dir is a directory that holds lock files for host-wide resources.
type Dir struct {
	path string
}

// OpenDir opens the lock directory at the given path. If the directory does
// not already exist, it is created.
func OpenDir(path string) (Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Dir{}, fmt.Errorf("failed to create the lock directory: %w", err)
	}
	return Dir{path: path}, nil
}

// Path returns the file system path of the lock directory.
func (d Dir) Path() string {
	return d.path
}

// Acquire attempts to acquire an exclusive host-wide lock on the named
// resource. If the resource is locked by another process, it retries until
// the timeout elapses or ctx is cancelled.
//
// A timeout of zero makes a single attempt. If the timeout elapses without
// the lock being acquired, it returns an error of type TimeoutError.
//
// It is the caller's responsibility to release the returned handle when
// finished with it.
func (d Dir) Acquire(ctx context.Context, resource string, timeout time.Duration) (*Handle, error) {
	if resource == "" {
		return nil, errors.New("a lock was requested for an empty resource name")
	}

	path := filepath.Join(d.path, lockFileName(resource))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open the lock file for \"%s\": %w", resource, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		locked, err := tryFlock(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to lock \"%s\": %w", resource, err)
		}
		if locked {
			writeOwner(file, resource)
			return &Handle{resource: resource, path: path, file: file}, nil
		}

		if !time.Now().Before(deadline) {
			file.Close()
			return nil, TimeoutError{Resource: resource, Timeout: timeout}
		}

		wait := pollInterval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			file.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// tryFlock makes a single non-blocking attempt to lock the file.
func tryFlock(file *os.File) (bool, error) {
	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EWOULDBLOCK):
			return false, nil
		default:
			return false, err
		}
	}
}

// writeOwner records the owning process in the lock file. The contents are
// diagnostic only; the lock itself is held by the file description, not by
// the file's data.
func writeOwner(file *os.File, resource string) {
	if err := file.Truncate(0); err != nil {
		return
	}
	file.WriteAt([]byte(fmt.Sprintf("pid=%d\nresource=%s\nacquired=%s\n", os.Getpid(), resource, time.Now().UTC().Format(time.RFC3339))), 0)
}

// lockFileName maps a resource name to a fixed-length lock file name.
func lockFileName(resource string) string {
	sum := blake3.Sum256([]byte(resource))
	return hex.EncodeToString(sum[:8]) + ".lock"
}
