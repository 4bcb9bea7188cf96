package rsjournal

import "fmt"

// CorruptError is an error returned when a journal document exists but
// cannot be decoded. A corrupt journal is never treated as the absence of
// prior deployments; it must be repaired or removed by an operator.
type CorruptError struct {
	Path string
	Err  error
}

// Error returns a string describing the error.
func (e CorruptError) Error() string {
	return fmt.Sprintf("the deployment journal at \"%s\" is corrupt: %s", e.Path, e.Err)
}

// Unwrap returns the error wrapped by e.
func (e CorruptError) Unwrap() error {
	return e.Err
}
