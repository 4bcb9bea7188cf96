package rsvariables

import "fmt"

// ConfigError is an error returned when the sensitive variable sources for
// a deployment are configured incorrectly. It is detected before any part
// of the deployment runs.
type ConfigError struct {
	Reason string
}

// Error returns a string describing the error.
func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid sensitive variables configuration: %s", e.Reason)
}

// DecryptError is an error returned when a sensitive variables file cannot
// be decrypted, either because the secrets are wrong or because the file
// has been altered.
type DecryptError struct {
	Path string
	Err  error
}

// Error returns a string describing the error.
func (e DecryptError) Error() string {
	return fmt.Sprintf("failed to decrypt the sensitive variables file \"%s\": %s", e.Path, e.Err)
}

// Unwrap returns the error wrapped by e.
func (e DecryptError) Unwrap() error {
	return e.Err
}
