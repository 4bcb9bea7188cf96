// Package rsvariables provides the variable store for Rootstock deployments
// and the loaders that fill it from plain and sensitive variables files.
package rsvariables

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Store holds the variables available to a deployment. Variables are loaded
// before the pipeline starts and may be extended by conventions while the
// deployment runs. A store is never persisted; exporting through Export is
// the only way its contents leave the process.
type Store struct {
	values map[string]string
}

// NewStore returns an empty variable store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value of the named variable and whether it is present.
func (s *Store) Get(key string) (string, bool) {
	value, found := s.values[key]
	return value, found
}

// Value returns the value of the named variable, or an empty string if the
// variable is not present.
func (s *Store) Value(key string) string {
	return s.values[key]
}

// Flag interprets the named variable as a boolean. Variables that are absent
// or hold unparsable values are false.
func (s *Store) Flag(key string) bool {
	value, found := s.values[key]
	if !found {
		return false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed
}

// List interprets the named variable as a comma-separated list. Items are
// trimmed of surrounding whitespace and empty items are dropped. Variables
// that are absent or empty yield a nil list.
func (s *Store) List(key string) []string {
	value, found := s.values[key]
	if !found {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Set assigns a value to the named variable, replacing any existing value.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Merge copies all variables from other into the store. Incoming variables
// overwrite existing ones with the same name.
func (s *Store) Merge(other *Store) {
	if other == nil {
		return
	}
	for key, value := range other.values {
		s.values[key] = value
	}
}

// Len returns the number of variables in the store.
func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns the names of all variables in the store, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a copy of the store's contents.
func (s *Store) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(s.values))
	for key, value := range s.values {
		snapshot[key] = value
	}
	return snapshot
}

// Export writes the store's contents to w as an indented JSON object with
// sorted keys.
func (s *Store) Export(w io.Writer) error {
	encoded, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode the variables: %w", err)
	}
	encoded = append(encoded, '\n')
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("failed to write the variables: %w", err)
	}
	return nil
}
