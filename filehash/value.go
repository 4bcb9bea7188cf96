package filehash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Entry stores a file hash value along with its type.
type Entry struct {
	Type  Type
	Value Value
}

// ParseEntry parses a file hash entry in "type:value" form, such as
// "blake3-256:9f2c". It returns an error if the string is not in the
// expected form or the value is not hexadecimal.
func ParseEntry(s string) (Entry, error) {
	typ, value, found := strings.Cut(s, ":")
	if !found {
		return Entry{}, fmt.Errorf("the file hash \"%s\" is not in \"type:value\" form", s)
	}
	var v Value
	if err := v.UnmarshalText([]byte(value)); err != nil {
		return Entry{}, fmt.Errorf("the file hash \"%s\" does not have a hexadecimal value: %w", s, err)
	}
	return Entry{Type: Type(typ), Value: v}, nil
}

// String returns a string representation of the entry in "type:value" form.
func (e Entry) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.Value)
}

// CompareEntries returns an integer comparing two file hash entries.
// It returns -1 if a is higher priority that b, 1 if b is higher priority
// than a, and 0 if the two entries are identical.
func CompareEntries(a, b Entry) int {
	// Perform a comparison of the hash types, which allows us to exert a
	// preference on known hashes.
	if result := CompareTypes(a.Type, b.Type); result != 0 {
		return result
	}

	// Compare the values as a last resort.
	return bytes.Compare(a.Value, b.Value)
}

// Value stores the bytes of a file hash.
type Value []byte

// Equal reports whether v and other hold the same hash value.
func (v Value) Equal(other Value) bool {
	return bytes.Equal(v, other)
}

// String returns a string representation of v in hexadecimal format.
func (v Value) String() string {
	return hex.EncodeToString(v)
}

// MarshalText encodes v as a hexadecimal string.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText unmarshals the given hexadecimal value into v.
func (v *Value) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	*v = b
	return nil
}
