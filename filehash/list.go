package filehash

import "strings"

// List is an ordered list of file hash entries.
type List []Entry

// Primary returns the first entry from the list, which is considered the
// primary and canonical hash value.
//
// If the list is empty, it returns a zeroed hash entry.
func (list List) Primary() Entry {
	if len(list) == 0 {
		return Entry{}
	}
	return list[0]
}

// String returns a string representation of the list, with each entry in
// "type:value" form separated by commas.
func (list List) String() string {
	entries := make([]string, 0, len(list))
	for _, entry := range list {
		entries = append(entries, entry.String())
	}
	return strings.Join(entries, ", ")
}
