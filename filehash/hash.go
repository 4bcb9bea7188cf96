package filehash

import (
	"fmt"
	"hash"
	"io"
	"os"
)

// File computes the requested hash types for the file at the given path.
// The file is read once regardless of the number of hash types requested.
//
// If no hash types are provided, it computes the primary hash type.
func File(path string, types ...Type) (Map, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Reader(file, types...)
}

// Reader computes the requested hash types for data read from r.
// The data is read once regardless of the number of hash types requested.
//
// If no hash types are provided, it computes the primary hash type.
func Reader(r io.Reader, types ...Type) (Map, error) {
	if len(types) == 0 {
		types = []Type{BLAKE3_256}
	}

	// Prepare a hasher for each of the requested types.
	hashers := make([]hash.Hash, 0, len(types))
	writers := make([]io.Writer, 0, len(types))
	for _, typ := range types {
		hasher, err := typ.NewHasher()
		if err != nil {
			return nil, err
		}
		hashers = append(hashers, hasher)
		writers = append(writers, hasher)
	}

	// Feed the data to all of the hashers in a single pass.
	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		return nil, fmt.Errorf("failed to read data while computing file hashes: %w", err)
	}

	// Collect the resulting hash values.
	m := make(Map, len(types))
	for i, typ := range types {
		m[typ] = hashers[i].Sum(nil)
	}

	return m, nil
}
