package rsjournal

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/leafbridge/rootstock/rsdeploy"
)

// fingerprintKey is the 32-byte domain key for deployment fingerprints.
// Changing it invalidates all recorded fingerprints.
const fingerprintKey = "rootstock.journal.fingerprint.v1"

// fingerprintEncoding is the deterministic CBOR encoding used for the
// variable subset that participates in fingerprints. Core deterministic
// encoding fixes the map ordering, so identical inputs always produce
// identical bytes.
var fingerprintEncoding = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Fingerprint identifies the combination of a deployment package and the
// variables that shape its installation. Two deployments with the same
// fingerprint would produce the same installed result.
type Fingerprint string

// Validate returns a non-nil error if the fingerprint is invalid.
func (f Fingerprint) Validate() error {
	if f == "" {
		return fmt.Errorf("a deployment fingerprint is missing")
	}
	if _, err := hex.DecodeString(string(f)); err != nil {
		return fmt.Errorf("the deployment fingerprint \"%s\" is not hexadecimal: %w", f, err)
	}
	return nil
}

// String returns the fingerprint as a string.
func (f Fingerprint) String() string {
	return string(f)
}

// ComputeFingerprint derives the fingerprint of a deployment from the
// package file at packagePath and the given variables.
//
// Variables under the per-invocation prefix are excluded, so values that
// change on every run do not affect the fingerprint. The remaining subset
// is hashed in a canonical encoding; map iteration order never matters.
func ComputeFingerprint(packagePath string, variables map[string]string) (Fingerprint, error) {
	hasher, err := blake3.NewKeyed([]byte(fingerprintKey))
	if err != nil {
		return "", fmt.Errorf("failed to prepare the fingerprint hasher: %w", err)
	}

	// Feed the package content through the hasher.
	file, err := os.Open(packagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open the package \"%s\": %w", packagePath, err)
	}
	defer file.Close()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read the package \"%s\": %w", packagePath, err)
	}

	// Follow with the canonical encoding of the relevant variables.
	relevant := make(map[string]string, len(variables))
	for key, value := range variables {
		if strings.HasPrefix(key, rsdeploy.VolatilePrefix) {
			continue
		}
		relevant[key] = value
	}
	encoded, err := fingerprintEncoding.Marshal(relevant)
	if err != nil {
		return "", fmt.Errorf("failed to encode the deployment variables: %w", err)
	}
	if _, err := hasher.Write(encoded); err != nil {
		return "", fmt.Errorf("failed to hash the deployment variables: %w", err)
	}

	return Fingerprint(hex.EncodeToString(hasher.Sum(nil))), nil
}
