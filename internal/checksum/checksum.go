// Package checksum computes the canonical content digest used by the
// Collision Resolver to distinguish identical from merely same-named
// files: SHA-256, rendered as uppercase hex with no separators.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Compute reads path through a buffered stream and returns its SHA-256
// digest as uppercase hex with no separators.
func Compute(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum: read %s: %w", path, err)
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Ensure returns the checksum memoized behind get, computing it with
// Compute and storing it through set when get returns "". Not
// safe for concurrent first-access on the same record: a caller that races
// here recomputes wastefully but never incorrectly, since Compute is
// idempotent.
func Ensure(path string, get func() string, set func(string)) (string, error) {
	if existing := get(); existing != "" {
		return existing, nil
	}
	sum, err := Compute(path)
	if err != nil {
		return "", err
	}
	set(sum)
	return sum, nil
}
