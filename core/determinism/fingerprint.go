// Package determinism holds the pieces that must give identical results for
// identical inputs: recommendation fingerprints, artifact digests, money
// arithmetic and ordered iteration over maps.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// Fingerprint is a short hex identifier derived from ordered inputs
type Fingerprint string

// Fingerprinter derives fingerprints within a namespace, so the same parts
// used for different purposes never collide.
type Fingerprinter struct {
	namespace string
}

func NewFingerprinter(namespace string) *Fingerprinter {
	return &Fingerprinter{namespace: namespace}
}

// Of hashes the namespace and parts. Each part is NUL-terminated so that
// ("ab","c") and ("a","bc") differ.
func (f *Fingerprinter) Of(parts ...string) Fingerprint {
	h := sha256.New()
	for _, p := range append([]string{f.namespace}, parts...) {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))[:16])
}

// Digest is the SHA-256 of a model artifact
type Digest [sha256.Size]byte

func Sum(data []byte) Digest {
	return sha256.Sum256(data)
}

func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// Short is the first 12 hex characters, enough for display
func (d Digest) Short() string {
	return d.Hex()[:12]
}

// Matches compares against a configured checksum. A "sha256:" prefix and
// letter case are ignored.
func (d Digest) Matches(checksum string) bool {
	checksum = strings.ToLower(strings.TrimSpace(checksum))
	return strings.TrimPrefix(checksum, "sha256:") == d.Hex()
}

// SortedKeys returns map keys in ascending order
func SortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
