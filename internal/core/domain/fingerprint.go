package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is a deterministic digest of a record's indexable text,
// stored at index time and compared on the next sync to decide whether
// the record needs re-embedding. It is a change detector, not a
// security primitive.
type Fingerprint string

// ComputeFingerprint returns the SHA-256 digest of text as a lowercase
// hex string. Deterministic and order-sensitive: any single-character
// change produces a different fingerprint.
func ComputeFingerprint(text string) Fingerprint {
	sum := sha256.Sum256([]byte(text))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}
