package valuetree

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the 16-hex-character argument fingerprint of v: the first 8
// bytes (16 hex chars) of the SHA-256 digest of v's canonical serialization
// (spec.md §4.1, Glossary "Args fingerprint"). Two trees that are Equal
// always produce the same Hash, and — because Canonical is injective over
// the Value domain — two trees with the same Hash are Equal with
// overwhelming probability (collision resistance of SHA-256).
func Hash(v Value) string {
	sum := sha256.Sum256([]byte(Canonical(v)))
	return hex.EncodeToString(sum[:8])
}

// HashState hashes the canonical serialization of an arbitrary Go value via
// FromAny, for callers (e.g. checkpoint) that need a full-length SHA-256
// digest rather than the truncated 16-hex argument fingerprint.
func HashState(v Value) [32]byte {
	return sha256.Sum256([]byte(Canonical(v)))
}

// HashStateHex is HashState hex-encoded, used by checkpoint.Checkpoint.Hash.
func HashStateHex(v Value) string {
	sum := HashState(v)
	return hex.EncodeToString(sum[:])
}
