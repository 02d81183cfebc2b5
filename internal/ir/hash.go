package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainCycle = "seqlock/cycle/v1"
	DomainTable = "seqlock/table/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CycleID computes the content-addressed ID of one recorded clock edge.
// The same session, seq, input and resulting state always produce the
// same ID, which makes rewriting a cycle during replay a no-op.
func CycleID(session string, seq int64, in Input, after State) (string, error) {
	obj := map[string]any{
		"session": session,
		"seq":     seq,
		"input":   in.Object(),
		"after":   after.Object(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CycleID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCycle, canonical), nil
}

// MustCycleID is like CycleID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCycleID(session string, seq int64, in Input, after State) string {
	id, err := CycleID(session, seq, in, after)
	if err != nil {
		panic(err)
	}
	return id
}

// TableHash fingerprints a reference sequence. Sessions are tagged with
// the hash so the log never holds the digits themselves.
func TableHash(digits []Digit) string {
	canonical, err := MarshalCanonical(digits)
	if err != nil {
		// []Digit always marshals.
		panic(err)
	}
	return hashWithDomain(DomainTable, canonical)
}
