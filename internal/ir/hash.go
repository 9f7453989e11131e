package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep digests of different record kinds apart.
// The version suffix leaves room for an algorithm change.
const (
	DomainState = "stately/state/v1"
	DomainTrace = "stately/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest returns the content digest of a state tree. Two states have
// the same digest exactly when their canonical JSON is identical.
func StateDigest(state any) (string, error) {
	canonical, err := MarshalCanonical(state)
	if err != nil {
		return "", fmt.Errorf("StateDigest: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// TraceDigest returns the content digest of a recorded trace.
func TraceDigest(trace any) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustStateDigest is like StateDigest but panics on error.
// Use only in tests or when the state is known to be acyclic.
func MustStateDigest(state any) string {
	d, err := StateDigest(state)
	if err != nil {
		panic(err)
	}
	return d
}
