// Package ir provides the canonical value representation used wherever
// state leaves the process: journal rows, digests and golden traces.
//
// This package imports only the public reactive package. Every other
// internal package may import ir.
//
// Key design constraints:
//   - canonical JSON (RFC 8785) is the only encoding used for hashing
//   - object keys are always visited in UTF-16 order
//   - NaN and infinities are rejected
package ir
