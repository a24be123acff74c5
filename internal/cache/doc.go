// Package cache provides a file-based, content-addressed result cache for
// scorer and selector invocations.
//
// Entries are keyed by a SHA-256 hash over the scorer identity, an
// order-independent fingerprint of the review set (sorted id/createdAt
// pairs), the instruction fingerprint, and the requested candidate count.
// Each entry is one JSON file carrying a versioned envelope; a version
// mismatch, expired TTL, or any read/parse error is reported as a miss so
// callers always fail open to recomputation.
//
// TTL is measured from file modification time, not a timestamp stored in
// the entry, which keeps expiry immune to clock skew between writer and
// reader. Writes go to a temp file and rename into place, so concurrent
// readers never see a partial entry; same-key races are last-write-wins.
package cache
